package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"
	"go.uber.org/zap"

	"github.com/samvad-hq/samvad-fetch/internal/config"
	"github.com/samvad-hq/samvad-fetch/internal/logger"
	"github.com/samvad-hq/samvad-fetch/internal/storage"
	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
	"github.com/samvad-hq/samvad-fetch/pkg/provider"
	"github.com/samvad-hq/samvad-fetch/pkg/transport"
)

// Call describes a single request issued from the command line.
type Call struct {
	Method  string
	URL     string
	Data    httpclient.Payload
	Headers map[string]string
	Options map[string]any
}

// Runner wires config, the HTTP client, the transport and the journal
// together and executes calls.
type Runner struct {
	cfg      *config.Config
	provider *provider.Provider
	journal  storage.Journal
	log      logger.Logger
}

// NewRunner builds a runtime from config, using resty as the HTTP client.
func NewRunner(cfg *config.Config, sugar *zap.SugaredLogger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	client := httpclient.NewRestyClient(cfg.Timeout).SetBaseURL(cfg.BaseURL)
	if sugar != nil {
		client.SetLogger(sugar)
	}

	journal, err := storage.NewJournal(cfg.JournalType, cfg.JournalPath, storage.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	log := logger.New(sugar)
	log.DebugObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"entry_ttl_seconds":        int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	r, err := NewRunnerWith(cfg, client, journal, log)
	if err != nil {
		journal.Close()
		return nil, err
	}
	return r, nil
}

// NewRunnerWith builds a runtime around an injected client and journal.
func NewRunnerWith(cfg *config.Config, client httpclient.Client, journal storage.Journal, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if journal == nil {
		journal, _ = storage.NewJournal("none", "", storage.Options{})
	}

	if client == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	tr, err := transport.New(statusRecorder{next: client})
	if err != nil {
		return nil, err
	}
	p, err := provider.New(tr)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	return &Runner{cfg: cfg, provider: p, journal: journal, log: log}, nil
}

// Execute sends the call and records the exchange in the journal.
func (r *Runner) Execute(ctx context.Context, call Call) (any, error) {
	if r == nil || r.provider == nil {
		return nil, fmt.Errorf("runner is not initialized")
	}

	cfg, err := r.requestConfig(call)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var result any
	status := new(int)
	ctx = context.WithValue(ctx, statusKey{}, status)
	start := time.Now()
	err = r.provider.Run(ctx, func(ctx context.Context) error {
		var reqErr error
		result, reqErr = provider.MustFromContext(ctx).Request(ctx, call.Method, call.URL, call.Data, cfg)
		return reqErr
	})
	r.record(call, start, *status, err)
	return result, err
}

// requestConfig layers call headers and options over configured defaults.
// Call values win, empty strings included.
func (r *Runner) requestConfig(call Call) (*transport.Config, error) {
	headers := make(map[string]string, len(call.Headers)+len(r.cfg.DefaultHeaders))
	for k, v := range r.cfg.DefaultHeaders {
		headers[k] = v
	}
	if len(call.Headers) > 0 {
		if err := mergo.Merge(&headers, call.Headers, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge call headers: %w", err)
		}
	}

	opts := make(map[string]any, len(call.Options)+1)
	for k, v := range call.Options {
		opts[k] = v
	}
	if _, ok := opts[httpclient.ExtraUserAgent]; !ok && r.cfg.UserAgent != "" {
		opts[httpclient.ExtraUserAgent] = r.cfg.UserAgent
	}

	return &transport.Config{Headers: headers, Options: opts}, nil
}

// Build returns the URL and options Execute would send for call, without
// sending anything.
func (r *Runner) Build(call Call) (string, httpclient.Options, error) {
	if r == nil || r.cfg == nil {
		return "", httpclient.Options{}, fmt.Errorf("runner is not initialized")
	}
	cfg, err := r.requestConfig(call)
	if err != nil {
		return "", httpclient.Options{}, err
	}
	return transport.BuildRequest(call.Method, call.URL, call.Data, cfg)
}

func (r *Runner) record(call Call, start time.Time, status int, err error) {
	e := storage.Exchange{
		Method:     call.Method,
		URL:        call.URL,
		Status:     status,
		DurationMS: time.Since(start).Milliseconds(),
		At:         start.UTC(),
	}

	var he *transport.HTTPError
	switch {
	case err == nil:
	case errors.As(err, &he):
		e.Status = he.Status
		e.Error = he.Error()
	default:
		e.Error = err.Error()
	}

	if err != nil {
		r.log.WarnObj("request failed", "exchange", e)
	} else {
		r.log.InfoObj("request completed", "exchange", e)
	}

	if _, jerr := r.journal.Record(e); jerr != nil {
		r.log.ErrorObj("journal record failed", "error", jerr.Error())
	}
}

type statusKey struct{}

// statusRecorder notes the response status in the slot carried by the
// request context, so the journal sees the real status of successful calls.
type statusRecorder struct {
	next httpclient.Client
}

func (s statusRecorder) Do(ctx context.Context, url string, opts httpclient.Options) (httpclient.Response, error) {
	resp, err := s.next.Do(ctx, url, opts)
	if err == nil && resp != nil {
		if slot, ok := ctx.Value(statusKey{}).(*int); ok {
			*slot = resp.StatusCode()
		}
	}
	return resp, err
}

// History lists recent exchanges, newest first.
func (r *Runner) History(limit int) ([]storage.Exchange, error) {
	return r.journal.Recent(limit)
}

// Close releases the journal.
func (r *Runner) Close() error {
	if r == nil || r.journal == nil {
		return nil
	}
	if err := r.journal.Close(); err != nil {
		r.log.ErrorObj("journal close failed", "error", err.Error())
		return err
	}
	return nil
}
