package httpclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultFileContentType = "application/octet-stream"

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyClientFrom wraps an already configured resty.Client.
func NewRestyClientFrom(c *resty.Client) *RestyClient {
	if c == nil {
		c = resty.New()
	}
	return &RestyClient{client: c}
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// SetBaseURL makes relative request URLs resolve against baseURL.
func (r *RestyClient) SetBaseURL(baseURL string) *RestyClient {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		r.client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
	return r
}

// SetLogger routes resty's internal warnings and debug output to l.
func (r *RestyClient) SetLogger(l resty.Logger) *RestyClient {
	if l != nil {
		r.client.SetLogger(l)
	}
	return r
}

// Resty exposes the underlying client for callers needing custom settings.
func (r *RestyClient) Resty() *resty.Client { return r.client }

// Do performs a single HTTP exchange described by opts.
func (r *RestyClient) Do(ctx context.Context, url string, opts Options) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout, err := extraTimeout(opts.Extra)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := r.client.R().SetContext(ctx)
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}

	switch body := opts.Body.(type) {
	case nil:
	case JSONBody:
		req.SetBody([]byte(body))
	case *Form:
		setMultipart(req, body)
	default:
		return nil, fmt.Errorf("unsupported request body %T", opts.Body)
	}

	if err := applyExtras(req, opts.Extra); err != nil {
		return nil, err
	}

	resp, err := req.Execute(opts.Method, url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

func setMultipart(req *resty.Request, form *Form) {
	for _, f := range form.Fields() {
		req.SetMultipartField(f.Name, "", "", strings.NewReader(f.Value))
	}
	for _, f := range form.Files() {
		ct := f.ContentType
		if ct == "" {
			ct = defaultFileContentType
		}
		req.SetMultipartField(f.Field, f.FileName, ct, f.Reader)
	}
}

// applyExtras maps the pass-through options resty knows how to honour.
// Unknown keys are left alone.
func applyExtras(req *resty.Request, extra map[string]any) error {
	if len(extra) == 0 {
		return nil
	}

	if v, ok := extra[ExtraAuthToken]; ok {
		token, ok := v.(string)
		if !ok {
			return fmt.Errorf("option %q must be a string, got %T", ExtraAuthToken, v)
		}
		req.SetAuthToken(token)
	}

	if v, ok := extra[ExtraBasicAuth]; ok {
		switch creds := v.(type) {
		case [2]string:
			req.SetBasicAuth(creds[0], creds[1])
		case []string:
			if len(creds) != 2 {
				return fmt.Errorf("option %q needs user and password", ExtraBasicAuth)
			}
			req.SetBasicAuth(creds[0], creds[1])
		default:
			return fmt.Errorf("option %q must be [2]string, got %T", ExtraBasicAuth, v)
		}
	}

	if v, ok := extra[ExtraQuery]; ok {
		params, ok := v.(map[string]string)
		if !ok {
			return fmt.Errorf("option %q must be map[string]string, got %T", ExtraQuery, v)
		}
		req.SetQueryParams(params)
	}

	if v, ok := extra[ExtraUserAgent]; ok {
		ua, ok := v.(string)
		if !ok {
			return fmt.Errorf("option %q must be a string, got %T", ExtraUserAgent, v)
		}
		if req.Header.Get("User-Agent") == "" {
			req.SetHeader("User-Agent", ua)
		}
	}
	return nil
}

func extraTimeout(extra map[string]any) (time.Duration, error) {
	v, ok := extra[ExtraTimeout]
	if !ok {
		return 0, nil
	}
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case string:
		if secs, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("option %q: %w", ExtraTimeout, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("option %q must be a duration, got %T", ExtraTimeout, v)
	}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
