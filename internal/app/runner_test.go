package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-fetch/internal/config"
	"github.com/samvad-hq/samvad-fetch/internal/storage"
	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
	"github.com/samvad-hq/samvad-fetch/pkg/transport"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Timeout:                2 * time.Second,
		UserAgent:              "samvad-fetch/test",
		JournalType:            "bbolt",
		JournalPath:            filepath.Join(t.TempDir(), "journal.db"),
		JournalTTL:             time.Hour,
		JournalCleanupInterval: time.Hour,
	}
}

func TestRunnerExecutesAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "bar", r.URL.Query().Get("foo"))
		assert.Equal(t, "samvad-fetch/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "default", r.Header.Get("X-Default"))
		assert.Equal(t, "call", r.Header.Get("X-Both"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"mock":"response"}}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.BaseURL = srv.URL
	cfg.DefaultHeaders = map[string]string{"X-Default": "default", "X-Both": "default"}

	r, err := NewRunner(cfg, nil)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Execute(context.Background(), Call{
		Method:  http.MethodGet,
		URL:     "/posts",
		Data:    httpclient.Values{}.Add("foo", "bar"),
		Headers: map[string]string{"X-Both": "call"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"mock": "response"}}, got)

	history, err := r.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, http.StatusOK, history[0].Status)
	assert.Equal(t, "/posts", history[0].URL)
	assert.Empty(t, history[0].Error)
}

func TestRunnerRecordsHTTPErrors(t *testing.T) {
	client := httpclient.ClientFunc(func(context.Context, string, httpclient.Options) (httpclient.Response, error) {
		return &httpclient.StaticResponse{Status: http.StatusServiceUnavailable, Payload: []byte(`{"foo":"bar"}`)}, nil
	})
	journal, err := storage.NewJournal("bbolt", filepath.Join(t.TempDir(), "j.db"), storage.Options{})
	require.NoError(t, err)

	r, err := NewRunnerWith(testConfig(t), client, journal, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Execute(context.Background(), Call{Method: http.MethodPost, URL: "/x"})
	require.Error(t, err)
	assert.True(t, transport.IsHTTPStatus(err, http.StatusServiceUnavailable))

	history, err := r.History(1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, http.StatusServiceUnavailable, history[0].Status)
	assert.NotEmpty(t, history[0].Error)
}

func TestRunnerPassesNetworkErrorsThrough(t *testing.T) {
	netErr := errors.New("dial tcp: refused")
	client := httpclient.ClientFunc(func(context.Context, string, httpclient.Options) (httpclient.Response, error) {
		return nil, netErr
	})

	r, err := NewRunnerWith(testConfig(t), client, nil, nil)
	require.NoError(t, err)

	_, err = r.Execute(context.Background(), Call{Method: http.MethodGet, URL: "/x"})
	assert.Same(t, netErr, err)
}

func TestRunnerKeepsExplicitUserAgentOption(t *testing.T) {
	var got httpclient.Options
	client := httpclient.ClientFunc(func(_ context.Context, _ string, opts httpclient.Options) (httpclient.Response, error) {
		got = opts
		return &httpclient.StaticResponse{Status: http.StatusOK, Payload: []byte(`{}`)}, nil
	})

	r, err := NewRunnerWith(testConfig(t), client, nil, nil)
	require.NoError(t, err)

	_, err = r.Execute(context.Background(), Call{
		Method:  http.MethodGet,
		URL:     "/x",
		Options: map[string]any{httpclient.ExtraUserAgent: "custom"},
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", got.Extra[httpclient.ExtraUserAgent])
}

func TestRequestConfigCallHeadersWinEvenWhenEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultHeaders = map[string]string{"Accept": "text/html", "X-Default": "d"}

	r, err := NewRunnerWith(cfg, httpclient.ClientFunc(nil), nil, nil)
	require.NoError(t, err)

	got, err := r.requestConfig(Call{Headers: map[string]string{"Accept": ""}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "", "X-Default": "d"}, got.Headers)
	assert.Equal(t, map[string]string{"Accept": "text/html", "X-Default": "d"}, cfg.DefaultHeaders)
}

func TestBuildAppliesConfiguredDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultHeaders = map[string]string{"X-Default": "d"}

	r, err := NewRunnerWith(cfg, httpclient.ClientFunc(nil), nil, nil)
	require.NoError(t, err)

	url, opts, err := r.Build(Call{
		Method:  http.MethodGet,
		URL:     "/posts",
		Data:    httpclient.Values{}.Add("foo", "bar"),
		Headers: map[string]string{"X-Call": "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/posts?foo=bar", url)
	assert.Equal(t, map[string]string{"X-Default": "d", "X-Call": "c"}, opts.Headers)
	assert.Equal(t, "samvad-fetch/test", opts.Extra[httpclient.ExtraUserAgent])
}

func TestNewRunnerWithRequiresClient(t *testing.T) {
	_, err := NewRunnerWith(testConfig(t), nil, nil, nil)
	assert.Error(t, err)

	_, err = NewRunnerWith(nil, httpclient.ClientFunc(nil), nil, nil)
	assert.Error(t, err)
}
