// Package transport builds HTTP requests from caller data, hands them to an
// injected httpclient.Client and normalizes the answer into a decoded JSON
// value or an *HTTPError.
//
// GET and DELETE are query verbs: their data is encoded into the URL and they
// never carry a body. Every other verb is a body verb: plain Values are sent
// as JSON text and a *httpclient.Form is passed through unchanged.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
)

// Option keys in Config.Options with special meaning. Everything else is
// passed through to httpclient.Options.Extra untouched.
const (
	OptionHeaders = "headers"
	OptionMethod  = "method"
	OptionBody    = "body"
)

// Config tunes a single request.
type Config struct {
	// Headers are merged into the outgoing header set and win over any
	// header of the same name.
	Headers map[string]string
	// Options are merged into the final request options.
	Options map[string]any
}

// Transport issues requests through an injected client. It holds no mutable
// state and is safe for concurrent use.
type Transport struct {
	client httpclient.Client
}

// New returns a Transport that sends every request through client.
func New(client httpclient.Client) (*Transport, error) {
	if client == nil {
		return nil, errors.New("transport: client must not be nil")
	}
	return &Transport{client: client}, nil
}

// Request sends one request and returns the decoded JSON response body.
//
// Non-2xx answers are returned as *HTTPError. Errors from the client itself
// (network failures, cancelled contexts) are returned unchanged. A
// *httpclient.Form given to GET or DELETE fails with ErrFormDataQuery before
// the client is called.
func (t *Transport) Request(ctx context.Context, method, url string, data httpclient.Payload, cfg *Config) (any, error) {
	endpoint, opts, err := BuildRequest(method, url, data, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (t *Transport) Get(ctx context.Context, url string, data httpclient.Payload, cfg *Config) (any, error) {
	return t.Request(ctx, http.MethodGet, url, data, cfg)
}

func (t *Transport) Post(ctx context.Context, url string, data httpclient.Payload, cfg *Config) (any, error) {
	return t.Request(ctx, http.MethodPost, url, data, cfg)
}

func (t *Transport) Put(ctx context.Context, url string, data httpclient.Payload, cfg *Config) (any, error) {
	return t.Request(ctx, http.MethodPut, url, data, cfg)
}

func (t *Transport) Patch(ctx context.Context, url string, data httpclient.Payload, cfg *Config) (any, error) {
	return t.Request(ctx, http.MethodPatch, url, data, cfg)
}

func (t *Transport) Delete(ctx context.Context, url string, data httpclient.Payload, cfg *Config) (any, error) {
	return t.Request(ctx, http.MethodDelete, url, data, cfg)
}

// BuildRequest computes the final URL and request options without sending
// anything.
func BuildRequest(method, url string, data httpclient.Payload, cfg *Config) (string, httpclient.Options, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	opts := httpclient.Options{
		Method:  method,
		Headers: make(map[string]string, len(cfg.Headers)),
	}
	for k, v := range cfg.Headers {
		opts.Headers[k] = v
	}

	switch {
	case absent(data):
	case IsQueryVerb(method):
		switch d := data.(type) {
		case *httpclient.Form:
			return "", httpclient.Options{}, ErrFormDataQuery
		case httpclient.Values:
			qs, err := EncodeQuery(d)
			if err != nil {
				return "", httpclient.Options{}, err
			}
			url = appendQuery(url, qs)
		}
	default:
		switch d := data.(type) {
		case *httpclient.Form:
			opts.Body = d
		case httpclient.Values:
			b, err := json.Marshal(d)
			if err != nil {
				return "", httpclient.Options{}, fmt.Errorf("encode body: %w", err)
			}
			opts.Body = httpclient.JSONBody(b)
		default:
			return "", httpclient.Options{}, fmt.Errorf("unsupported payload %T", data)
		}
	}

	if err := mergeOptions(&opts, cfg.Options); err != nil {
		return "", httpclient.Options{}, err
	}
	return url, opts, nil
}

// IsQueryVerb reports whether method encodes its data into the URL.
func IsQueryVerb(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet, http.MethodDelete:
		return true
	}
	return false
}

func absent(data httpclient.Payload) bool {
	switch d := data.(type) {
	case nil:
		return true
	case httpclient.Values:
		return d == nil
	case *httpclient.Form:
		return d == nil
	}
	return false
}

// mergeOptions copies caller options into opts. Values are kept as given,
// zero values included.
func mergeOptions(opts *httpclient.Options, extra map[string]any) error {
	for k, v := range extra {
		switch k {
		case OptionHeaders:
			h, ok := v.(map[string]string)
			if !ok {
				return fmt.Errorf("option %q must be map[string]string, got %T", k, v)
			}
			for name, value := range h {
				opts.Headers[name] = value
			}
		case OptionMethod:
			m, ok := v.(string)
			if !ok {
				return fmt.Errorf("option %q must be a string, got %T", k, v)
			}
			opts.Method = m
		case OptionBody:
			if v == nil {
				opts.Body = nil
				continue
			}
			b, ok := v.(httpclient.Body)
			if !ok {
				return fmt.Errorf("option %q must be an httpclient.Body, got %T", k, v)
			}
			opts.Body = b
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]any, len(extra))
			}
			opts.Extra[k] = v
		}
	}
	return nil
}

func parseResponse(resp httpclient.Response) (any, error) {
	if isNilResponse(resp) {
		return nil, errors.New("transport: client returned no response")
	}

	status := resp.StatusCode()
	body := resp.Body()

	if status < 200 || status > 299 {
		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			parsed = string(body)
		}
		return nil, &HTTPError{Response: parsed, Status: status}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return out, nil
}

// Decode converts a value returned by Request into T.
func Decode[T any](value any) (T, error) {
	var out T
	raw, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("re-encode value: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode into %T: %w", out, err)
	}
	return out, nil
}

// Do sends a request and decodes the result into T.
func Do[T any](ctx context.Context, t *Transport, method, url string, data httpclient.Payload, cfg *Config) (T, error) {
	v, err := t.Request(ctx, method, url, data, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

func isNilResponse(resp httpclient.Response) bool {
	if resp == nil {
		return true
	}
	v := reflect.ValueOf(resp)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
