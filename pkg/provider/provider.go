// Package provider hands a client instance to downstream code. The client is
// passed explicitly, either as the Provider handle or carried in a
// context.Context, so ownership and lifetime stay with the caller.
package provider

import (
	"context"
	"errors"
	"reflect"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
	"github.com/samvad-hq/samvad-fetch/pkg/transport"
)

// Client is the capability the provider exposes. *transport.Transport
// satisfies it.
type Client interface {
	Request(ctx context.Context, method, url string, data httpclient.Payload, cfg *transport.Config) (any, error)
}

// ConfigError reports a provider built without the dependencies it needs.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ErrMissingClient is returned by New when no client is supplied.
var ErrMissingClient = &ConfigError{Msg: "provider: a client instance is required"}

// Provider owns the client handed to descendants.
type Provider struct {
	client Client
}

// New returns a Provider for client. A nil client, including a typed nil
// pointer, fails with ErrMissingClient.
func New(client Client) (*Provider, error) {
	if isNil(client) {
		return nil, ErrMissingClient
	}
	return &Provider{client: client}, nil
}

// Client returns the provided client.
func (p *Provider) Client() Client {
	return p.client
}

type ctxKey struct{}

// Attach returns a child context carrying the provided client.
func (p *Provider) Attach(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, p.client)
}

// Run invokes child once with a context carrying the client and returns its
// result unchanged.
func (p *Provider) Run(ctx context.Context, child func(ctx context.Context) error) error {
	if child == nil {
		return errors.New("provider: child must not be nil")
	}
	return child(p.Attach(ctx))
}

// FromContext returns the client attached by the nearest Provider.
func FromContext(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(ctxKey{}).(Client)
	return c, ok && c != nil
}

// MustFromContext is like FromContext but panics when no client is attached.
func MustFromContext(ctx context.Context) Client {
	c, ok := FromContext(ctx)
	if !ok {
		panic("provider: no client in context")
	}
	return c
}

func isNil(c Client) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
