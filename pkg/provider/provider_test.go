package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
	"github.com/samvad-hq/samvad-fetch/pkg/transport"
)

func newTransport(t *testing.T) *transport.Transport {
	t.Helper()
	tr, err := transport.New(httpclient.ClientFunc(func(context.Context, string, httpclient.Options) (httpclient.Response, error) {
		return &httpclient.StaticResponse{Status: 200, Payload: []byte(`{"ok":true}`)}, nil
	}))
	require.NoError(t, err)
	return tr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingClient)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewRejectsTypedNil(t *testing.T) {
	var tr *transport.Transport
	_, err := New(tr)
	assert.ErrorIs(t, err, ErrMissingClient)
}

func TestProviderExposesClient(t *testing.T) {
	tr := newTransport(t)
	p, err := New(tr)
	require.NoError(t, err)

	assert.Same(t, tr, p.Client())
}

func TestRunPassesClientToChild(t *testing.T) {
	tr := newTransport(t)
	p, err := New(tr)
	require.NoError(t, err)

	calls := 0
	err = p.Run(context.Background(), func(ctx context.Context) error {
		calls++
		c, ok := FromContext(ctx)
		require.True(t, ok)

		got, err := c.Request(ctx, "GET", "/x", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ok": true}, got)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunReturnsChildError(t *testing.T) {
	p, err := New(newTransport(t))
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.Same(t, boom, p.Run(context.Background(), func(context.Context) error { return boom }))
	assert.Error(t, p.Run(context.Background(), nil))
}

func TestFromContextWithoutProvider(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })
}
