package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// It plays the role of a fetch function: one call, one exchange.
type Client interface {
	Do(ctx context.Context, url string, opts Options) (Response, error)
}

// ClientFunc adapts a plain function to the Client interface.
type ClientFunc func(ctx context.Context, url string, opts Options) (Response, error)

// Do calls f(ctx, url, opts).
func (f ClientFunc) Do(ctx context.Context, url string, opts Options) (Response, error) {
	return f(ctx, url, opts)
}

// StaticResponse is an in-memory Response, handy for stubs and tests.
type StaticResponse struct {
	Status  int
	Payload []byte
}

func (s *StaticResponse) Body() []byte    { return s.Payload }
func (s *StaticResponse) StatusCode() int { return s.Status }
