package httpclient

// Options is the request descriptor handed to a Client.
type Options struct {
	Method  string
	Headers map[string]string
	// Body is nil, a JSONBody or a *Form.
	Body Body
	// Extra carries caller supplied pass-through options verbatim.
	Extra map[string]any
}

// Body is the sealed set of request bodies a Client must understand.
type Body interface {
	isBody()
}

// JSONBody is an already serialized JSON document.
type JSONBody string

func (JSONBody) isBody() {}

// Common keys understood by RestyClient when present in Options.Extra.
const (
	ExtraTimeout   = "timeout"
	ExtraAuthToken = "auth_token"
	ExtraBasicAuth = "basic_auth"
	ExtraQuery     = "query"
	ExtraUserAgent = "user_agent"
)
