package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
)

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name   string
		values httpclient.Values
		want   string
	}{
		{
			name:   "insertion order",
			values: httpclient.Values{}.Add("z", 1).Add("a", 2),
			want:   "z=1&a=2",
		},
		{
			name:   "sequences use brackets",
			values: httpclient.Values{}.Add("tags", []string{"go", "http"}),
			want:   "tags[]=go&tags[]=http",
		},
		{
			name:   "spaces and reserved characters",
			values: httpclient.Values{}.Add("q", "a b&c=d"),
			want:   "q=a%20b%26c%3Dd",
		},
		{
			name:   "scalars",
			values: httpclient.Values{}.Add("ok", true).Add("ratio", 1.5).Add("none", nil),
			want:   "ok=true&ratio=1.5&none=",
		},
		{
			name:   "empty sequence",
			values: httpclient.Values{}.Add("ids", []int{}),
			want:   "",
		},
		{
			name:   "nested values travel as json",
			values: httpclient.Values{}.Add("filter", httpclient.Values{}.Add("a", 1)),
			want:   "filter=%7B%22a%22%3A1%7D",
		},
		{
			name:   "marks left unescaped",
			values: httpclient.Values{}.Add("q", "it's (a)*!~-_."),
			want:   "q=it's%20(a)*!~-_.",
		},
		{
			name:   "bytes are scalar",
			values: httpclient.Values{}.Add("raw", []byte("xy")),
			want:   "raw=xy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeQuery(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppendQuery(t *testing.T) {
	assert.Equal(t, "/a", appendQuery("/a", ""))
	assert.Equal(t, "/a?x=1", appendQuery("/a", "x=1"))
	assert.Equal(t, "/a?y=2&x=1", appendQuery("/a?y=2", "x=1"))
	assert.Equal(t, "/a?x=1", appendQuery("/a?", "x=1"))
	assert.Equal(t, "/a?x=1#top", appendQuery("/a#top", "x=1"))
}

func TestBuildRequestDoesNotMutateConfig(t *testing.T) {
	cfg := &Config{
		Headers: map[string]string{"X-A": "1"},
		Options: map[string]any{OptionHeaders: map[string]string{"X-B": "2"}},
	}

	_, opts, err := BuildRequest("GET", "/a", nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"X-A": "1", "X-B": "2"}, opts.Headers)
	assert.Equal(t, map[string]string{"X-A": "1"}, cfg.Headers)
}

func TestBuildRequestRejectsBadOptionTypes(t *testing.T) {
	_, _, err := BuildRequest("POST", "/a", nil, &Config{Options: map[string]any{OptionMethod: 1}})
	assert.Error(t, err)

	_, _, err = BuildRequest("POST", "/a", nil, &Config{Options: map[string]any{OptionHeaders: "x"}})
	assert.Error(t, err)
}

func TestIsQueryVerb(t *testing.T) {
	assert.True(t, IsQueryVerb("GET"))
	assert.True(t, IsQueryVerb("delete"))
	assert.False(t, IsQueryVerb("POST"))
	assert.False(t, IsQueryVerb("OPTIONS"))
}
