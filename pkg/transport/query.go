package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
)

// EncodeQuery serializes values into a query string in insertion order.
// Sequence values repeat the key with a literal "[]" suffix: posts[]=1&posts[]=2.
func EncodeQuery(values httpclient.Values) (string, error) {
	pairs := make([]string, 0, len(values))
	for _, f := range values {
		key := escapeComponent(f.Key)

		if items, ok := sequence(f.Value); ok {
			for _, item := range items {
				s, err := scalarString(item)
				if err != nil {
					return "", fmt.Errorf("encode %q: %w", f.Key, err)
				}
				pairs = append(pairs, key+"[]="+escapeComponent(s))
			}
			continue
		}

		s, err := scalarString(f.Value)
		if err != nil {
			return "", fmt.Errorf("encode %q: %w", f.Key, err)
		}
		pairs = append(pairs, key+"="+escapeComponent(s))
	}
	return strings.Join(pairs, "&"), nil
}

// appendQuery joins qs to rawURL, reusing an existing query if one is present.
func appendQuery(rawURL, qs string) string {
	if qs == "" {
		return rawURL
	}

	frag := ""
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		rawURL, frag = rawURL[:i], rawURL[i:]
	}

	switch {
	case !strings.Contains(rawURL, "?"):
		rawURL += "?" + qs
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
		rawURL += qs
	default:
		rawURL += "&" + qs
	}
	return rawURL + frag
}

// componentUnescaper restores the marks encodeURIComponent leaves alone but
// url.QueryEscape encodes. '+' only appears for spaces.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent percent-encodes s the way encodeURIComponent does.
func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// sequence returns the elements of slice and array values. []byte is treated
// as a scalar string.
func sequence(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	if _, ok := v.(httpclient.Values); ok {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case json.Number:
		return t.String(), nil
	case fmt.Stringer:
		return t.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), nil
	}

	// Nested mappings have no query form; they travel as JSON text.
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
