package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Payload is request data supplied by a caller. It is either Values or *Form.
type Payload interface {
	isPayload()
}

// Field is a single key/value pair of Values.
type Field struct {
	Key   string
	Value any
}

// Values is a plain mapping that keeps insertion order. Values may be
// scalars, slices/arrays of scalars, or nested Values.
type Values []Field

func (Values) isPayload() {}

// Add appends a key/value pair and returns the extended Values.
func (v Values) Add(key string, value any) Values {
	return append(v, Field{Key: key, Value: value})
}

// ValuesFromMap converts a Go map into Values. Map iteration order is random,
// so keys are sorted to keep the result stable.
func ValuesFromMap(m map[string]any) Values {
	if len(m) == 0 {
		return Values{}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Values, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Key: k, Value: m[k]})
	}
	return out
}

// MarshalJSON encodes Values as a JSON object with keys in insertion order.
func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormField is a text part of a multipart form.
type FormField struct {
	Name  string
	Value string
}

// FormFile is a file part of a multipart form.
type FormFile struct {
	Field       string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// Form is a multipart form payload. It is passed to body verbs untouched and
// cannot be encoded into a query string.
type Form struct {
	fields []FormField
	files  []FormFile
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

func (*Form) isPayload() {}
func (*Form) isBody()    {}

// Append adds a text field. Repeated names are kept.
func (f *Form) Append(name, value string) *Form {
	f.fields = append(f.fields, FormField{Name: name, Value: value})
	return f
}

// AppendFile adds a file part read from r.
func (f *Form) AppendFile(field, fileName, contentType string, r io.Reader) *Form {
	f.files = append(f.files, FormFile{
		Field:       field,
		FileName:    fileName,
		ContentType: contentType,
		Reader:      r,
	})
	return f
}

// Fields returns a copy of the text parts in insertion order.
func (f *Form) Fields() []FormField {
	if f == nil {
		return nil
	}
	out := make([]FormField, len(f.fields))
	copy(out, f.fields)
	return out
}

// Files returns a copy of the file parts in insertion order.
func (f *Form) Files() []FormFile {
	if f == nil {
		return nil
	}
	out := make([]FormFile, len(f.files))
	copy(out, f.files)
	return out
}
