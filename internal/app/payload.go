package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/samvad-fetch/pkg/httpclient"
)

// ParseData decodes a YAML or JSON document into Values, keeping the key
// order of the source. The document root must be a mapping.
func ParseData(raw []byte) (httpclient.Values, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return httpclient.Values{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("data must be a mapping, got %s", kindName(root.Kind))
	}
	v, err := nodeValue(root)
	if err != nil {
		return nil, err
	}
	return v.(httpclient.Values), nil
}

func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		out := make(httpclient.Values, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = out.Add(n.Content[i].Value, val)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar at line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported yaml node %s", kindName(n.Kind))
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// ParseFields turns key=value pairs into Values. A repeated key becomes a
// sequence in the position of its first occurrence.
func ParseFields(pairs []string) (httpclient.Values, error) {
	out := httpclient.Values{}
	index := make(map[string]int, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (want key=value)", p)
		}

		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = out.Add(key, val)
			continue
		}
		switch cur := out[i].Value.(type) {
		case []string:
			out[i].Value = append(cur, val)
		case string:
			out[i].Value = []string{cur, val}
		}
	}
	return out, nil
}

// ParseHeaders turns "Name: value" strings into a header map.
func ParseHeaders(lines []string) (map[string]string, error) {
	out := make(map[string]string, len(lines))
	for _, l := range lines {
		name, val, ok := strings.Cut(l, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want Name: value)", l)
		}
		out[name] = strings.TrimSpace(val)
	}
	return out, nil
}

// BuildForm assembles a multipart form from key=value fields and
// field=path file parts. Opened files are returned so the caller can close
// them once the request is done.
func BuildForm(fields, files []string) (*httpclient.Form, []*os.File, error) {
	form := httpclient.NewForm()
	for _, p := range fields {
		key, val, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, nil, fmt.Errorf("invalid form field %q (want key=value)", p)
		}
		form.Append(strings.TrimSpace(key), val)
	}

	var opened []*os.File
	for _, p := range files {
		key, path, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" || strings.TrimSpace(path) == "" {
			closeAll(opened)
			return nil, nil, fmt.Errorf("invalid form file %q (want field=path)", p)
		}
		f, err := os.Open(strings.TrimPrefix(path, "@"))
		if err != nil {
			closeAll(opened)
			return nil, nil, fmt.Errorf("open form file: %w", err)
		}
		opened = append(opened, f)
		form.AppendFile(strings.TrimSpace(key), filepath.Base(f.Name()), "", f)
	}
	return form, opened, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
