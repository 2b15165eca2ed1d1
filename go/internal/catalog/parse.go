package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcdev12/recognizer/go/clients"
	"gopkg.in/yaml.v3"
)

// Format of a catalog document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file name or URL, defaulting to JSON
func FormatFromPath(source string) Format {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads a catalog from a local file or an http(s) URL
func Load(ctx context.Context, source string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := clients.NewBaseClient("")
		client.SetHeader("Accept", "application/json, application/yaml, text/yaml")
		data, err = client.Get(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern catalog %s: %w", source, err)
	}

	c, err := Parse(data, FormatFromPath(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pattern catalog %s: %w", source, err)
	}
	return c, nil
}

// Parse decodes a name to image mapping, keeping the document's key order
func Parse(data []byte, format Format) (*Catalog, error) {
	var (
		patterns []Pattern
		err      error
	)
	switch format {
	case FormatJSON:
		patterns, err = parseJSON(data)
	case FormatYAML:
		patterns, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return New(patterns)
}

func parseJSON(data []byte) ([]Pattern, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("catalog must be a json object")
	}

	var patterns []Pattern
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		name := tok.(string)

		var image string
		if err := dec.Decode(&image); err != nil {
			return nil, fmt.Errorf("pattern %q: image must be a string: %w", name, err)
		}
		patterns = append(patterns, Pattern{Name: name, Image: image})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after catalog object")
	}
	return patterns, nil
}

func parseYAML(data []byte) ([]Pattern, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyCatalog
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("catalog must be a yaml mapping")
	}

	patterns := make([]Pattern, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("pattern %q: image must be a scalar (line %d)", key.Value, value.Line)
		}
		patterns = append(patterns, Pattern{Name: key.Value, Image: value.Value})
	}
	return patterns, nil
}
