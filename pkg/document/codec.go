package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// Format is a document encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	BSON Format = "bson"
)

// FormatOf picks the format from a file extension. Unknown extensions are
// read as YAML, which also accepts JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".bson":
		return BSON
	}
	return YAML
}

// Marshal encodes doc.
func Marshal(doc *Document, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(doc, "", "  ")
	case BSON:
		return bson.Marshal(doc)
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown document format %q", f)
}

// Unmarshal decodes a document without validating it.
func Unmarshal(data []byte, f Format) (*Document, error) {
	var (
		doc Document
		err error
	)
	switch f {
	case JSON:
		err = json.Unmarshal(data, &doc)
	case BSON:
		err = bson.Unmarshal(data, &doc)
	case YAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unknown document format %q", f)
	}
	if err != nil {
		return nil, invalid("decode %s document", f).WithCause(err)
	}
	return &doc, nil
}

// Read loads and validates the document at path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Unmarshal(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Write stores doc at path in the format its extension names.
func Write(path string, doc *Document) error {
	data, err := Marshal(doc, FormatOf(path))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
