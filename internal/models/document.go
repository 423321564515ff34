package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotAnObject = errors.New("document is not a JSON object")

// Document is a schema-less JSON object as received from external services.
type Document map[string]any

// ParseDocument decodes raw JSON into a Document. Numbers keep their float64 form.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotAnObject
	}
	return doc, nil
}

// Value implements driver.Valuer.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (d *Document) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported document source %T", src)
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// Clone returns a shallow copy so callers can add keys without touching the original.
func (d Document) Clone() Document {
	out := make(Document, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-nil value.
func (d Document) Has(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// First returns the first non-nil value among keys.
func (d Document) First(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := d[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Object returns the nested object stored under key.
func (d Document) Object(key string) (Document, bool) {
	switch v := d[key].(type) {
	case Document:
		return v, true
	case map[string]any:
		return Document(v), true
	default:
		return nil, false
	}
}
