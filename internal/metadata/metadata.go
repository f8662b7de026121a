// Package metadata reads and rewrites the project's package metadata file.
//
// The metadata file is a JSON object (package.json by default) holding at least
// a "version" field. relflow only ever touches the version, so the document is
// kept as an ordered list of raw fields: keys keep their original order and
// values are written back byte-for-byte (modulo indentation).
//
// Key types:
//   - [Metadata] is the in-memory document
//   - [Store] reads and atomically rewrites the document on an afero filesystem
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"relflow/internal/version"
)

// VersionKey is the metadata field holding the project version.
const VersionKey = "version"

// ErrMissingVersion indicates a metadata document without a string "version" field.
var ErrMissingVersion = errors.New("metadata has no version field")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Metadata is an order-preserving JSON object.
type Metadata struct {
	keys   []string
	fields map[string]jsoniter.RawMessage
}

// New returns an empty document.
func New() *Metadata {
	return &Metadata{fields: make(map[string]jsoniter.RawMessage)}
}

// Parse decodes a JSON object, remembering field order.
func Parse(data []byte) (*Metadata, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid metadata JSON")
	}

	iter := jsoniter.ParseBytes(jsonAPI, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("metadata must be a JSON object")
	}

	m := New()
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		raw := it.SkipAndReturnBytes()
		if it.Error != nil {
			return false
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			it.ReportError("compact", err.Error())
			return false
		}
		m.setRaw(key, compact.Bytes())
		return true
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, fmt.Errorf("invalid metadata JSON: %w", iter.Error)
	}
	return m, nil
}

func (m *Metadata) setRaw(key string, raw []byte) {
	if _, ok := m.fields[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.fields[key] = raw
}

// Keys returns the field names in document order.
func (m *Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the raw JSON value of key.
func (m *Metadata) Get(key string) (jsoniter.RawMessage, bool) {
	raw, ok := m.fields[key]
	return raw, ok
}

// Set marshals value into key. New keys are appended at the end.
func (m *Metadata) Set(key string, value interface{}) error {
	raw, err := jsonAPI.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode metadata field %s: %w", key, err)
	}
	m.setRaw(key, raw)
	return nil
}

// RawVersion returns the version field as a string, or "" if absent.
func (m *Metadata) RawVersion() string {
	raw, ok := m.fields[VersionKey]
	if !ok {
		return ""
	}
	var s string
	if err := jsonAPI.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Version parses the version field.
//
// Returns [ErrMissingVersion] when the field is absent or not a string and an
// error wrapping [version.ErrInvalidVersion] when it is not a semantic version.
func (m *Metadata) Version() (version.Version, error) {
	s := m.RawVersion()
	if s == "" {
		return version.Version{}, ErrMissingVersion
	}
	return version.Parse(s)
}

// SetVersion replaces the version field.
func (m *Metadata) SetVersion(v version.Version) {
	// Marshalling a string cannot fail.
	_ = m.Set(VersionKey, v.String())
}

// MarshalJSON encodes the document compactly in field order.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := jsonAPI.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(m.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode returns the document indented with two spaces and a trailing newline,
// the layout npm uses for package.json.
func (m *Metadata) Encode() ([]byte, error) {
	compact, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
