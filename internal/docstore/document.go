// Package docstore persists small collections of JSON documents and offers a
// find/findOne/findById/create/findByIdAndUpdate/save API on top of them.
//
// Each collection is loaded and stored as a whole. Operations on the same
// collection are serialized by a per-collection lock owned by DB.
package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// IDField is the primary identifier of every document.
	IDField = "_id"
	// AliasField mirrors IDField for clients that read "id".
	AliasField = "id"
)

// Document is one record, a mapping of field name to JSON value.
type Document map[string]any

// ID returns the document identifier as a string, preferring IDField.
func (d Document) ID() string {
	if v, ok := d[IDField]; ok && v != nil {
		return idString(v)
	}
	if v, ok := d[AliasField]; ok && v != nil {
		return idString(v)
	}
	return ""
}

func (d Document) clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// canonical returns doc in the form a backend loads it back in, so ints
// become float64 and typed values become plain JSON values.
func canonical(doc Document) (Document, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return out, nil
}

// Encode converts a typed value into a Document through its JSON form.
func Encode(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Decode converts a Document into T through its JSON form.
func Decode[T any](doc Document) (*T, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID(), err)
	}
	return &v, nil
}

// DecodeAll decodes every document, preserving order.
func DecodeAll[T any](docs []Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Ref is a reference to another document's identifier. Older documents hold
// it as a string, a number or an extended-JSON {"$oid": "..."} object; Ref
// reads all three and always writes a string.
type Ref string

// UnmarshalJSON implements the json.Unmarshaler interface for Ref.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*r = ""
		return nil
	}
	*r = Ref(idString(v))
	return nil
}

// String returns the identifier.
func (r Ref) String() string { return string(r) }

// idString renders an identifier-like value in its canonical string form.
func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case Ref:
		return string(t)
	case interface{ Hex() string }:
		return t.Hex()
	case map[string]any:
		if oid, ok := t["$oid"].(string); ok {
			return oid
		}
	case Document:
		if oid, ok := t["$oid"].(string); ok {
			return oid
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}
