// Package schema holds the per-resource record schemas and the validators
// built from them. Validation is shallow: it checks that each record is an
// object and that its required fields have the right JSON type, and stops at
// the first violation. Cross-record rules such as unique post ids are not
// checked.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mbj/siteapi/internal/domain/entities"
)

// Validator checks a candidate payload for one resource. It returns nil or a
// *entities.ValidationError and never performs I/O.
type Validator func(payload []byte) error

// Kind is the JSON type a required field must have.
type Kind int

const kindOther Kind = -1

const (
	KindString Kind = iota
	KindNumber
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Field is one required field of a record.
type Field struct {
	Name    string
	Kind    Kind
	Message string
}

// RecordSchema describes the records of a resource array. Nested, when set, is
// checked after Fields.
type RecordSchema struct {
	NotObject string
	Fields    []Field
	Nested    *NestedList
}

// NestedList is a required array field whose elements follow their own schema.
type NestedList struct {
	Field    string
	NotArray string
	Item     RecordSchema
}

// CollectionSchema is the top-level shape of a resource file: an array of
// records.
type CollectionSchema struct {
	Resource entities.ResourceKey
	Record   RecordSchema
}

// Validate implements Validator for the collection.
func (c CollectionSchema) Validate(payload []byte) error {
	if kindOf(payload) != KindArray {
		return c.fail(fmt.Sprintf("%s payload must be an array", c.Resource))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return c.fail(fmt.Sprintf("%s payload must be an array", c.Resource))
	}

	for _, raw := range records {
		if msg, ok := c.Record.check(raw); !ok {
			return c.fail(msg)
		}
	}
	return nil
}

func (c CollectionSchema) fail(msg string) error {
	return &entities.ValidationError{Resource: c.Resource, Message: msg}
}

func (r RecordSchema) check(raw json.RawMessage) (string, bool) {
	if kindOf(raw) != KindObject {
		return r.NotObject, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return r.NotObject, false
	}

	for _, f := range r.Fields {
		value, present := fields[f.Name]
		if !present || kindOf(value) != f.Kind {
			return f.Message, false
		}
	}

	if r.Nested == nil {
		return "", true
	}

	value, present := fields[r.Nested.Field]
	if !present || kindOf(value) != KindArray {
		return r.Nested.NotArray, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(value, &items); err != nil {
		return r.Nested.NotArray, false
	}
	for _, item := range items {
		if msg, ok := r.Nested.Item.check(item); !ok {
			return msg, false
		}
	}
	return "", true
}

// kindOf classifies a raw JSON value by its first significant byte. Invalid
// JSON, null and booleans are kindOther.
func kindOf(raw []byte) Kind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return kindOther
	}
	switch c := raw[0]; {
	case c == '"':
		return KindString
	case c == '[':
		return KindArray
	case c == '{':
		return KindObject
	case c == '-' || (c >= '0' && c <= '9'):
		return KindNumber
	}
	return kindOther
}
