package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identifier is implemented by payloads that carry their own id
type Identifier interface {
	Identity() string
}

// Ref is a reference that arrives either as a bare id or as the populated document.
// The zero Ref is empty.
type Ref[T Identifier] struct {
	id       string
	resolved *T
}

// Reference returns an unresolved Ref holding only the id
func Reference[T Identifier](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Resolved returns a Ref holding the populated document
func Resolved[T Identifier](v T) Ref[T] {
	return Ref[T]{id: v.Identity(), resolved: &v}
}

// ID is the canonical id. A populated document's own id wins over the bare one.
func (r Ref[T]) ID() string {
	if r.resolved != nil {
		if id := (*r.resolved).Identity(); id != "" {
			return id
		}
	}
	return r.id
}

// Value returns the populated document, if any
func (r Ref[T]) Value() (T, bool) {
	if r.resolved == nil {
		var zero T
		return zero, false
	}
	return *r.resolved, true
}

// IsResolved reports whether the document was populated
func (r Ref[T]) IsResolved() bool {
	return r.resolved != nil
}

// IsZero reports whether the reference is empty
func (r Ref[T]) IsZero() bool {
	return r.resolved == nil && r.id == ""
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Reference[T](id)
		return nil
	case '{':
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = Resolved(v)
		return nil
	}
	return fmt.Errorf("storefront: reference must be a string or an object, got %.20s", data)
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.resolved != nil {
		return json.Marshal(*r.resolved)
	}
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}
