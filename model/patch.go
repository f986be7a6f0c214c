package model

import (
	"bytes"
	"encoding/json"
)

// Field is one member of a partial update. A field absent from the JSON
// document stays unset; an explicit null is Set with Null true.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Value[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

func Null[T any]() Field[T] { return Field[T]{Set: true, Null: true} }

// Get returns the value when the field carries one.
func (f Field[T]) Get() (T, bool) {
	if !f.Set || f.Null {
		var zero T
		return zero, false
	}
	return f.Value, true
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		f.Null, f.Value = true, zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
