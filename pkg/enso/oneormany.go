package enso

import (
	"bytes"
	"encoding/json"
)

// OneOrMany holds an argument the API accepts either as a single value or a list.
// It serialises back to the shape it was built with.
type OneOrMany[T any] struct {
	items []T
	many  bool
}

func One[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{items: []T{v}}
}

func Many[T any](v ...T) OneOrMany[T] {
	items := make([]T, len(v))
	copy(items, v)
	return OneOrMany[T]{items: items, many: true}
}

// Items returns the values; a single value yields a slice of length one.
func (o OneOrMany[T]) Items() []T {
	out := make([]T, len(o.items))
	copy(out, o.items)
	return out
}

func (o OneOrMany[T]) IsMany() bool { return o.many }
func (o OneOrMany[T]) Len() int     { return len(o.items) }

func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if o.many {
		if o.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.items)
	}
	if len(o.items) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(o.items[0])
}

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = OneOrMany[T]{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*o = OneOrMany[T]{items: items, many: true}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = One(v)
	return nil
}
