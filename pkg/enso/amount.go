package enso

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OutputRef points at the output of an earlier action in the same bundle.
// The server substitutes the value while executing the bundle.
type OutputRef struct {
	UseOutputOfCallAt int  `json:"useOutputOfCallAt"`
	Index             *int `json:"index,omitempty"`
}

// Amount is either a literal integer (wei, token units) or an OutputRef.
// The zero value is the empty literal. A literal decoded from a JSON number
// is sent back as a number.
type Amount struct {
	literal string
	number  bool
	ref     *OutputRef
}

// Literal returns a fixed amount.
func Literal(v string) Amount {
	return Amount{literal: v}
}

// OutputOf references the whole output of call n.
func OutputOf(n int) Amount {
	return Amount{ref: &OutputRef{UseOutputOfCallAt: n}}
}

// OutputOfAt references element index of the output of call n.
func OutputOfAt(n, index int) Amount {
	i := index
	return Amount{ref: &OutputRef{UseOutputOfCallAt: n, Index: &i}}
}

func (a Amount) IsRef() bool { return a.ref != nil }

// Ref returns the referenced call; ok is false for literals.
func (a Amount) Ref() (ref OutputRef, ok bool) {
	if a.ref == nil {
		return OutputRef{}, false
	}
	return *a.ref, true
}

// Value returns the literal; ok is false for references.
func (a Amount) Value() (string, bool) {
	if a.ref != nil {
		return "", false
	}
	return a.literal, true
}

func (a Amount) String() string {
	if a.ref == nil {
		return a.literal
	}
	if a.ref.Index != nil {
		return fmt.Sprintf("output(%d)[%d]", a.ref.UseOutputOfCallAt, *a.ref.Index)
	}
	return fmt.Sprintf("output(%d)", a.ref.UseOutputOfCallAt)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.ref != nil {
		return json.Marshal(a.ref)
	}
	if a.number {
		return []byte(a.literal), nil
	}
	return json.Marshal(a.literal)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*a = Amount{}
		return nil
	case data[0] == '{':
		var ref OutputRef
		if err := json.Unmarshal(data, &ref); err != nil {
			return fmt.Errorf("amount reference: %w", err)
		}
		*a = Amount{ref: &ref}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount{literal: s}
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		*a = Amount{literal: n.String(), number: true}
		return nil
	}
}

// Quantity is a numeric response field the API sends as string or number.
// It is always re-emitted as a string.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*q = Quantity(n.String())
	return nil
}

// Num is a numeric action argument (bps, ticks, pool fees). The API accepts a
// JSON number or a decimal string; Num re-emits the form it was built with.
type Num struct {
	text   string
	quoted bool
}

// NumString builds a Num sent as a JSON string.
func NumString(s string) Num { return Num{text: s, quoted: true} }

// NumInt builds a Num sent as a JSON number.
func NumInt(n int64) Num { return Num{text: strconv.FormatInt(n, 10)} }

// Bps is shorthand for a basis-point Num.
func Bps(n int) Num { return NumInt(int64(n)) }

func (n Num) String() string { return n.text }
func (n Num) IsZero() bool   { return n.text == "" }
func (n Num) IsQuoted() bool { return n.quoted }

func (n Num) MarshalJSON() ([]byte, error) {
	switch {
	case n.text == "":
		return []byte("null"), nil
	case n.quoted:
		return json.Marshal(n.text)
	case !json.Valid([]byte(n.text)):
		return nil, fmt.Errorf("num: %q is not a JSON number", n.text)
	}
	return []byte(n.text), nil
}

func (n *Num) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Num{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumString(s)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("num: %w", err)
	}
	*n = Num{text: v.String()}
	return nil
}
