package prestashop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The webservice is loose about JSON types: ids arrive as numbers or strings,
// single-element collections arrive as bare objects, and multi-language text
// arrives as either a string or a list/map of translations. The types below
// absorb those variations at decode time.

// FlexInt decodes a number, a numeric string, or null. Anything unparseable
// decodes to 0.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil {
		*f = FlexInt(int(fl))
		return nil
	}
	*f = 0
	return nil
}

func (f FlexInt) Int() int { return int(f) }

// FlexString decodes strings, numbers and booleans into their text form.
// null, objects and arrays decode to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '{', '[', 'n':
		*f = ""
	default:
		*f = FlexString(string(data))
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// OrEmpty returns nil for blank values.
func (f FlexString) OrEmpty() *string {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return nil
	}
	return &s
}

// OneOrMany decodes either a JSON array of T or a single T object.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	if data[0] == '{' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*o = []T{one}
		return nil
	}
	// Scalars (e.g. "" for an empty association) carry no entries.
	*o = nil
	return nil
}

type textKind uint8

const (
	textNull textKind = iota
	textScalar
	textLocalized
)

// TextValue is either a scalar string or an ordered mapping of language keys to
// nested TextValues. JSON arrays decode as mappings keyed "0", "1", ...
type TextValue struct {
	kind    textKind
	scalar  string
	entries []TextEntry
}

type TextEntry struct {
	Key   string
	Value TextValue
}

func Scalar(s string) TextValue {
	return TextValue{kind: textScalar, scalar: s}
}

func Localized(entries ...TextEntry) TextValue {
	return TextValue{kind: textLocalized, entries: entries}
}

func (v TextValue) IsNull() bool      { return v.kind == textNull }
func (v TextValue) IsScalar() bool    { return v.kind == textScalar }
func (v TextValue) IsLocalized() bool { return v.kind == textLocalized }

func (v TextValue) Entries() []TextEntry { return v.entries }

// Get looks up a key of a localized value.
func (v TextValue) Get(key string) (TextValue, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return TextValue{}, false
}

func (v *TextValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeText(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func decodeText(dec *json.Decoder) (TextValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return TextValue{}, err
	}

	switch t := tok.(type) {
	case nil:
		return TextValue{}, nil
	case string:
		return Scalar(t), nil
	case json.Number:
		return Scalar(t.String()), nil
	case bool:
		return Scalar(strconv.FormatBool(t)), nil
	case json.Delim:
		switch t {
		case '{':
			var entries []TextEntry
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return TextValue{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return TextValue{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeText(dec)
				if err != nil {
					return TextValue{}, err
				}
				entries = append(entries, TextEntry{Key: key, Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return TextValue{}, err
			}
			return Localized(entries...), nil
		case '[':
			var entries []TextEntry
			for i := 0; dec.More(); i++ {
				value, err := decodeText(dec)
				if err != nil {
					return TextValue{}, err
				}
				entries = append(entries, TextEntry{Key: strconv.Itoa(i), Value: value})
			}
			if _, err := dec.Token(); err != nil {
				return TextValue{}, err
			}
			return Localized(entries...), nil
		}
	}

	return TextValue{}, fmt.Errorf("unexpected token %v", tok)
}
