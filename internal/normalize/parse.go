// Package normalize turns loosely structured generator output into the
// canonical domain shapes. It knows nothing about business rules and never
// fails on malformed input: every shape function degrades to an empty but
// valid value.
package normalize

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// object is a decoded JSON object that remembers key order.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.vals[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// lookup returns the value of the first key present, in the order given.
func (o *object) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := o.get(k); ok {
			return v, true
		}
	}
	return nil, false
}

// plain converts the object back into a map for helpers that do not care
// about ordering.
func (o *object) plain() map[string]any {
	m := make(map[string]any, len(o.vals))
	for k, v := range o.vals {
		m[k] = v
	}
	return m
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// Extract locates and decodes the JSON document inside raw. Attempts, first
// success wins: the whole text, the first bracket-balanced span that parses,
// the interior of a fenced code block.
func Extract(raw string) (any, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}
	if v, err := decode(text); err == nil {
		return v, true
	}
	if v, ok := firstBalanced(text); ok {
		return v, true
	}
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if v, err := decode(inner); err == nil {
			return v, true
		}
		if v, ok := firstBalanced(inner); ok {
			return v, true
		}
	}
	return nil, false
}

// decode parses exactly one JSON document; trailing data is an error.
func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &object{vals: make(map[string]any)}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.New("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				if _, dup := obj.vals[key]; !dup {
					obj.keys = append(obj.keys, key)
				}
				obj.vals[key] = val
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, errors.New("unexpected delimiter")
	default:
		return tok, nil
	}
}

// firstBalanced tries every opening bracket in order and returns the first
// balanced span that decodes.
func firstBalanced(text string) (any, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		end := balancedEnd(text, start)
		if end < 0 {
			continue
		}
		if v, err := decode(text[start : end+1]); err == nil {
			return v, true
		}
	}
	return nil, false
}

// balancedEnd returns the index of the bracket closing text[start], skipping
// brackets inside string literals, or -1.
func balancedEnd(text string, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return -1
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// asString renders scalar values as text. Objects and arrays yield "".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	}
	return ""
}

// stringList accepts an array of scalars, a single string, or an array of
// objects carrying one of nameKeys.
func stringList(v any, nameKeys ...string) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			s := asString(e)
			if s == "" {
				if obj, ok := e.(*object); ok {
					if nv, ok := obj.lookup(nameKeys...); ok {
						s = asString(nv)
					}
				}
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
