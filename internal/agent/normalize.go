package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SentinelPrefix marks an in-band error string inside an issue or tip list.
const SentinelPrefix = "Error: "

// ErrNoRecognizableShape is returned when the completion parsed as a JSON
// object but none of the accepted interpretations applied. The string list is
// empty in that case; callers decide whether to treat it as "nothing found".
var ErrNoRecognizableShape = errors.New("no recognizable structure in model output")

// NormalizeOptions selects how object-shaped completions are interpreted.
type NormalizeOptions struct {
	// FallbackKeys are looked up, in order, when the object is not a plain
	// string map. The first present key holding an array wins.
	FallbackKeys []string
	// AcceptKeys permits reading the object's keys as the labels, for models
	// that answer with shapes like {"Low REM sleep": true}.
	AcceptKeys bool
}

// Normalize coerces a model completion that should contain a JSON value into
// a flat, ordered list of strings. The model is not trusted to conform, so
// every shape it has been seen to produce gets an interpretation:
//
//   - not JSON at all: a single sentinel string, never an error
//   - array: taken as-is, non-string elements coerced to text
//   - object of string values: the values, in document key order
//   - object of scalar values (AcceptKeys): the keys, in document order
//   - object wrapping the array under a known key: that array, unwrapped one
//     level if the model nested it
//   - bare scalar: a single sentinel string
//
// Only the unrecognizable-object case reports an error, so that callers can
// tell it apart from a legitimately empty list.
func Normalize(raw string, opts NormalizeOptions) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return []string{fmt.Sprintf("%scould not parse model output as JSON (%v). Raw output: %s", SentinelPrefix, err, raw)}, nil
	}

	switch v := value.(type) {
	case []interface{}:
		return coerceAll(v), nil
	case map[string]interface{}:
		return normalizeObject(raw, v, opts)
	default:
		return []string{fmt.Sprintf("%smodel output was a bare %T, expected a JSON array or object. Raw output: %s", SentinelPrefix, value, raw)}, nil
	}
}

func normalizeObject(raw string, obj map[string]interface{}, opts NormalizeOptions) ([]string, error) {
	keys := documentOrderKeys(raw)

	if len(obj) > 0 && allStringValues(obj) {
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, obj[k].(string))
		}
		return out, nil
	}

	// Keys-as-labels only applies when no value is a nested container;
	// {"issues": [...]} should fall through to the fallback-key lookup.
	if opts.AcceptKeys && len(obj) > 0 && allScalarValues(obj) {
		return keys, nil
	}

	for _, key := range opts.FallbackKeys {
		list, ok := obj[key].([]interface{})
		if !ok {
			continue
		}
		// One level of incorrect nesting: {"tips": [["a","b","c"]]}.
		if len(list) == 1 {
			if inner, ok := list[0].([]interface{}); ok && allStrings(inner) {
				return coerceAll(inner), nil
			}
		}
		return coerceAll(list), nil
	}

	return []string{}, ErrNoRecognizableShape
}

func allStrings(list []interface{}) bool {
	for _, el := range list {
		if _, ok := el.(string); !ok {
			return false
		}
	}
	return true
}

func allStringValues(obj map[string]interface{}) bool {
	for _, v := range obj {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

func allScalarValues(obj map[string]interface{}) bool {
	for _, v := range obj {
		switch v.(type) {
		case []interface{}, map[string]interface{}:
			return false
		}
	}
	return true
}

// coerceAll renders every element as text, lossy but total.
func coerceAll(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, el := range list {
		out = append(out, coerce(el))
	}
	return out
}

func coerce(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	default:
		// Nested containers: compact JSON text.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// documentOrderKeys walks the token stream of a JSON object and returns its
// top-level keys in the order they appear. encoding/json maps lose that
// order, and "values in key order" must be deterministic.
func documentOrderKeys(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var keys []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return keys
		}
	}
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
