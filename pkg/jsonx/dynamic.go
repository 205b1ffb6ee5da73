package jsonx

import (
	"maps"
	"slices"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/sjson"
)

// ToDynamicJSON converts any Go value to a dynamic JSON object represented as a map[string]any.
// It first marshals the input value to JSON bytes and then unmarshals those bytes into a map.
// If either the marshaling or unmarshaling process fails, an error is returned.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MergeObject sets every top-level key of params on the JSON object doc,
// replacing existing values. Keys are applied in sorted order so the output is
// deterministic, and are treated literally rather than as sjson paths.
func MergeObject(doc []byte, params map[string]any) ([]byte, error) {
	if len(params) == 0 {
		return doc, nil
	}
	if len(doc) == 0 {
		doc = []byte(`{}`)
	}
	var err error
	for _, key := range slices.Sorted(maps.Keys(params)) {
		doc, err = sjson.SetBytes(doc, EscapeKey(key), params[key])
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`)

// EscapeKey escapes the gjson/sjson path syntax characters in a literal key.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}
