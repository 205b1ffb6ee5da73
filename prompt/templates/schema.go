package templates

import (
	"fmt"
	"strings"

	"github.com/casualjim/chartwise/provider"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// SchemaFor reflects the JSON schema of T into a named structured output.
func SchemaFor[T any](name, description string) *provider.StructuredOutput {
	var v T
	schema := reflector.Reflect(v)
	// vendors reject the meta-schema keywords in strict mode
	schema.Version = ""
	schema.ID = ""
	return &provider.StructuredOutput{
		Name:        name,
		Description: description,
		Schema:      schema,
	}
}

// Decode parses the content of resp into T. A markdown code fence around the
// JSON document is tolerated.
func Decode[T any](resp *provider.Response) (T, error) {
	var v T
	content := stripFence(resp.Content())
	if content == "" {
		return v, fmt.Errorf("%w: nothing to decode", provider.ErrEmptyResponse)
	}
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return v, fmt.Errorf("decoding %T: %w", v, err)
	}
	return v, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
