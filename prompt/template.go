package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/chartwise/provider"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrInvalidTemplate is returned when a template lacks an id, a name or categories.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrTemplateNotFound is returned when no template is registered under an id.
	ErrTemplateNotFound = errors.New("template not found")
)

// CategoryConfig is the prompt and output schema for one analysis category.
type CategoryConfig struct {
	SystemPrompt string                     `json:"systemPrompt"`
	OutputSchema *provider.StructuredOutput `json:"outputSchema"`
}

// Template is a versioned set of analysis categories.
type Template struct {
	ID          string                                          `json:"id"`
	Name        string                                          `json:"name"`
	Description string                                          `json:"description,omitempty"`
	Version     string                                          `json:"version,omitempty"`
	Categories  *orderedmap.OrderedMap[string, CategoryConfig] `json:"categories"`
}

// NewTemplate creates an empty template.
func NewTemplate(id, name, version string) Template {
	return Template{
		ID:         id,
		Name:       name,
		Version:    version,
		Categories: orderedmap.New[string, CategoryConfig](),
	}
}

// WithCategory sets the category config under key and returns the template.
func (t Template) WithCategory(key string, cfg CategoryConfig) Template {
	if t.Categories == nil {
		t.Categories = orderedmap.New[string, CategoryConfig]()
	}
	t.Categories.Set(key, cfg)
	return t
}

// Clone returns a copy of t that shares no category state with it, so either
// one can be changed without affecting the other.
func (t Template) Clone() Template {
	if t.Categories == nil {
		return t
	}
	categories := orderedmap.New[string, CategoryConfig](t.Categories.Len())
	for pair := t.Categories.Oldest(); pair != nil; pair = pair.Next() {
		categories.Set(pair.Key, pair.Value.clone())
	}
	t.Categories = categories
	return t
}

func (c CategoryConfig) clone() CategoryConfig {
	if c.OutputSchema != nil {
		schema := *c.OutputSchema
		c.OutputSchema = &schema
	}
	return c
}

// Category returns the config of the category key.
func (t Template) Category(key string) (CategoryConfig, bool) {
	if t.Categories == nil {
		return CategoryConfig{}, false
	}
	return t.Categories.Get(key)
}

// CategoryKeys returns the category keys in declaration order.
func (t Template) CategoryKeys() []string {
	if t.Categories == nil {
		return nil
	}
	keys := make([]string, 0, t.Categories.Len())
	for pair := t.Categories.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Validate checks the fields required for registration.
func (t Template) Validate() error {
	var missing []string
	if strings.TrimSpace(t.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(t.Name) == "" {
		missing = append(missing, "name")
	}
	if t.Categories == nil || t.Categories.Len() == 0 {
		missing = append(missing, "categories")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", ErrInvalidTemplate, t.ID, strings.Join(missing, ", "))
	}
	return nil
}

// Validation is the outcome of checking a category config. Errors lists every
// violation found, not only the first.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err joins the violations into one error, or returns nil when valid.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	errs := make([]error, len(v.Errors))
	for i, msg := range v.Errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

// Validate checks that cfg can be sent to a provider.
func Validate(cfg CategoryConfig) Validation {
	var violations []string
	switch s := cfg.OutputSchema; {
	case s == nil:
		violations = append(violations, "output schema is missing")
	default:
		if strings.TrimSpace(s.Name) == "" {
			violations = append(violations, "output schema name is missing")
		}
		if s.Schema == nil {
			violations = append(violations, "output schema definition is missing")
		}
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		violations = append(violations, "system prompt is empty")
	}
	return Validation{
		Valid:  len(violations) == 0,
		Errors: violations,
	}
}
