package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casualjim/chartwise/prompt"
)

var (
	// ErrProviderNotFound is returned when no provider is registered under the requested id.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrCategoryNotFound is returned when the template has no such category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrTemplateNotFound is the prompt catalog's error, re-exported for batch callers.
	ErrTemplateNotFound = prompt.ErrTemplateNotFound
)

// InvalidCategoryConfigError carries every violation found in a category config.
type InvalidCategoryConfigError struct {
	TemplateID  string
	CategoryKey string
	Violations  []string
}

func (e *InvalidCategoryConfigError) Error() string {
	return fmt.Sprintf("invalid category config %s/%s: %s", e.TemplateID, e.CategoryKey, strings.Join(e.Violations, "; "))
}
