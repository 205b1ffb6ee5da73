// Package prompt keeps the catalogue of analysis templates and validates the
// category configs handed to providers.
package prompt

import (
	"fmt"
	"log/slog"

	"github.com/casualjim/chartwise/internal/registry"
)

// Manager is the template catalogue. It is safe for concurrent use.
type Manager struct {
	templates registry.Registry[Template]
}

// NewManager creates an empty catalogue.
func NewManager() *Manager {
	return &Manager{
		templates: registry.New[Template](),
	}
}

// RegisterTemplate adds a copy of t, replacing any template with the same id.
// Changing t afterwards does not affect the registered template.
func (m *Manager) RegisterTemplate(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Clone()
	if m.templates.Add(t.ID, t) {
		slog.Warn("template already registered, overwriting", slog.String("template", t.ID), slog.String("version", t.Version))
		return nil
	}
	slog.Debug("template registered", slog.String("template", t.ID), slog.Int("categories", t.Categories.Len()))
	return nil
}

// Template returns a copy of the template registered under id.
func (m *Manager) Template(id string) (Template, bool) {
	t, ok := m.templates.Get(id)
	if !ok {
		return Template{}, false
	}
	return t.Clone(), true
}

// Templates returns copies of every template in registration order.
func (m *Manager) Templates() []Template {
	templates := m.templates.Values()
	for i, t := range templates {
		templates[i] = t.Clone()
	}
	return templates
}

// CategoryConfig returns the config for one category of a template.
func (m *Manager) CategoryConfig(templateID, categoryKey string) (CategoryConfig, bool) {
	t, ok := m.templates.Get(templateID)
	if !ok {
		slog.Warn("template not found", slog.String("template", templateID))
		return CategoryConfig{}, false
	}
	cfg, ok := t.Category(categoryKey)
	if !ok {
		slog.Warn("category not found", slog.String("template", templateID), slog.String("category", categoryKey))
		return CategoryConfig{}, false
	}
	return cfg.clone(), true
}

// CategoryKeys returns the category keys of a template, or nil when it is unknown.
func (m *Manager) CategoryKeys(templateID string) []string {
	t, ok := m.templates.Get(templateID)
	if !ok {
		return nil
	}
	return t.CategoryKeys()
}

// HasTemplate reports whether a template is registered under id.
func (m *Manager) HasTemplate(id string) bool {
	return m.templates.Has(id)
}

// HasCategory reports whether the template has the category.
func (m *Manager) HasCategory(templateID, categoryKey string) bool {
	t, ok := m.templates.Get(templateID)
	if !ok {
		return false
	}
	_, ok = t.Category(categoryKey)
	return ok
}

// UnregisterTemplate removes a template and reports whether it was present.
func (m *Manager) UnregisterTemplate(id string) bool {
	return m.templates.Del(id)
}

// ClearTemplates removes every template.
func (m *Manager) ClearTemplates() {
	m.templates.Clear()
}

// TemplateCount returns the number of distinct registered templates.
func (m *Manager) TemplateCount() int {
	return m.templates.Len()
}

// ValidateCategoryConfig validates the stored config of a category.
func (m *Manager) ValidateCategoryConfig(templateID, categoryKey string) Validation {
	t, ok := m.templates.Get(templateID)
	if !ok {
		return Validation{Errors: []string{fmt.Sprintf("template %q not found", templateID)}}
	}
	cfg, ok := t.Category(categoryKey)
	if !ok {
		return Validation{Errors: []string{fmt.Sprintf("category %q not found in template %q", categoryKey, templateID)}}
	}
	return Validate(cfg)
}
