package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlTemplate = `
id: discharge
name: Discharge review
version: 1.2.0
categories:
  zeta:
    systemPrompt: Review the discharge summary.
    outputSchema:
      name: discharge
      schema:
        type: object
        required: [summary]
        additionalProperties: false
        properties:
          summary:
            type: string
          readmissionRisk:
            type: number
            minimum: 0
            maximum: 1
  alpha:
    systemPrompt: List follow-up appointments.
    outputSchema:
      name: followUp
      schema:
        type: object
`

const jsonTemplate = `{
	"id": "triage",
	"name": "Triage",
	"categories": {
		"urgent": {
			"systemPrompt": "Flag urgent findings.",
			"outputSchema": {"name": "urgent", "schema": {"type": "object"}}
		}
	}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTemplateFile_YAML(t *testing.T) {
	tmpl, err := LoadTemplateFile(writeFile(t, "discharge.yaml", yamlTemplate))
	require.NoError(t, err)

	assert.Equal(t, "discharge", tmpl.ID)
	assert.Equal(t, "1.2.0", tmpl.Version)
	assert.Equal(t, []string{"zeta", "alpha"}, tmpl.CategoryKeys())

	cfg, ok := tmpl.Category("zeta")
	require.True(t, ok)
	assert.Equal(t, "Review the discharge summary.", cfg.SystemPrompt)
	require.NotNil(t, cfg.OutputSchema)
	require.NotNil(t, cfg.OutputSchema.Schema)
	assert.Equal(t, "discharge", cfg.OutputSchema.Name)
	assert.Equal(t, "object", cfg.OutputSchema.Schema.Type)
	assert.Equal(t, []string{"summary"}, cfg.OutputSchema.Schema.Required)

	risk, ok := cfg.OutputSchema.Schema.Properties.Get("readmissionRisk")
	require.True(t, ok)
	assert.Equal(t, "number", risk.Type)
	assert.True(t, Validate(cfg).Valid)
}

func TestLoadTemplateFile_JSON(t *testing.T) {
	tmpl, err := LoadTemplateFile(writeFile(t, "triage.json", jsonTemplate))
	require.NoError(t, err)
	assert.Equal(t, "triage", tmpl.ID)
	assert.Equal(t, []string{"urgent"}, tmpl.CategoryKeys())

	m := NewManager()
	require.NoError(t, m.RegisterTemplate(tmpl))
	assert.True(t, m.ValidateCategoryConfig("triage", "urgent").Valid)
}

func TestLoadTemplateFile_Errors(t *testing.T) {
	_, err := LoadTemplateFile(writeFile(t, "notes.txt", jsonTemplate))
	assert.ErrorContains(t, err, "unsupported template file")

	_, err = LoadTemplateFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading template file")

	_, err = LoadTemplateFile(writeFile(t, "bad.json", `{"id":`))
	assert.ErrorContains(t, err, "decoding template")

	_, err = LoadTemplateFile(writeFile(t, "empty.yml", "id: x\nname: X\n"))
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("a/b/c.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = FormatOf("c.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
}
