package templates

import (
	"testing"

	"github.com/casualjim/chartwise/prompt"
	"github.com/casualjim/chartwise/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRegisterBuiltIns(t *testing.T) {
	m := prompt.NewManager()
	require.NoError(t, RegisterBuiltIns(m))

	assert.Equal(t, 2, m.TemplateCount())
	assert.Equal(t, []string{
		CategoryPatientSummary,
		CategoryMedicationReview,
		CategoryLabInterpretation,
		CategoryCriticalAlerts,
	}, m.CategoryKeys(ClinicalOverviewID))
	assert.Equal(t, []string{CategoryVisitBrief}, m.CategoryKeys(VisitBriefID))

	for _, tmpl := range m.Templates() {
		for _, key := range tmpl.CategoryKeys() {
			v := m.ValidateCategoryConfig(tmpl.ID, key)
			assert.True(t, v.Valid, "%s/%s: %v", tmpl.ID, key, v.Errors)

			cfg, ok := m.CategoryConfig(tmpl.ID, key)
			require.True(t, ok)
			assert.True(t, cfg.OutputSchema.StrictCompatible(), "%s/%s schema is not strict", tmpl.ID, key)
		}
	}
}

func TestSchemaFor(t *testing.T) {
	out := SchemaFor[CriticalAlerts]("critical_alerts", "alerts")
	raw, err := out.SchemaJSON()
	require.NoError(t, err)

	doc := gjson.ParseBytes(raw)
	assert.Equal(t, "object", doc.Get("type").String())
	assert.False(t, doc.Get("$schema").Exists())
	assert.False(t, doc.Get("$defs").Exists())
	assert.False(t, doc.Get("additionalProperties").Bool())
	assert.Equal(t, "array", doc.Get("properties.alerts.type").String())

	item := doc.Get("properties.alerts.items")
	assert.Equal(t, "object", item.Get("type").String())
	assert.ElementsMatch(t, []string{"finding", "severity", "evidence", "recommendation"},
		stringsOf(item.Get("required").Array()))
	assert.Equal(t, []string{"critical", "high", "moderate", "low"},
		stringsOf(item.Get("properties.severity.enum").Array()))
}

func stringsOf(values []gjson.Result) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestDecode(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		got, err := Decode[VisitBrief](provider.NewResponse(`{"reason":"cough","assessment":"viral URI","plan":["rest","fluids"]}`))
		require.NoError(t, err)
		assert.Equal(t, VisitBrief{Reason: "cough", Assessment: "viral URI", Plan: []string{"rest", "fluids"}}, got)
	})

	t.Run("fenced json", func(t *testing.T) {
		got, err := Decode[CriticalAlerts](provider.NewResponse("```json\n{\"alerts\":[{\"finding\":\"K 6.8\",\"severity\":\"critical\"}]}\n```"))
		require.NoError(t, err)
		require.Len(t, got.Alerts, 1)
		assert.Equal(t, SeverityCritical, got.Alerts[0].Severity)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode[VisitBrief](provider.NewResponse("```\n```"))
		assert.ErrorIs(t, err, provider.ErrEmptyResponse)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode[VisitBrief](provider.NewResponse("The patient is stable."))
		assert.Error(t, err)
	})
}
