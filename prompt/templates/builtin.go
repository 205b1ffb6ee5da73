// Package templates holds the built-in medical record analysis templates.
// Each category's output schema is reflected from a Go type in this package,
// so results can be decoded with Decode.
package templates

import (
	"github.com/casualjim/chartwise/prompt"
)

const (
	ClinicalOverviewID = "clinical-overview"
	VisitBriefID       = "visit-brief"

	CategoryPatientSummary    = "patientSummary"
	CategoryMedicationReview  = "medicationReview"
	CategoryLabInterpretation = "labInterpretation"
	CategoryCriticalAlerts    = "criticalAlerts"
	CategoryVisitBrief        = "visitBrief"
)

const clinicianPreamble = "You are assisting a licensed clinician reviewing an electronic medical record. " +
	"The patient data follows in the user message. Base every statement on that data only; " +
	"when something is not documented, say so instead of guessing.\n\n"

// ClinicalOverview analyses a full record from four angles.
func ClinicalOverview() prompt.Template {
	t := prompt.NewTemplate(ClinicalOverviewID, "Clinical overview", "1.0.0")
	t.Description = "Summary, medications, labs and critical alerts for a complete record"
	return t.
		WithCategory(CategoryPatientSummary, prompt.CategoryConfig{
			SystemPrompt: clinicianPreamble +
				"Write a concise summary of the patient's current condition. " +
				"List active problems by clinical importance and the findings that support them.",
			OutputSchema: SchemaFor[PatientSummary]("patient_summary", "Concise patient overview"),
		}).
		WithCategory(CategoryMedicationReview, prompt.CategoryConfig{
			SystemPrompt: clinicianPreamble +
				"Reconcile the medication list. Report each medication with dose, frequency and indication. " +
				"Flag interactions, therapeutic duplications and doses outside the usual range.",
			OutputSchema: SchemaFor[MedicationReview]("medication_review", "Medication reconciliation and concerns"),
		}).
		WithCategory(CategoryLabInterpretation, prompt.CategoryConfig{
			SystemPrompt: clinicianPreamble +
				"Interpret the laboratory results. Flag every value outside its reference range " +
				"and describe trends across repeated measurements.",
			OutputSchema: SchemaFor[LabInterpretation]("lab_interpretation", "Abnormal lab values and trends"),
		}).
		WithCategory(CategoryCriticalAlerts, prompt.CategoryConfig{
			SystemPrompt: clinicianPreamble +
				"Identify findings that need attention today. Grade each by severity and quote the evidence. " +
				"Return an empty list when nothing is urgent.",
			OutputSchema: SchemaFor[CriticalAlerts]("critical_alerts", "Findings that need prompt attention"),
		})
}

// VisitBrief condenses a single encounter.
func VisitBrief() prompt.Template {
	t := prompt.NewTemplate(VisitBriefID, "Visit brief", "1.0.0")
	t.Description = "One-category brief of a single outpatient or emergency visit"
	return t.WithCategory(CategoryVisitBrief, prompt.CategoryConfig{
		SystemPrompt: clinicianPreamble +
			"Summarize this visit: why the patient came, the clinician's assessment and the plan.",
		OutputSchema: SchemaFor[VisitBrief]("visit_brief", "Reason, assessment and plan of one visit"),
	})
}

// All returns the built-in templates.
func All() []prompt.Template {
	return []prompt.Template{ClinicalOverview(), VisitBrief()}
}

// RegisterBuiltIns registers every built-in template with m.
func RegisterBuiltIns(m *prompt.Manager) error {
	for _, t := range All() {
		if err := m.RegisterTemplate(t); err != nil {
			return err
		}
	}
	return nil
}
