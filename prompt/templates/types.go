package templates

// PatientSummary is the output of the patient summary category.
type PatientSummary struct {
	Summary           string   `json:"summary" jsonschema:"description=Two to four sentence overview of the patient's current state"`
	ActiveProblems    []string `json:"activeProblems" jsonschema:"description=Active problems in order of clinical importance"`
	KeyFindings       []string `json:"keyFindings"`
	FollowUpQuestions []string `json:"followUpQuestions" jsonschema:"description=Open questions for the treating clinician"`
}

// Medication is one entry of a medication review.
type Medication struct {
	Name       string `json:"name"`
	Dose       string `json:"dose"`
	Frequency  string `json:"frequency"`
	Indication string `json:"indication"`
	Status     string `json:"status" jsonschema:"enum=active,enum=discontinued,enum=unknown"`
}

// MedicationConcern is an interaction, duplication or dosing issue.
type MedicationConcern struct {
	Medications []string `json:"medications"`
	Concern     string   `json:"concern"`
	Severity    Severity `json:"severity" jsonschema:"enum=critical,enum=high,enum=moderate,enum=low"`
}

// MedicationReview is the output of the medication review category.
type MedicationReview struct {
	Medications []Medication        `json:"medications"`
	Concerns    []MedicationConcern `json:"concerns" jsonschema:"description=Interactions and duplications and dosing concerns"`
}

// LabFinding is one interpreted lab result.
type LabFinding struct {
	Test           string `json:"test"`
	Value          string `json:"value"`
	ReferenceRange string `json:"referenceRange"`
	Flag           string `json:"flag" jsonschema:"enum=low,enum=normal,enum=high,enum=critical"`
	Interpretation string `json:"interpretation"`
}

// LabInterpretation is the output of the lab interpretation category.
type LabInterpretation struct {
	Findings []LabFinding `json:"findings"`
	Trends   []string     `json:"trends" jsonschema:"description=Changes across repeated measurements"`
	Summary  string       `json:"summary"`
}

// Severity grades an alert or concern.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// Alert is one critical finding.
type Alert struct {
	Finding        string   `json:"finding"`
	Severity       Severity `json:"severity" jsonschema:"enum=critical,enum=high,enum=moderate,enum=low"`
	Evidence       string   `json:"evidence" jsonschema:"description=Where in the record the finding comes from"`
	Recommendation string   `json:"recommendation"`
}

// CriticalAlerts is the output of the critical alerts category.
type CriticalAlerts struct {
	Alerts []Alert `json:"alerts"`
}

// VisitBrief is the output of the visit brief category.
type VisitBrief struct {
	Reason     string   `json:"reason"`
	Assessment string   `json:"assessment"`
	Plan       []string `json:"plan"`
}
