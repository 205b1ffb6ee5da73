package analysis

import (
	"time"

	"github.com/casualjim/chartwise/provider"
	"github.com/go-openapi/strfmt"
)

// Config describes one analysis run.
type Config struct {
	ProviderID  string           `json:"providerId"`
	TemplateID  string           `json:"templateId"`
	CategoryKey string           `json:"categoryKey"`
	UserPrompt  string           `json:"userPrompt"`
	Options     provider.Options `json:"options,omitempty"`
}

// BatchConfig describes a run over every category of a template.
type BatchConfig struct {
	ProviderID string           `json:"providerId"`
	TemplateID string           `json:"templateId"`
	UserPrompt string           `json:"userPrompt"`
	Options    provider.Options `json:"options,omitempty"`
}

// Result is the envelope every run resolves to. Exactly one of Data and
// Error is set.
type Result struct {
	Success    bool               `json:"success"`
	Data       *provider.Response `json:"data,omitempty"`
	Error      string             `json:"error,omitempty"`
	AnalysisID string             `json:"analysisId"`
}

// BatchItem is the outcome of one category of a batch analysis.
type BatchItem struct {
	CategoryKey string `json:"categoryKey"`
	Result      Result `json:"result"`
}

// Status is the lifecycle state of an analysis record.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record tracks one run from start to its terminal status.
type Record struct {
	ID          string           `json:"id"`
	ProviderID  string           `json:"providerId"`
	TemplateID  string           `json:"templateId"`
	CategoryKey string           `json:"categoryKey"`
	StartTime   strfmt.DateTime  `json:"startTime"`
	EndTime     *strfmt.DateTime `json:"endTime,omitempty"`
	Status      Status           `json:"status"`
	Error       string           `json:"error,omitempty"`
}

// Duration is the time between start and end, or zero while running.
func (r Record) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return time.Time(*r.EndTime).Sub(time.Time(r.StartTime))
}

// Statistics summarizes the retained history.
type Statistics struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	// AverageDurationMS averages completed runs only.
	AverageDurationMS float64 `json:"averageDuration"`
}
