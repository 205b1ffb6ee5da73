package events

import (
	"fmt"
	"time"

	"github.com/casualjim/chartwise/provider"
	"github.com/go-openapi/strfmt"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	startedJSON   = []byte(`{"type":"started"}`)
	completedJSON = []byte(`{"type":"completed"}`)
	failedJSON    = []byte(`{"type":"failed"}`)
)

// Event is one lifecycle transition of an analysis run.
type Event interface {
	lifecycleEvent()
	AnalysisRun() Run
}

// Run identifies the analysis run an event belongs to.
type Run struct {
	AnalysisID  string `json:"analysis_id"`
	ProviderID  string `json:"provider_id"`
	TemplateID  string `json:"template_id"`
	CategoryKey string `json:"category_key"`
}

// Started is emitted when the run's record has been created and the provider
// is about to be called.
type Started struct {
	Run
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (Started) lifecycleEvent()    {}
func (s Started) AnalysisRun() Run { return s.Run }

// Completed is emitted after the provider returned a usable response.
type Completed struct {
	Run
	Model      string          `json:"model,omitempty"`
	DurationMS int64           `json:"duration"`
	Usage      provider.Usage  `json:"usage"`
	KeyUsed    int             `json:"key_used,omitempty"`
	Timestamp  strfmt.DateTime `json:"timestamp"`
}

func (Completed) lifecycleEvent()    {}
func (c Completed) AnalysisRun() Run { return c.Run }

// Failed is emitted when the run ended in an error.
type Failed struct {
	Run
	Error     string          `json:"error"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func (Failed) lifecycleEvent()    {}
func (f Failed) AnalysisRun() Run { return f.Run }

// ToJSON encodes an event with its type marker.
func ToJSON(event Event) ([]byte, error) {
	switch e := event.(type) {
	case Started:
		return e.MarshalJSON()
	case Completed:
		return e.MarshalJSON()
	case Failed:
		return e.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}
}

// FromJSON decodes an event produced by ToJSON.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}
	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case "started":
		var e Started
		err := e.UnmarshalJSON(data)
		return e, err
	case "completed":
		var e Completed
		err := e.UnmarshalJSON(data)
		return e, err
	case "failed":
		var e Failed
		err := e.UnmarshalJSON(data)
		return e, err
	default:
		return nil, fmt.Errorf("unknown event type %q", kind)
	}
}

func (s Started) MarshalJSON() ([]byte, error) {
	result, err := s.Run.writeTo(startedJSON)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "timestamp", s.Timestamp.String())
}

func (s *Started) UnmarshalJSON(data []byte) error {
	doc, err := parse(data, "started")
	if err != nil {
		return err
	}
	if s.Run, err = readRun(doc); err != nil {
		return err
	}
	s.Timestamp, err = readTimestamp(doc)
	return err
}

func (c Completed) MarshalJSON() ([]byte, error) {
	result, err := c.Run.writeTo(completedJSON)
	if err != nil {
		return nil, err
	}

	values := []struct {
		path  string
		value any
		set   bool
	}{
		{"model", c.Model, c.Model != ""},
		{"duration", c.DurationMS, true},
		{"usage.prompt_tokens", c.Usage.PromptTokens, true},
		{"usage.completion_tokens", c.Usage.CompletionTokens, true},
		{"usage.total_tokens", c.Usage.TotalTokens, true},
		{"key_used", c.KeyUsed, c.KeyUsed > 0},
		{"timestamp", c.Timestamp.String(), true},
	}
	for _, v := range values {
		if !v.set {
			continue
		}
		if result, err = sjson.SetBytes(result, v.path, v.value); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Completed) UnmarshalJSON(data []byte) error {
	doc, err := parse(data, "completed")
	if err != nil {
		return err
	}
	if c.Run, err = readRun(doc); err != nil {
		return err
	}
	c.Model = doc.Get("model").String()
	c.DurationMS = doc.Get("duration").Int()
	c.Usage = provider.Usage{
		PromptTokens:     doc.Get("usage.prompt_tokens").Int(),
		CompletionTokens: doc.Get("usage.completion_tokens").Int(),
		TotalTokens:      doc.Get("usage.total_tokens").Int(),
	}
	c.KeyUsed = int(doc.Get("key_used").Int())
	c.Timestamp, err = readTimestamp(doc)
	return err
}

func (f Failed) MarshalJSON() ([]byte, error) {
	result, err := f.Run.writeTo(failedJSON)
	if err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "error", f.Error); err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "timestamp", f.Timestamp.String())
}

func (f *Failed) UnmarshalJSON(data []byte) error {
	doc, err := parse(data, "failed")
	if err != nil {
		return err
	}
	if f.Run, err = readRun(doc); err != nil {
		return err
	}
	errField := doc.Get("error")
	if !errField.Exists() {
		return fmt.Errorf("missing required field 'error'")
	}
	f.Error = errField.String()
	f.Timestamp, err = readTimestamp(doc)
	return err
}

func (r Run) writeTo(marker []byte) ([]byte, error) {
	result := append([]byte(nil), marker...)
	var err error
	for _, kv := range [][2]string{
		{"analysis_id", r.AnalysisID},
		{"provider_id", r.ProviderID},
		{"template_id", r.TemplateID},
		{"category_key", r.CategoryKey},
	} {
		if result, err = sjson.SetBytes(result, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func parse(data []byte, want string) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid json: %s", data)
	}
	doc := gjson.ParseBytes(data)
	if kind := doc.Get("type"); !kind.Exists() || kind.String() != want {
		return gjson.Result{}, fmt.Errorf("missing or invalid type, expected '%s'", want)
	}
	return doc, nil
}

func readRun(doc gjson.Result) (Run, error) {
	id := doc.Get("analysis_id")
	if !id.Exists() || id.String() == "" {
		return Run{}, fmt.Errorf("missing required field 'analysis_id'")
	}
	return Run{
		AnalysisID:  id.String(),
		ProviderID:  doc.Get("provider_id").String(),
		TemplateID:  doc.Get("template_id").String(),
		CategoryKey: doc.Get("category_key").String(),
	}, nil
}

func readTimestamp(doc gjson.Result) (strfmt.DateTime, error) {
	ts := doc.Get("timestamp")
	if !ts.Exists() {
		return strfmt.DateTime(time.Time{}), nil
	}
	dt, err := strfmt.ParseDateTime(ts.String())
	if err != nil {
		return strfmt.DateTime{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return dt, nil
}
