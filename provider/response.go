package provider

import "time"

// Response is the normalized result every adapter produces, whatever shape
// the vendor answered with.
type Response struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	// DurationMS is the wall-clock time of the vendor call in milliseconds.
	DurationMS int64  `json:"duration"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	// KeyUsed is the 1-based API key slot used when the provider rotates keys.
	KeyUsed int `json:"keyUsed,omitempty"`
	// IsReasoning is set when the content was promoted from a reasoning field.
	IsReasoning bool `json:"isReasoning,omitempty"`
}

// Choice is one candidate answer.
type Choice struct {
	Message Message `json:"message"`
}

// Message holds the text of a choice.
type Message struct {
	Content string `json:"content"`
}

// Usage holds token counters mapped from the vendor usage block.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// NewResponse builds a single-choice response.
func NewResponse(content string) *Response {
	return &Response{
		Choices: []Choice{{Message: Message{Content: content}}},
	}
}

// Content returns the text of the first choice, or "" when there is none.
func (r *Response) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Elapsed returns the call duration.
func (r *Response) Elapsed() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// completeUsage fills TotalTokens when a vendor omits it.
func (u *Usage) completeUsage() {
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
}
