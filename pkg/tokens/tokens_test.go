package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single word", "hello", 2},                  // 1.3
		{"two words", "hello world", 4},              // 1.3 + 0.5 + 1.3
		{"ten cjk characters", "高血压糖尿病心力衰竭", 25},    // 10 * 2.5
		{"numbers", "120 80", 3},                     // 1.2 + 0.5 + 1.2
		{"punctuation", "!?", 2},                     // 2 * 1.0
		{"whitespace run counts once", "a     b", 4}, // 1.3 + 0.5 + 1.3
		{"mixed", "BP: 120/80", 7},                   // 1.3 + 1 + 0.5 + 1.2 + 1 + 1.2
		{"ten words stay exact", strings.TrimSpace(strings.Repeat("word ", 10)), 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimate_MonotonicUnderAppend(t *testing.T) {
	text := "Patient 張三, age 67: HbA1c 7.2% (2024-01-05) - follow up!  高血压"
	prev := 0
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		got := Estimate(sb.String())
		assert.GreaterOrEqual(t, got, prev, "estimate decreased after appending %q", r)
		prev = got
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	text := "<patient><lab name=\"LDL\">130</lab></patient>"
	assert.Equal(t, Estimate(text), Estimate(text))
}

func TestEstimatePrompt(t *testing.T) {
	got := EstimatePrompt("hello world", "高血压")
	assert.Equal(t, 4, got.SystemTokens)
	assert.Equal(t, 8, got.UserTokens) // 7.5 rounded up
	assert.Equal(t, 12, got.TotalTokens)
}

func TestHeuristic(t *testing.T) {
	assert.Equal(t, 25, Heuristic.Estimate("高血压糖尿病心力衰竭"))
}
