package provider

import (
	"context"
	"log/slog"

	"github.com/casualjim/chartwise/pkg/tokens"
)

func logPreflight(ctx context.Context, providerID, model, systemPrompt, userPrompt string) {
	est := tokens.EstimatePrompt(systemPrompt, userPrompt)
	slog.DebugContext(ctx, "sending analysis request",
		slog.String("provider", providerID),
		slog.String("model", model),
		slog.Int("est_system_tokens", est.SystemTokens),
		slog.Int("est_user_tokens", est.UserTokens),
		slog.Int("est_total_tokens", est.TotalTokens),
	)
}

func logCompletion(ctx context.Context, resp *Response) {
	attrs := []any{
		slog.String("provider", resp.Provider),
		slog.String("model", resp.Model),
		slog.Duration("duration", resp.Elapsed()),
		slog.Int64("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
		slog.Int64("total_tokens", resp.Usage.TotalTokens),
	}
	if resp.KeyUsed > 0 {
		attrs = append(attrs, slog.Int("key_slot", resp.KeyUsed))
	}
	if resp.IsReasoning {
		attrs = append(attrs, slog.Bool("reasoning", true))
	}
	slog.DebugContext(ctx, "analysis response received", attrs...)
}
