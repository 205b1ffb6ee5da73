package broker

import (
	"context"
	"log/slog"

	"github.com/casualjim/chartwise/events"
	"github.com/casualjim/chartwise/pkg/slogx"
)

// Publisher returns a hook that publishes every lifecycle event to topic.
// Publish failures are logged and never reach the analysis run.
func Publisher(topic Topic) events.Hook {
	return &publisher{topic: topic}
}

type publisher struct {
	topic Topic
}

func (p *publisher) OnStarted(ctx context.Context, e events.Started)     { p.publish(ctx, e) }
func (p *publisher) OnCompleted(ctx context.Context, e events.Completed) { p.publish(ctx, e) }
func (p *publisher) OnFailed(ctx context.Context, e events.Failed)       { p.publish(ctx, e) }

func (p *publisher) publish(ctx context.Context, event events.Event) {
	if err := p.topic.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.ErrorContext(ctx, "failed to publish analysis event",
			slogx.Error(err),
			slogx.Analysis(event.AnalysisRun().AnalysisID),
		)
	}
}

// forwardToHook delivers events from ch to hook until ch is closed, done is
// closed or ctx ends. A nil done never fires.
func forwardToHook(ctx context.Context, ch <-chan events.Event, done <-chan struct{}, hook events.Hook) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := events.Dispatch(ctx, hook, event); err != nil {
				slog.WarnContext(ctx, "dropping event", slogx.Error(err))
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
