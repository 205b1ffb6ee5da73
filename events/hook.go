package events

import (
	"context"
	"fmt"
)

// Hook receives lifecycle events. Implementations must be safe for concurrent
// use; runs of a batch report in parallel.
type Hook interface {
	OnStarted(context.Context, Started)
	OnCompleted(context.Context, Completed)
	OnFailed(context.Context, Failed)
}

// Dispatch calls the hook method matching the event type.
func Dispatch(ctx context.Context, hook Hook, event Event) error {
	switch e := event.(type) {
	case Started:
		hook.OnStarted(ctx, e)
	case Completed:
		hook.OnCompleted(ctx, e)
	case Failed:
		hook.OnFailed(ctx, e)
	default:
		return fmt.Errorf("unknown event type: %T", event)
	}
	return nil
}

// Multi fans every event out to hooks in order. Nil hooks are skipped.
func Multi(hooks ...Hook) Hook {
	var live multiHook
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}
	return live
}

type multiHook []Hook

func (m multiHook) OnStarted(ctx context.Context, e Started) {
	for _, h := range m {
		h.OnStarted(ctx, e)
	}
}

func (m multiHook) OnCompleted(ctx context.Context, e Completed) {
	for _, h := range m {
		h.OnCompleted(ctx, e)
	}
}

func (m multiHook) OnFailed(ctx context.Context, e Failed) {
	for _, h := range m {
		h.OnFailed(ctx, e)
	}
}
