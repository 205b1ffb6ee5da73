package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/chartwise/events"
	"github.com/google/uuid"
)

const defaultSlowSubscriberTimeout = 100 * time.Millisecond

type localBroker struct {
	topics                *haxmap.Map[string, *topic]
	slowSubscriberTimeout time.Duration
}

// Local creates an in-process broker. Subscribers that cannot keep up are
// dropped after a short timeout so publishers never block for long.
func Local() Broker {
	return &localBroker{
		topics:                haxmap.New[string, *topic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
	}
}

func (b *localBroker) Topic(ctx context.Context, id string) Topic {
	topic, _ := b.topics.GetOrCompute(id, func() *topic {
		return &topic{
			ID:                    id,
			subscriptions:         haxmap.New[string, *subscription](),
			slowSubscriberTimeout: b.slowSubscriberTimeout,
		}
	})
	return topic
}

type topic struct {
	ID                    string
	subscriptions         *haxmap.Map[string, *subscription]
	slowSubscriberTimeout time.Duration
}

func (t *topic) Publish(ctx context.Context, event events.Event) error {
	t.subscriptions.ForEach(func(id string, sub *subscription) bool {
		if sub == nil {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if !sub.deliver(ctx, event, t.slowSubscriberTimeout) {
			sub.Unsubscribe()
		}
		return ctx.Err() == nil
	})
	return ctx.Err()
}

func (t *topic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, fmt.Errorf("hook is required")
	}
	return t.newSubscription(ctx, hook), nil
}

func (t *topic) newSubscription(ctx context.Context, hook events.Hook) *subscription {
	id := uuid.Must(uuid.NewV7()).String()
	sub := &subscription{
		id:      id,
		ctx:     ctx,
		channel: make(chan events.Event, 50),
		onClose: func() { t.subscriptions.Del(id) },
		hook:    hook,
	}
	t.subscriptions.Set(id, sub)
	go forwardToHook(ctx, sub.channel, nil, hook)
	return sub
}

type subscription struct {
	id      string
	ctx     context.Context
	channel chan events.Event
	onClose func()
	hook    events.Hook

	mu     sync.RWMutex
	closed bool
}

func (s *subscription) ID() string {
	return s.id
}

// deliver reports false when the subscriber is gone or stayed full for
// longer than timeout.
func (s *subscription) deliver(ctx context.Context, event events.Event, timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return true
	}

	select {
	case <-s.ctx.Done():
		return false
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-s.ctx.Done():
		return false
	case s.channel <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.onClose != nil {
		s.onClose()
	}
	close(s.channel)
}
