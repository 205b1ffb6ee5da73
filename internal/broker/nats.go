package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/chartwise/events"
	"github.com/casualjim/chartwise/pkg/slogx"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type natsBroker struct {
	client *nats.Conn
	topics *haxmap.Map[string, *natsTopic]
}

// NATS creates a broker whose topics are NATS subjects. Events travel as the
// JSON produced by events.ToJSON.
func NATS(client *nats.Conn) Broker {
	return &natsBroker{
		client: client,
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *natsBroker) Topic(ctx context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *natsTopic {
		return &natsTopic{
			subject: id,
			client:  b.client,
		}
	})
	return top
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Publish(ctx context.Context, event events.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	eb, err := events.ToJSON(event)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, hook events.Hook) (Subscription, error) {
	if hook == nil {
		return nil, fmt.Errorf("hook is required")
	}
	id := uuid.Must(uuid.NewV7()).String()
	sub := make(chan events.Event, 50)
	done := make(chan struct{})
	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		event, err := events.FromJSON(msg.Data)
		if err != nil {
			slog.Error("failed to unmarshal event", slogx.Error(err), slog.String("subject", msg.Subject))
			return
		}

		select {
		case sub <- event:
		case <-done:
			return
		case <-ctx.Done():
			return
		}

		if msg.Reply != "" {
			if nerr := msg.Ack(); nerr != nil {
				slog.Error("failed to ack message", slogx.Error(nerr))
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", t.subject, err)
	}
	// the server must know about the interest before the first publish
	if err := t.client.Flush(); err != nil {
		_ = nsub.Unsubscribe()
		return nil, fmt.Errorf("registering subscription on %s: %w", t.subject, err)
	}

	subscription := &natsSubscription{
		id:   id,
		sub:  nsub,
		done: done,
	}
	// also fires when the connection closes underneath the subscription
	nsub.SetClosedHandler(func(string) { subscription.stop() })

	go forwardToHook(ctx, sub, done, hook)
	return subscription, nil
}

type natsSubscription struct {
	id   string
	sub  *nats.Subscription
	done chan struct{}
	once sync.Once
}

func (n *natsSubscription) ID() string {
	return n.id
}

// Unsubscribe removes the interest on the server and stops delivery to the
// hook. It is safe to call more than once.
func (n *natsSubscription) Unsubscribe() {
	defer n.stop()
	if err := n.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed && err != nats.ErrBadSubscription {
		slog.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", n.id))
	}
}

func (n *natsSubscription) stop() {
	n.once.Do(func() { close(n.done) })
}
