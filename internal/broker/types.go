package broker

import (
	"context"

	"github.com/casualjim/chartwise/events"
)

// Broker hands out topics by id. Asking twice for one id returns the same topic.
type Broker interface {
	Topic(context.Context, string) Topic
}

// Topic fans published events out to every current subscriber.
type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

// Subscription is a live registration of a hook on a topic.
type Subscription interface {
	ID() string
	Unsubscribe()
}
