package broker

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/chartwise/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runForwarder(ctx context.Context, ch chan events.Event, done chan struct{}, hook events.Hook) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		forwardToHook(ctx, ch, done, hook)
	}()
	return finished
}

func TestForwardToHook_StopsOnDone(t *testing.T) {
	ch := make(chan events.Event, 1)
	done := make(chan struct{})
	recorder := newRecordingHook()
	finished := runForwarder(context.Background(), ch, done, recorder)

	ch <- startedEvent(1)
	require.Eventually(t, func() bool { return recorder.total() == 1 }, time.Second, 5*time.Millisecond)

	close(done)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder still running after done was closed")
	}
}

func TestForwardToHook_StopsOnClosedChannel(t *testing.T) {
	ch := make(chan events.Event)
	finished := runForwarder(context.Background(), ch, nil, newRecordingHook())

	close(ch)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder still running after the channel was closed")
	}
}

func TestForwardToHook_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	recorder := newRecordingHook()
	finished := runForwarder(ctx, make(chan events.Event), nil, recorder)

	cancel()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder still running after the context ended")
	}
	assert.Zero(t, recorder.total())
}
