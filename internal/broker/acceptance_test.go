package broker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/chartwise/events"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	mu        sync.Mutex
	wg        *sync.WaitGroup
	ready     chan struct{}
	started   []events.Started
	completed []events.Completed
	failed    []events.Failed
}

func newRecordingHook() *recordingHook {
	return &recordingHook{
		ready: make(chan struct{}),
	}
}

func (r *recordingHook) signalReady() {
	close(r.ready)
}

func (r *recordingHook) OnStarted(ctx context.Context, e events.Started) {
	r.mu.Lock()
	r.started = append(r.started, e)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnCompleted(ctx context.Context, e events.Completed) {
	r.mu.Lock()
	r.completed = append(r.completed, e)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) OnFailed(ctx context.Context, e events.Failed) {
	r.mu.Lock()
	r.failed = append(r.failed, e)
	r.mu.Unlock()
	r.done()
}

func (r *recordingHook) done() {
	if r.wg != nil {
		r.wg.Done()
	}
}

func (r *recordingHook) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started) + len(r.completed) + len(r.failed)
}

type slowHook struct {
	*recordingHook
	delay time.Duration
}

func (h *slowHook) OnStarted(ctx context.Context, e events.Started) {
	time.Sleep(h.delay)
	h.recordingHook.OnStarted(ctx, e)
}

func startedEvent(i int) events.Started {
	return events.Started{
		Run: events.Run{
			AnalysisID:  fmt.Sprintf("groq-clinical-overview-patientSummary-%d", i),
			ProviderID:  "groq",
			TemplateID:  "clinical-overview",
			CategoryKey: "patientSummary",
		},
		Timestamp: strfmt.DateTime(time.Now().UTC()),
	}
}

// brokerFactory creates a broker and a subject prefix that is unique to the test.
type brokerFactory func(t *testing.T) (Broker, string)

type acceptanceTest struct {
	name string
	test func(t *testing.T, createBroker brokerFactory)
}

func runAcceptanceTests(t *testing.T, factory brokerFactory) {
	tests := []acceptanceTest{
		{"creates unique topics", testUniqueTopics},
		{"reuses existing topics", testReuseTopics},
		{"publishes events to all subscribers", testPublishToAllSubscribers},
		{"handles subscription lifecycle", testSubscriptionLifecycle},
		{"unsubscribe releases the forwarder", testUnsubscribeReleasesForwarder},
		{"handles context cancellation", testContextCancellation},
		{"handles concurrent operations", testConcurrentOperations},
		{"validates hook requirement", testHookValidation},
		{"handles slow subscribers", testSlowSubscribers},
		{"publisher hook forwards events", testPublisherHook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.test(t, factory)
		})
	}
}

func TestBrokerImplementations(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		runAcceptanceTests(t, func(t *testing.T) (Broker, string) {
			return Local(), "test"
		})
	})

	t.Run("NATS", func(t *testing.T) {
		conn, err := nats.Connect(nats.DefaultURL, nats.Timeout(500*time.Millisecond))
		if err != nil {
			t.Skipf("nats server not available at %s: %v", nats.DefaultURL, err)
		}
		conn.Close()

		runAcceptanceTests(t, func(t *testing.T) (Broker, string) {
			nc, err := nats.Connect(nats.DefaultURL)
			require.NoError(t, err)
			t.Cleanup(func() { nc.Close() })
			return NATS(nc), "test." + uuid.NewString()
		})
	})
}

func waitFor(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timeout waiting for events to be processed")
	}
}

func testUniqueTopics(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic1 := broker.Topic(context.Background(), prefix+".1")
	topic2 := broker.Topic(context.Background(), prefix+".2")
	assert.NotSame(t, topic1, topic2)
}

func testReuseTopics(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic1 := broker.Topic(context.Background(), prefix)
	topic2 := broker.Topic(context.Background(), prefix)
	assert.Same(t, topic1, topic2)
}

func testPublishToAllSubscribers(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)

	var wg sync.WaitGroup
	recorder1 := newRecordingHook()
	recorder2 := newRecordingHook()
	wg.Add(6) // 2 recorders * 3 events
	recorder1.wg = &wg
	recorder2.wg = &wg

	ctx := context.Background()
	sub1, err := topic.Subscribe(ctx, recorder1)
	require.NoError(t, err)
	sub2, err := topic.Subscribe(ctx, recorder2)
	require.NoError(t, err)
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()
	assert.NotEqual(t, sub1.ID(), sub2.ID())

	recorder1.signalReady()
	recorder2.signalReady()

	started := startedEvent(1)
	completed := events.Completed{
		Run:        started.Run,
		Model:      "openai/gpt-oss-120b",
		DurationMS: 812,
		KeyUsed:    2,
		Timestamp:  started.Timestamp,
	}
	failed := events.Failed{Run: startedEvent(2).Run, Error: "Groq API error (500): upstream", Timestamp: started.Timestamp}

	require.NoError(t, topic.Publish(ctx, started))
	require.NoError(t, topic.Publish(ctx, completed))
	require.NoError(t, topic.Publish(ctx, failed))

	waitFor(t, &wg, 2*time.Second)

	for _, r := range []*recordingHook{recorder1, recorder2} {
		r.mu.Lock()
		require.Len(t, r.started, 1)
		require.Len(t, r.completed, 1)
		require.Len(t, r.failed, 1)
		assert.Equal(t, started.AnalysisID, r.started[0].AnalysisID)
		assert.Equal(t, "openai/gpt-oss-120b", r.completed[0].Model)
		assert.Equal(t, 2, r.completed[0].KeyUsed)
		assert.Equal(t, "Groq API error (500): upstream", r.failed[0].Error)
		r.mu.Unlock()
	}
}

func testSubscriptionLifecycle(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)

	ctx := context.Background()
	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	recorder.signalReady()

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, topic.Publish(ctx, startedEvent(1)))
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, recorder.total())
}

func testUnsubscribeReleasesForwarder(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)
	baseline := runtime.NumGoroutine()

	subs := make([]Subscription, 0, 5)
	for range 5 {
		sub, err := topic.Subscribe(context.Background(), newRecordingHook())
		require.NoError(t, err)
		subs = append(subs, sub)
	}

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond)
}

func testContextCancellation(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)

	ctx, cancel := context.WithCancel(context.Background())
	recorder := newRecordingHook()
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	recorder.signalReady()

	cancel()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, topic.Publish(context.Background(), startedEvent(1)))
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, recorder.total())
}

func testConcurrentOperations(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)
	ctx := context.Background()

	const (
		numSubscribers = 10
		numEvents      = 100
	)
	recorders := make([]*recordingHook, numSubscribers)
	subs := make([]Subscription, numSubscribers)
	var processWg sync.WaitGroup
	processWg.Add(numSubscribers * numEvents)

	for i := range numSubscribers {
		recorders[i] = newRecordingHook()
		recorders[i].wg = &processWg
		sub, err := topic.Subscribe(ctx, recorders[i])
		require.NoError(t, err)
		subs[i] = sub
		recorders[i].signalReady()
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	var publishWg sync.WaitGroup
	publishWg.Add(numEvents)
	for i := range numEvents {
		go func(i int) {
			defer publishWg.Done()
			assert.NoError(t, topic.Publish(ctx, startedEvent(i)))
		}(i)
	}

	publishWg.Wait()
	waitFor(t, &processWg, 5*time.Second)

	for _, recorder := range recorders {
		recorder.mu.Lock()
		assert.Len(t, recorder.started, numEvents)
		recorder.mu.Unlock()
	}
}

func testHookValidation(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)

	_, err := topic.Subscribe(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook is required")
}

func testSlowSubscribers(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)
	ctx := context.Background()

	recorder := &slowHook{
		recordingHook: newRecordingHook(),
		delay:         200 * time.Millisecond,
	}
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	recorder.signalReady()

	const numEvents = 10
	for i := range numEvents {
		require.NoError(t, topic.Publish(ctx, startedEvent(i)))
	}

	time.Sleep(500 * time.Millisecond)

	assert.Less(t, recorder.total(), numEvents)
}

func testPublisherHook(t *testing.T, createBroker brokerFactory) {
	broker, prefix := createBroker(t)
	topic := broker.Topic(context.Background(), prefix)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	recorder := newRecordingHook()
	recorder.wg = &wg
	sub, err := topic.Subscribe(ctx, recorder)
	require.NoError(t, err)
	defer sub.Unsubscribe()
	recorder.signalReady()

	hook := Publisher(topic)
	started := startedEvent(7)
	hook.OnStarted(ctx, started)
	hook.OnFailed(ctx, events.Failed{Run: started.Run, Error: "provider \"nope\" not found", Timestamp: started.Timestamp})

	waitFor(t, &wg, 2*time.Second)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.started, 1)
	require.Len(t, recorder.failed, 1)
	assert.Equal(t, started.AnalysisID, recorder.failed[0].AnalysisID)
}
