// Package broker distributes analysis lifecycle events between the engine and
// whoever wants to watch it: a CLI progress printer, a NATS bridge to another
// process, or a test recorder.
//
// A Broker hands out named topics. Publishing on a topic delivers the event to
// every live subscription, each of which forwards to an events.Hook on its own
// goroutine. Two implementations exist:
//   - Local: in-process fan-out over buffered channels. A subscriber that
//     stays full for longer than a short timeout is dropped.
//   - NATS: the topic name is the NATS subject and events travel as JSON.
//
// Publisher adapts a topic into an events.Hook, which is how the analysis
// engine is connected to a broker:
//
//	b := broker.Local()
//	topic := b.Topic(ctx, "chartwise.analysis")
//	sub, err := topic.Subscribe(ctx, progressPrinter)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
//
//	engine := analysis.NewEngine(registry, prompts, analysis.WithHook(broker.Publisher(topic)))
package broker
