// Package events describes the lifecycle of an analysis run as events a UI or
// another process can observe.
//
// Every run emits exactly one Started event followed by either a Completed or
// a Failed event. Events carry the analysis id so observers can correlate
// them with the engine's status records.
//
// Design decisions:
//   - Flat, explicit event types rather than a generic envelope
//   - Compact JSON with a "type" marker, written with sjson and read with gjson
//   - Hook has one method per event type, so new events break implementations at compile time
//
// Example usage:
//
//	hook := events.Multi(logHook, broker.Publisher(topic))
//	engine := analysis.NewEngine(registry, prompts, analysis.WithHook(hook))
//
//	// elsewhere
//	sub, err := topic.Subscribe(ctx, myHook)
package events
