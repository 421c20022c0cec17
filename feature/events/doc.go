// Package events delivers the state-change events raised during cleanup.
//
// QueueEmitter writes them to the eventq table through the handle of the
// scope raising them, so a queued event commits or rolls back together with
// the cleanup that produced it. MQTTEmitter publishes them to a broker, and
// Fanout combines a primary emitter with best-effort secondary ones.
package events
