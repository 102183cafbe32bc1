/*
Package events provides the broker Burrow's persistence core publishes
lifecycle events through.

Event types cover the moments an operator cares about: snapshot load
completion, checkpoint start/finish/failure, panic dumps, and external
process launch, completion, and kills. The checkpointer and the exec
facility publish; the server wires a logging subscriber at startup.

The broker is synchronous by design. Event volume here is a few events
per checkpoint cycle, not an orchestrator's firehose, so Publish fans out
directly in the caller's goroutine instead of routing through a dispatch
loop — fewer moving parts and nothing to start or stop. What Publish
never does is block: delivery to each subscriber is a non-blocking send
into a short buffer, and a subscriber that stops draining loses events
rather than stalling a checkpoint. Close ends every subscription and
turns later publishes into no-ops, which lets background checkpoint
writers finish after the server has begun shutting down.
*/
package events
