// Package progress fans campaign events out to live subscribers.
//
// Every event for a sender is delivered, in emission order, to all sinks
// registered for that sender at emission time. Delivery is best-effort: a
// failing sink is logged and skipped, never allowed to block the others.
package progress

import "fmt"

// Event is one update pushed to subscribers. The concrete types below marshal
// to the wire shapes the dashboard consumes.
type Event interface {
	Kind() string
}

// ProgressEvent reports the counters after a recipient has been processed.
type ProgressEvent struct {
	Type    string `json:"type"`
	Total   int    `json:"total"`
	Current int    `json:"current"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
}

func (e ProgressEvent) Kind() string { return e.Type }

// LogEvent carries a human-readable status line.
type LogEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e LogEvent) Kind() string { return e.Type }

// CompleteEvent carries the final counts; it is the last event of a job.
type CompleteEvent struct {
	Type    string `json:"type"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
}

func (e CompleteEvent) Kind() string { return e.Type }

// Progress builds a progress event.
func Progress(total, current, success, failed int) ProgressEvent {
	return ProgressEvent{Type: "progress", Total: total, Current: current, Success: success, Failed: failed}
}

// Log builds a log event from a format string.
func Log(format string, args ...any) LogEvent {
	return LogEvent{Type: "log", Message: fmt.Sprintf(format, args...)}
}

// Complete builds a completion event.
func Complete(success, failed int) CompleteEvent {
	return CompleteEvent{Type: "complete", Success: success, Failed: failed}
}
