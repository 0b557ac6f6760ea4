// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

// Event is one finished unit of work.
type Event struct {
	Type EventType
	// Item names the unit, e.g. a project name.
	Item string
	// Err is set for EventFailed.
	Err error
}

// EventType says how a unit finished.
type EventType int

const (
	// EventDone indicates the unit completed.
	EventDone EventType = iota
	// EventFailed indicates the unit failed.
	EventFailed
	// EventSkipped indicates the unit was not attempted.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends an event.
	Report(event Event)
	// Close signals that no more events will be sent and waits for listeners to finish.
	Close()
}

// Listener receives progress events.
type Listener interface {
	OnEvent(event Event)
}

// NullReporter discards events.
type NullReporter struct{}

// Report does nothing.
func (nr *NullReporter) Report(Event) {}

// Close does nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}
