package event

import "time"

// Event type identifiers.
const (
	TypeForegroundRequested = "foreground_requested"
	TypeImportCompleted     = "import_completed"
	TypeImportFailed        = "import_failed"
	TypeChannelPublished    = "channel_published"
)

// Event is implemented by all events published on the bus.
type Event interface {
	// EventType returns the type identifier used for subscription matching.
	EventType() string
	// Timestamp returns when the event was created.
	Timestamp() time.Time
}

// baseEvent provides the timestamp for all event types.
type baseEvent struct {
	at time.Time
}

func newBaseEvent() baseEvent { return baseEvent{at: time.Now()} }

func (e baseEvent) Timestamp() time.Time { return e.at }

// ForegroundRequestedEvent signals that a rival instance asked the running
// instance to bring itself to the foreground.
type ForegroundRequestedEvent struct {
	baseEvent
}

// NewForegroundRequestedEvent creates a ForegroundRequestedEvent.
func NewForegroundRequestedEvent() ForegroundRequestedEvent {
	return ForegroundRequestedEvent{baseEvent: newBaseEvent()}
}

func (e ForegroundRequestedEvent) EventType() string { return TypeForegroundRequested }

// ImportCompletedEvent signals a successful vault import.
type ImportCompletedEvent struct {
	baseEvent
	Path    string
	Entries int
}

// NewImportCompletedEvent creates an ImportCompletedEvent.
func NewImportCompletedEvent(path string, entries int) ImportCompletedEvent {
	return ImportCompletedEvent{baseEvent: newBaseEvent(), Path: path, Entries: entries}
}

func (e ImportCompletedEvent) EventType() string { return TypeImportCompleted }

// ImportFailedEvent signals a vault import that was caught and reported at
// the channel boundary.
type ImportFailedEvent struct {
	baseEvent
	Path string
	Err  error
}

// NewImportFailedEvent creates an ImportFailedEvent.
func NewImportFailedEvent(path string, err error) ImportFailedEvent {
	return ImportFailedEvent{baseEvent: newBaseEvent(), Path: path, Err: err}
}

func (e ImportFailedEvent) EventType() string { return TypeImportFailed }

// ChannelPublishedEvent signals that this instance published its
// notification channel address into the handle registry.
type ChannelPublishedEvent struct {
	baseEvent
	OwnerUID string
	Addr     string
}

// NewChannelPublishedEvent creates a ChannelPublishedEvent.
func NewChannelPublishedEvent(ownerUID, addr string) ChannelPublishedEvent {
	return ChannelPublishedEvent{baseEvent: newBaseEvent(), OwnerUID: ownerUID, Addr: addr}
}

func (e ChannelPublishedEvent) EventType() string { return TypeChannelPublished }
