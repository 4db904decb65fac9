package board

// EventKind identifies what happened.
type EventKind string

// Event kinds published by the synchronizer.
const (
	EventBoardsLoaded    EventKind = "boards_loaded"
	EventTasksLoaded     EventKind = "tasks_loaded"
	EventBoardChanged    EventKind = "board_changed"
	EventActiveChanged   EventKind = "active_changed"
	EventTaskAdded       EventKind = "task_added"
	EventTaskUpdated     EventKind = "task_updated"
	EventTaskDeleted     EventKind = "task_deleted"
	EventTaskMoved       EventKind = "task_moved"
	EventTaskArchived    EventKind = "task_archived"
	EventStatusesChanged EventKind = "statuses_changed"
	EventMoveFailed      EventKind = "move_failed"
	EventError           EventKind = "error"
)

// Event is a typed notification from the synchronizer to its caller.
// Message is user-facing and set for failures.
type Event struct {
	Kind       EventKind
	BoardID    string
	TaskID     string
	Message    string
	Err        error
	RolledBack bool
}

// Failed reports whether the event signals an error.
func (e Event) Failed() bool {
	return e.Kind == EventError || e.Kind == EventMoveFailed
}

// EventSink receives events. Publish may be called from any goroutine and
// must not call back into the synchronizer synchronously.
type EventSink interface {
	Publish(Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }
