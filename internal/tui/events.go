package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
	"github.com/twiced-technology-gmbh/protodo/internal/remote"
)

const eventBuffer = 64

// EventSink queues synchronizer events for the board model. Pass it as
// board.Options.Sink before constructing the synchronizer.
type EventSink struct {
	ch chan board.Event

	mu       sync.Mutex
	failures []board.Event
	wake     chan struct{}
}

// NewEventSink returns an empty sink.
func NewEventSink() *EventSink {
	return &EventSink{
		ch:   make(chan board.Event, eventBuffer),
		wake: make(chan struct{}, 1),
	}
}

// Publish implements board.EventSink. Failures are always kept and
// delivered ahead of other events. Other events are dropped when the queue
// is full; the next one still triggers a refresh.
func (s *EventSink) Publish(e board.Event) {
	if e.Failed() {
		s.mu.Lock()
		s.failures = append(s.failures, e)
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
		return
	}
	select {
	case s.ch <- e:
	default:
	}
}

func (s *EventSink) popFailure() (board.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return board.Event{}, false
	}
	e := s.failures[0]
	s.failures = s.failures[1:]
	return e, true
}

func (s *EventSink) next() tea.Cmd {
	return func() tea.Msg {
		for {
			if e, ok := s.popFailure(); ok {
				return eventMsg(e)
			}
			select {
			case e := <-s.ch:
				return eventMsg(e)
			case <-s.wake:
			}
		}
	}
}

// --- Messages ---

// ReloadMsg is sent by the preferences watcher to trigger a reload of the
// active board.
type ReloadMsg struct{}

// TickMsg is sent periodically to refresh due-date highlighting.
type TickMsg struct{}

type eventMsg board.Event

// changeMsg is a store push; ok is false once the channel closed.
type changeMsg struct {
	note remote.Notification
	ok   bool
}

// opDoneMsg ends a store round trip started from a key press. Failures are
// reported through the event sink, so err only drives focus.
type opDoneMsg struct {
	focus string
	err   error
}

type clearToastMsg struct{ seq int }

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}

func listenChanges(ch <-chan remote.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		return changeMsg{note: n, ok: ok}
	}
}

func clearToastAfter(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} })
}
