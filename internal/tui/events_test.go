package tui

import (
	"errors"
	"testing"

	"github.com/twiced-technology-gmbh/protodo/internal/board"
)

func TestEventSinkKeepsFailuresWhenFull(t *testing.T) {
	sink := NewEventSink()
	for range eventBuffer + 10 {
		sink.Publish(board.Event{Kind: board.EventTaskMoved, TaskID: "t1"})
	}
	sink.Publish(board.Event{
		Kind:    board.EventMoveFailed,
		TaskID:  "t1",
		Message: "Failed to update task position",
		Err:     errors.New("unavailable"),
	})

	first := board.Event(sink.next()().(eventMsg))
	if first.Kind != board.EventMoveFailed || first.Message != "Failed to update task position" {
		t.Fatalf("first event = %+v, want the move failure", first)
	}

	moved := 0
	for range eventBuffer {
		if board.Event(sink.next()().(eventMsg)).Kind == board.EventTaskMoved {
			moved++
		}
	}
	if moved != eventBuffer {
		t.Errorf("queued moves = %d, want %d", moved, eventBuffer)
	}
}

func TestEventSinkFailureWakesWaitingReader(t *testing.T) {
	sink := NewEventSink()
	got := make(chan board.Event, 1)
	go func() { got <- board.Event(sink.next()().(eventMsg)) }()

	sink.Publish(board.Event{Kind: board.EventError, Message: "Login required"})
	if e := <-got; e.Kind != board.EventError {
		t.Errorf("event = %+v", e)
	}
}
