package clierr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("saving: %w", New(AuthRequired, "Login required"))

	if !errors.Is(err, New(AuthRequired, "")) {
		t.Fatal("errors.Is should match on code")
	}
	if errors.Is(err, New(TransportError, "")) {
		t.Fatal("errors.Is matched a different code")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(TransportError, cause, "request failed")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause not reachable through errors.Is")
	}
	if got := CodeOf(err); got != TransportError {
		t.Fatalf("CodeOf = %q, want %q", got, TransportError)
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), ""},
		{"direct", New(TaskNotFound, "x"), TaskNotFound},
		{"wrapped", fmt.Errorf("ctx: %w", New(ValidationError, "x")), ValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if New(InternalError, "x").ExitCode() != 2 {
		t.Error("internal errors exit 2")
	}
	if New(InvalidInput, "x").ExitCode() != 1 {
		t.Error("other errors exit 1")
	}
}
