package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     string
	}{
		{
			name:     "validation with path",
			err:      NewValidation("[1].grant_name", "is required"),
			sentinel: ErrValidation,
			want:     "validation failed: [1].grant_name: is required",
		},
		{
			name:     "validation at root",
			err:      NewValidation("", "expected array"),
			sentinel: ErrValidation,
			want:     "validation failed: expected array",
		},
		{
			name:     "transport with status",
			err:      &TransportError{Op: "submit batch", StatusCode: 500, Message: "tagger unavailable"},
			sentinel: ErrTransport,
			want:     "submit batch: tagger unavailable (status 500)",
		},
		{
			name:     "transport without response",
			err:      &TransportError{Op: "list grants", Message: "request failed", Err: io.EOF},
			sentinel: ErrTransport,
			want:     "list grants: request failed: EOF",
		},
		{
			name:     "user input",
			err:      NewUserInput("malformed JSON", io.ErrUnexpectedEOF),
			sentinel: ErrUserInput,
			want:     "invalid input: malformed JSON: unexpected EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("load: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportErrorKeepsCause(t *testing.T) {
	err := &TransportError{Op: "health", Message: "request failed", Err: io.EOF}
	if !errors.Is(err, io.EOF) {
		t.Error("cause must stay reachable")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("transport error must not match ErrValidation")
	}
}
