package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name    string
		in      error
		want    error
		wrapped bool
	}{
		{"success", nil, nil, false},
		{"user abort", huh.ErrUserAborted, ErrAborted, false},
		{"context cancelled", context.Canceled, ErrAborted, false},
		{"other failure", errors.New("tty gone"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interpret(tt.in)
			if tt.wrapped {
				if got == nil || errors.Is(got, ErrAborted) || !errors.Is(got, tt.in) {
					t.Errorf("interpret(%v) = %v, want wrapped original", tt.in, got)
				}
				return
			}
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("interpret(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequiresTerminal(t *testing.T) {
	p := New()
	p.isTerminal = func() bool { return false }
	ctx := context.Background()

	if _, err := p.Select(ctx, "Pick", []Option{{Label: "a", Value: "a"}}); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Select() error = %v, want ErrNoTerminal", err)
	}
	if _, err := p.Input(ctx, "Name", "x", nil); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Input() error = %v, want ErrNoTerminal", err)
	}
	if _, err := p.Confirm(ctx, "Sure?"); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Confirm() error = %v, want ErrNoTerminal", err)
	}
	if _, err := p.Edit(ctx, "Body", "x"); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Edit() error = %v, want ErrNoTerminal", err)
	}
}

func TestSelectWithoutOptions(t *testing.T) {
	p := New()
	p.isTerminal = func() bool { return true }
	if _, err := p.Select(context.Background(), "Pick", nil); err == nil {
		t.Error("Select() with no options succeeded, want error")
	}
}
