// Package prompt asks the user for input through huh forms.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var (
	// ErrAborted is returned when the user cancels a prompt (Ctrl+C or Esc).
	ErrAborted = errors.New("aborted by user")

	// ErrNoTerminal is returned when stdin is not interactive.
	ErrNoTerminal = errors.New("interactive input requires a terminal")
)

// Option is one choice of a Select prompt.
type Option struct {
	Label string
	Value string
}

// Prompter runs single-field forms on the terminal.
type Prompter struct {
	theme      *huh.Theme
	accessible bool
	isTerminal func() bool
}

// New returns a prompter for the process terminal. Setting ACCESSIBLE in
// the environment switches huh to its screen-reader friendly mode.
func New() *Prompter {
	return &Prompter{
		theme:      huh.ThemeDracula(),
		accessible: os.Getenv("ACCESSIBLE") != "",
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

func (p *Prompter) run(ctx context.Context, field huh.Field) error {
	if p.isTerminal != nil && !p.isTerminal() {
		return ErrNoTerminal
	}
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(p.theme).
		WithAccessible(p.accessible)
	return interpret(form.RunWithContext(ctx))
}

// interpret maps huh's cancellation errors onto ErrAborted.
func interpret(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted), errors.Is(err, context.Canceled):
		return ErrAborted
	default:
		return fmt.Errorf("prompt failed: %w", err)
	}
}

// Select asks the user to pick one option and returns its value.
func (p *Prompter) Select(ctx context.Context, title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select for %q", title)
	}

	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	var value string
	err := p.run(ctx, huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Value(&value))
	return value, err
}

// Input asks for one line of text, pre-filled with def. validate runs on
// every change and blocks submission while it returns an error.
func (p *Prompter) Input(ctx context.Context, title, def string, validate func(string) error) (string, error) {
	value := def
	field := huh.NewInput().
		Title(title).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	err := p.run(ctx, field)
	return strings.TrimSpace(value), err
}

// Secret asks for a value without echoing it.
func (p *Prompter) Secret(ctx context.Context, title string) (string, error) {
	var value string
	err := p.run(ctx, huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("a value is required")
			}
			return nil
		}))
	return strings.TrimSpace(value), err
}

// Confirm asks a yes/no question. The default answer is no.
func (p *Prompter) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := p.run(ctx, huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok))
	return ok, err
}

// Edit opens a multi-line editor pre-filled with def.
func (p *Prompter) Edit(ctx context.Context, title, def string) (string, error) {
	value := def
	err := p.run(ctx, huh.NewText().
		Title(title).
		CharLimit(65536).
		Lines(12).
		Value(&value))
	return value, err
}
