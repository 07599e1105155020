package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"authfort-cli/internal/observability"
	"authfort-cli/internal/service"
)

// ErrPromptAborted is returned when the user quits or input ends
var ErrPromptAborted = errors.New("otp prompt aborted")

const promptHelp = `Enter the 6-digit code sent to your email.
Type a digit per line, paste the whole code, "-" to erase, /focus=N to move,
an empty line to submit, /quit to leave.
`

// OTPPrompt drives an OTPForm from line-oriented terminal input
type OTPPrompt struct {
	form    *service.OTPForm
	router  *Router
	console *Console
	in      io.Reader
}

// NewOTPPrompt creates a prompt reading commands from in
func NewOTPPrompt(form *service.OTPForm, router *Router, console *Console, in io.Reader) *OTPPrompt {
	return &OTPPrompt{form: form, router: router, console: console, in: in}
}

// Run reads commands until the form navigates home, the user quits,
// input ends, or ctx is done.
func (p *OTPPrompt) Run(ctx context.Context) error {
	log := observability.FromContext(ctx)
	scanner := bufio.NewScanner(p.in)

	if !p.router.AtHome() {
		p.console.Printf("%s", promptHelp)
	}

	for {
		if p.router.AtHome() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		p.console.Printf("%s > ", RenderSlots(p.form.Slots(), p.form.Focus()))
		if !scanner.Scan() {
			p.console.Printf("\n")
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return ErrPromptAborted
		}

		cmd := service.ParseCommand(scanner.Text())
		var err error
		switch cmd.Type {
		case service.CommandSubmit:
			// failures are already shown by the form
			if err := p.form.Submit(ctx); err != nil {
				log.Debug("otp submission not accepted", slog.String("error", err.Error()))
			}
		case service.CommandInput:
			err = p.form.Input(p.form.Focus(), cmd.Text)
		case service.CommandBackspace:
			err = p.form.Backspace(p.form.Focus())
		case service.CommandPaste:
			p.form.Paste(cmd.Text)
		case service.CommandFocus:
			err = p.form.SetFocus(cmd.Slot)
		case service.CommandQuit:
			return ErrPromptAborted
		}
		if err != nil {
			p.console.Error(err.Error())
		}
	}
}

// RenderSlots draws the six slots with the focused one in brackets
func RenderSlots(slots []string, focus int) string {
	var b strings.Builder
	for i, s := range slots {
		if s == "" {
			s = "_"
		}
		if i == focus {
			b.WriteString("[" + s + "]")
		} else {
			b.WriteString(" " + s + " ")
		}
	}
	return b.String()
}
