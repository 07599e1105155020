// Package ui renders the client's terminal surface: notifications,
// screens, and the interactive OTP prompt.
package ui

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Console writes user-facing notifications to a terminal
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

// NewConsole creates a Console writing to out
func NewConsole(out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{out: out, logger: logger}
}

// Success prints a confirmation line
func (c *Console) Success(msg string) {
	c.logger.Debug("notification", slog.String("kind", "success"), slog.String("message", msg))
	c.println("✓ " + msg)
}

// Error prints a failure line
func (c *Console) Error(msg string) {
	c.logger.Debug("notification", slog.String("kind", "error"), slog.String("message", msg))
	c.println("✗ " + msg)
}

// Printf writes formatted text as is
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}
