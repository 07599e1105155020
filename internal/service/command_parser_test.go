package service

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedType string
		expectedText string
		expectedSlot int
	}{
		{"empty line submits", "", CommandSubmit, "", 0},
		{"whitespace submits", "   \n", CommandSubmit, "", 0},
		{"dash is backspace", "-", CommandBackspace, "", 0},
		{"bs command", "/bs", CommandBackspace, "", 0},
		{"quit", "/quit", CommandQuit, "", 0},
		{"short quit", "/q", CommandQuit, "", 0},
		{"focus first", "/focus=1", CommandFocus, "", 0},
		{"focus last", "/focus=6", CommandFocus, "", 5},
		{"single digit", "7", CommandInput, "7", 0},
		{"single letter", "x", CommandInput, "x", 0},
		{"single rune multibyte", "é", CommandInput, "é", 0},
		{"paste full code", "123456", CommandPaste, "123456", 0},
		{"paste mixed", "12ab56", CommandPaste, "12ab56", 0},
		{"paste with surrounding spaces", "  123 ", CommandPaste, "123", 0},
		{"focus out of range is pasted", "/focus=7", CommandPaste, "/focus=7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if cmd == nil {
				t.Fatal("Expected command, got nil")
			}
			if cmd.Type != tt.expectedType {
				t.Errorf("Expected type %q, got %q", tt.expectedType, cmd.Type)
			}
			if cmd.Text != tt.expectedText {
				t.Errorf("Expected text %q, got %q", tt.expectedText, cmd.Text)
			}
			if cmd.Slot != tt.expectedSlot {
				t.Errorf("Expected slot %d, got %d", tt.expectedSlot, cmd.Slot)
			}
		})
	}
}
