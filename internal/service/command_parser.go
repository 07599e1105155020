package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var focusCommandRegex = regexp.MustCompile(`^/focus=([1-6])$`)

// Prompt command types
const (
	CommandInput     = "input"
	CommandBackspace = "backspace"
	CommandPaste     = "paste"
	CommandFocus     = "focus"
	CommandSubmit    = "submit"
	CommandQuit      = "quit"
)

// Command is one line typed at the interactive OTP prompt
type Command struct {
	Type string
	Text string
	Slot int
}

// ParseCommand maps a prompt line to a form action:
// an empty line submits, "-" is backspace, "/focus=N" jumps to slot N (1-based),
// "/quit" leaves, a single character is typed into the focused slot and
// anything longer is pasted.
func ParseCommand(line string) *Command {
	line = strings.TrimRight(line, "\r\n")
	trimmed := strings.TrimSpace(line)

	switch trimmed {
	case "":
		return &Command{Type: CommandSubmit}
	case "-", "/bs":
		return &Command{Type: CommandBackspace}
	case "/q", "/quit":
		return &Command{Type: CommandQuit}
	}

	if matches := focusCommandRegex.FindStringSubmatch(trimmed); matches != nil {
		n, _ := strconv.Atoi(matches[1])
		return &Command{Type: CommandFocus, Slot: n - 1}
	}

	if utf8.RuneCountInString(trimmed) == 1 {
		return &Command{Type: CommandInput, Text: trimmed}
	}

	return &Command{Type: CommandPaste, Text: trimmed}
}
