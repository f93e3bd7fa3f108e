// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and prompts for the ytnews CLI.
//
// Interactive terminals get colors and prompts. Piped output gets neither,
// and NO_COLOR is respected everywhere.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width, or 80 if it cannot
// be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	// colorsEnabled caches the color support decision
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled returns true if colored output should be used.
// See https://no-color.org/ for the NO_COLOR convention.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		// NO_COLOR takes precedence (any non-empty value disables colors)
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns the termenv profile for stdout. Ascii means no
// colors at all.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// TTYRequiredError is returned when an operation requires a TTY but none is available.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}

// Prompter reads answers from the user. Interactive is false when stdin is
// piped, in which case passwords are read as plain lines. Inside the shell
// the prompts go through the shell's line editor.
type Prompter struct {
	In          *bufio.Reader
	Out         io.Writer
	Interactive bool

	editor *liner.State
}

// NewPrompter returns a prompter over stdin and stderr, so prompts never
// end up in redirected output.
func NewPrompter() *Prompter {
	return &Prompter{
		In:          bufio.NewReader(os.Stdin),
		Out:         os.Stderr,
		Interactive: IsTTY(),
	}
}

// Line prints prompt and reads one trimmed line.
func (p *Prompter) Line(prompt string) (string, error) {
	if p.editor != nil {
		line, err := p.editor.Prompt(prompt)
		return strings.TrimSpace(line), err
	}
	if p.Interactive {
		fmt.Fprint(p.Out, prompt)
	}
	line, err := p.In.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a secret without echo on a terminal. Piped input is read
// as a line so "echo pw | ytnews login" works.
func (p *Prompter) Password(prompt string) (string, error) {
	if !p.Interactive {
		line, err := p.In.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", &TTYRequiredError{Operation: "read a password"}
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if p.editor != nil {
		return p.editor.PasswordPrompt(prompt)
	}
	fmt.Fprint(p.Out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
