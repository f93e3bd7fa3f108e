// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Interactive command shell.
//
// Command: shell
// Aliases: repl
//
// Every ytnews command runs inside the shell without the "ytnews" prefix,
// against one session, so signing in once covers every later command.
// Arrow keys walk the history, Tab completes commands and subcommands.
//
// Examples:
//   ytnews shell
//   ytnews> login --email staff@yt.edu
//   ytnews> announcements list --all --json
//   ytnews> exit
//
// Flags given to "ytnews shell" (--api, --no-persist, --json...) apply to
// every line. Flags on a line apply to that line only.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/ytnews-tui/internal/config"
)

const shellPrompt = "ytnews> "

// shellSubcommands feeds Tab completion of the second word.
var shellSubcommands = map[string][]string{
	"announcements": {"list", "show", "create", "update", "delete"},
	"categories":    {"list", "show", "create", "update", "delete"},
	"events":        {"list", "show", "register", "my", "cancel", "create", "update", "delete", "registrations"},
	"orgs":          {"list", "show", "create", "update", "delete"},
	"employees":     {"my", "list", "add", "update", "remove"},
	"join":          {"request", "list", "accept", "reject"},
	"users":         {"list", "show", "create", "update", "delete"},
	"me":            {"show", "update"},
	"upload":        {"image", "images"},
	"cache":         {"stats", "clear"},
	"config":        {"show", "get", "set", "path", "keys"},
}

// Shell is a line-editing loop over Run.
type Shell struct {
	rt          *Runtime
	base        Args
	line        *liner.State
	historyFile string
}

// NewShell takes over the terminal for rt. Close must be called to
// restore it.
func NewShell(rt *Runtime) *Shell {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeLine)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	s := &Shell{
		rt:          rt,
		base:        rt.Args,
		line:        line,
		historyFile: filepath.Join(dir, "shell_history"),
	}
	rt.Prompt.editor = line
	s.loadHistory()
	return s
}

func (s *Shell) loadHistory() {
	if f, err := os.Open(s.historyFile); err == nil {
		s.line.ReadHistory(f)
		f.Close()
	}
}

func (s *Shell) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(s.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	s.line.WriteHistory(f)
}

// Close saves the history and gives the terminal back.
func (s *Shell) Close() {
	s.saveHistory()
	s.rt.Prompt.editor = nil
	s.line.Close()
}

// Loop reads and runs lines until exit, Ctrl+C or Ctrl+D.
func (s *Shell) Loop() error {
	if !s.rt.Args.Quiet {
		fmt.Fprintf(s.rt.Out, "ytnews %s shell. Type 'help' for commands, 'exit' to leave.\n", Version)
	}
	for {
		input, err := s.line.Prompt(shellPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.rt.Out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if done := s.Exec(input); done {
			return nil
		}
	}
}

// Exec runs one line and reports whether the shell should exit. Errors are
// printed, never returned, so one failed command keeps the shell alive.
func (s *Shell) Exec(input string) bool {
	words, err := splitWords(input)
	if err != nil {
		DisplayError(s.rt.Err, NewValidationError("input", input, err.Error()), FormatText, "shell")
		return false
	}
	if len(words) == 0 {
		return false
	}
	switch strings.ToLower(words[0]) {
	case "exit", "quit", "q":
		return true
	}

	cmd, args := ParseArgs(words)
	args = s.merge(args)
	if cmd == CmdTUI && args.Name == "" {
		return false
	}

	s.rt.Args = args
	defer func() { s.rt.Args = s.base }()

	if err := Run(s.rt, cmd, args); err != nil {
		if errors.Is(err, ErrCancelled) {
			fmt.Fprintln(s.rt.Err, "Cancelled.")
			return false
		}
		w := s.rt.Err
		if args.Format() != FormatText {
			w = s.rt.Out
		}
		DisplayError(w, err, args.Format(), args.Name)
	}
	return false
}

// merge layers the flags of one line over the shell's own.
func (s *Shell) merge(line Args) Args {
	line.Quiet = line.Quiet || s.base.Quiet
	line.Verbose = line.Verbose || s.base.Verbose
	line.NoCache = line.NoCache || s.base.NoCache
	line.NoPersist = s.base.NoPersist
	line.APIURL = s.base.APIURL
	if !line.JSON && !line.YAML {
		line.JSON = s.base.JSON
		line.YAML = s.base.YAML
	}
	return line
}

// HandleShell runs the interactive shell on rt until the user leaves.
func HandleShell(rt *Runtime) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: "run the shell"}
	}
	s := NewShell(rt)
	defer s.Close()
	return s.Loop()
}

// =============================================================================
// COMPLETION AND WORD SPLITTING
// =============================================================================

// completeLine completes the command word, then the subcommand.
func completeLine(line string) []string {
	words := strings.Fields(line)
	trailing := strings.HasSuffix(line, " ")

	switch {
	case len(words) == 0 || (len(words) == 1 && !trailing):
		prefix := ""
		if len(words) == 1 {
			prefix = strings.ToLower(words[0])
		}
		var out []string
		for _, name := range validCommands {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
		return append(out, matching([]string{"exit", "quit"}, prefix, "")...)

	case (len(words) == 1 && trailing) || (len(words) == 2 && !trailing):
		cmd := strings.ToLower(words[0])
		if c, ok := commandNames[cmd]; ok {
			cmd = canonicalName(c)
		}
		subs, ok := shellSubcommands[cmd]
		if !ok {
			return nil
		}
		prefix := ""
		if len(words) == 2 {
			prefix = strings.ToLower(words[1])
		}
		return matching(subs, prefix, words[0]+" ")
	}
	return nil
}

func matching(candidates []string, prefix, lead string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, lead+c)
		}
	}
	sort.Strings(out)
	return out
}

// canonicalName returns the word shellSubcommands is keyed by, so aliases
// complete the same way.
func canonicalName(cmd Command) string {
	for name := range shellSubcommands {
		if commandNames[name] == cmd {
			return name
		}
	}
	return ""
}

// splitWords splits a shell line into words. Single and double quotes group
// words and a backslash escapes the next character outside single quotes.
func splitWords(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
