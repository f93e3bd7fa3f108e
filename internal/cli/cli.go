// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level handlers for ytnews.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdRegister
	CmdStatus
	CmdAnnouncements
	CmdCategories
	CmdEvents
	CmdOrgs
	CmdEmployees
	CmdJoin
	CmdUsers
	CmdMe
	CmdUpload
	CmdCache
	CmdConfig
	CmdShell
	CmdVersion
	CmdHelp
	CmdUnknown
)

// commandNames maps every accepted spelling to its command.
var commandNames = map[string]Command{
	"tui":           CmdTUI,
	"login":         CmdLogin,
	"logout":        CmdLogout,
	"whoami":        CmdWhoami,
	"register":      CmdRegister,
	"signup":        CmdRegister,
	"status":        CmdStatus,
	"s":             CmdStatus,
	"announcements": CmdAnnouncements,
	"announcement":  CmdAnnouncements,
	"news":          CmdAnnouncements,
	"categories":    CmdCategories,
	"category":      CmdCategories,
	"events":        CmdEvents,
	"event":         CmdEvents,
	"orgs":          CmdOrgs,
	"org":           CmdOrgs,
	"organizations": CmdOrgs,
	"employees":     CmdEmployees,
	"staff":         CmdEmployees,
	"join":          CmdJoin,
	"users":         CmdUsers,
	"user":          CmdUsers,
	"me":            CmdMe,
	"profile":       CmdMe,
	"upload":        CmdUpload,
	"cache":         CmdCache,
	"config":        CmdConfig,
	"shell":         CmdShell,
	"repl":          CmdShell,
	"version":       CmdVersion,
	"--version":     CmdVersion,
	"help":          CmdHelp,
	"-h":            CmdHelp,
	"--help":        CmdHelp,
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet     bool
	Verbose   bool
	JSON      bool
	YAML      bool
	NoCache   bool   // bypass the response cache for this run
	NoPersist bool   // keep the token in memory only
	APIURL    string // overrides api.base_url
	Open      string // first TUI path

	// Name is the command word as typed
	Name string

	// Raw holds everything after the command word
	Raw []string
}

// Format returns the requested output format.
func (a Args) Format() Format {
	switch {
	case a.JSON:
		return FormatJSON
	case a.YAML:
		return FormatYAML
	default:
		return FormatText
	}
}

const usageText = `ytnews - terminal client for the YTNews portal

Usage:
  ytnews                          Start the TUI (default)
  ytnews tui [--open PATH]        Start the TUI on a screen, e.g. --open /events

Session:
  ytnews login [--email E]        Sign in (password is prompted, or --password-stdin)
  ytnews logout                   Forget the stored token
  ytnews whoami                   Show the signed-in user and token expiry
  ytnews register                 Create an account, then sign in with login
  ytnews status, s                API reachability, session, cache and config

Content:
  ytnews announcements list [--all] [--status S] [--category ID] [--skip N] [--limit N]
  ytnews announcements show <slug|id>
  ytnews announcements create --title T [--slug S] [--content-file F | --content C]
                              [--excerpt E] [--cover URL] [--status S] [--category ID,ID]
                              [--org ID]
  ytnews announcements update <id> [same flags as create]
  ytnews announcements delete <id> [--confirm]

  ytnews categories list|show <slug|id>|create|update <id>|delete <id>
  ytnews events list [--upcoming] | show <slug> | create | update <id> | delete <id>
  ytnews events register <slug> [--name N --email E --phone P] [--notes T]
  ytnews events my | cancel <registration-id> | registrations <event-id>

Organizations:
  ytnews orgs list|show <slug|id>|create|update <id>|delete <id>
  ytnews employees my | list <org-id> | add --user ID --org ID --position P [--can-post]
  ytnews employees update <id> [--position P] [--active BOOL] [--can-post BOOL]
  ytnews employees remove <id>
  ytnews join request <org-slug|id> --position P [--message M]
  ytnews join list <org-id> | accept <id> | reject <id>

Accounts:
  ytnews me [show] | update [--name N] [--email E] [--password]
  ytnews users list|show <id>|create|update <id>|delete <id>       (admin)

Other:
  ytnews upload image <file> | images <file>...
  ytnews cache [stats|clear]
  ytnews config [show|get KEY|set KEY VALUE|path|keys]
  ytnews shell                    Interactive command shell with history
  ytnews version

Global Flags:
  --api URL       Use another API base URL for this run
  --json          Machine-readable JSON output
  --yaml          YAML output
  --no-cache      Skip the response cache
  --no-persist    Do not read or write the token file
  -q, --quiet     Minimal output
  -v, --verbose   Log requests to stderr

Writes need the role the matching TUI screen needs: announcements and
categories need moderator, users need admin, me/employees/join need a
signed-in user.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "ytnews version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) and returns the command
// and its args. Global flags may appear anywhere.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	name := strings.ToLower(remaining[0])
	parsed.Name = name
	parsed.Raw = remaining[1:]

	cmd, ok := commandNames[name]
	if !ok {
		return CmdUnknown, parsed
	}
	if cmd == CmdTUI {
		p := NewArgParser(parsed.Raw)
		if open := p.Flag("open"); open != "" {
			parsed.Open = open
		}
	}
	return cmd, parsed
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--yaml":
			parsed.YAML = true
		case "--no-cache":
			parsed.NoCache = true
		case "--no-persist":
			parsed.NoPersist = true
		case "--api":
			if i+1 < len(args) {
				i++
				parsed.APIURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--api=") {
				parsed.APIURL = strings.TrimPrefix(arg, "--api=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}
	return remaining, parsed
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleVersionWithJSON handles the "version" command with JSON output support.
func HandleVersionWithJSON(w io.Writer, args Args) error {
	if args.Format() != FormatText {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewPrinter(w, args.Format(), "").Print("version", data)
	}
	PrintVersion(w)
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp(w io.Writer) {
	PrintUsage(w)
}

// UnknownCommandError is returned for a command word ytnews does not know.
type UnknownCommandError struct {
	Name       string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown command %q, did you mean %q?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown command %q, run 'ytnews help'", e.Name)
}
