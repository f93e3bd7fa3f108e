// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Shared state for one CLI invocation (or one shell session).
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/audit"
	"github.com/jeranaias/ytnews-tui/internal/cache"
	"github.com/jeranaias/ytnews-tui/internal/config"
	"github.com/jeranaias/ytnews-tui/internal/session"
)

// Runtime carries the config, client and session every command needs.
type Runtime struct {
	Config *config.Config
	Client *api.Client
	Holder *session.Holder
	Audit  *audit.Logger
	Args   Args

	Out    io.Writer
	Err    io.Writer
	Prompt *Prompter

	ctx       context.Context
	cache     cache.Cache
	loaded    bool
	closers   []func() error
	stopWatch func()
}

// NewRuntime loads the config and opens the cache, audit log and token
// store it names. Global flags override the file.
func NewRuntime(ctx context.Context, args Args) (*Runtime, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		// Defaults are usable, so a broken file only warns
		fmt.Fprintf(os.Stderr, "%s %v\n", WarningStyle.Render("[WARN]"), err)
	}
	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}

	var store session.TokenStore
	if args.NoPersist {
		store = session.NewMemoryStore("")
	} else if store, err = session.OpenStore(cfg); err != nil {
		return nil, err
	}

	var log *audit.Logger
	if cfg.Audit.Enabled {
		path, err := cfg.AuditPath()
		if err != nil {
			return nil, err
		}
		if log, err = audit.Open(path); err != nil {
			return nil, err
		}
	}

	rt, err := Build(ctx, cfg, store, log, args)
	if err != nil {
		log.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, log.Close)
	return rt, nil
}

// Build wires a runtime from already-opened parts. Output goes to stdout
// and stderr; tests replace Out and Err.
func Build(ctx context.Context, cfg *config.Config, store session.TokenStore, log *audit.Logger, args Args) (*Runtime, error) {
	c, err := cache.Open(cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Config: cfg,
		Audit:  log,
		Args:   args,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Prompt: NewPrompter(),
		ctx:    ctx,
		cache:  c,
	}
	rt.closers = append(rt.closers, c.Close)

	opts := api.OptionsFromConfig(cfg)
	opts.Cache = c
	opts.Tokens = api.TokenFunc(func() string { return rt.Holder.Token() })
	rt.Client = api.NewClient(opts)
	rt.Holder = session.NewHolder(rt.Client.Auth, store, log)

	// A persistent cache must not show one user's responses to the next.
	// The owner is stored with the cache, so restarting as the same user
	// keeps it warm.
	rt.stopWatch = session.OnSettled(rt.Holder, func(s session.Snapshot) {
		if _, err := rt.Client.ClaimCache(context.Background(), s.Owner()); err != nil {
			fmt.Fprintf(rt.Err, "cache: %v\n", err)
		}
	})
	return rt, nil
}

// Close releases the cache and audit log.
func (rt *Runtime) Close() error {
	if rt.stopWatch != nil {
		rt.stopWatch()
	}
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	rt.closers = nil
	return first
}

// Context returns the request context, with the cache bypassed under
// --no-cache.
func (rt *Runtime) Context() context.Context {
	if rt.Args.NoCache {
		return api.NoCache(rt.ctx)
	}
	return rt.ctx
}

// Format is the output format of this run.
func (rt *Runtime) Format() Format { return rt.Args.Format() }

// Text reports whether output is for humans.
func (rt *Runtime) Text() bool { return rt.Format() == FormatText }

// Print writes data in the run's machine format.
func (rt *Runtime) Print(command string, data interface{}) error {
	return NewPrinter(rt.Out, rt.Format(), rt.Config.UI.CodeStyle).Print(command, data)
}

// Done reports a completed action.
func (rt *Runtime) Done(command, message string, data interface{}) error {
	if !rt.Text() {
		if data == nil {
			data = MessageData{Message: message}
		}
		return rt.Print(command, data)
	}
	if !rt.Args.Quiet {
		fmt.Fprintf(rt.Out, "%s %s\n", RenderStatus("ok"), message)
	}
	return nil
}

// =============================================================================
// SESSION AND ACCESS
// =============================================================================

// Session rehydrates the stored token once per runtime and returns the
// current snapshot.
func (rt *Runtime) Session() session.Snapshot {
	if !rt.loaded {
		rt.loaded = true
		return rt.Holder.LoadUser(rt.ctx)
	}
	return rt.Holder.Snapshot()
}

// Gate applies the access rule of a TUI route to a command, so the CLI
// never lets a user do what the matching screen would refuse.
func (rt *Runtime) Gate(name access.RouteName, action string) (session.Snapshot, error) {
	snap := rt.Session()
	route, ok := access.Lookup(name)
	if !ok {
		return snap, fmt.Errorf("unknown route %q", name)
	}

	decision := access.Decide(route.Requirement, snap.Subject())
	switch decision {
	case access.Render:
		return snap, nil
	case access.RedirectHome:
		rt.denied(route, decision, snap, action)
		return snap, &PermissionError{
			Action:   action,
			User:     snap.User.Email,
			Required: route.Requirement.Role().String(),
		}
	default:
		rt.denied(route, decision, snap, action)
		return snap, &PermissionError{Action: action}
	}
}

func (rt *Runtime) denied(route access.Route, d access.Decision, snap session.Snapshot, action string) {
	var email string
	if snap.User != nil {
		email = snap.User.Email
	}
	rt.Audit.Record(audit.EventAccessDenied, false, nil, email, string(snap.Role()), map[string]string{
		"command":  action,
		"route":    string(route.Name),
		"required": route.Requirement.String(),
		"decision": d.String(),
	})
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes one command against rt. CmdTUI and CmdShell are started by
// main, which owns the terminal.
func Run(rt *Runtime, cmd Command, args Args) error {
	switch cmd {
	case CmdLogin:
		return HandleLogin(rt, args)
	case CmdLogout:
		return HandleLogout(rt, args)
	case CmdWhoami:
		return HandleWhoami(rt, args)
	case CmdRegister:
		return HandleRegister(rt, args)
	case CmdStatus:
		return HandleStatus(rt, args)
	case CmdAnnouncements:
		return HandleAnnouncements(rt, args)
	case CmdCategories:
		return HandleCategories(rt, args)
	case CmdEvents:
		return HandleEvents(rt, args)
	case CmdOrgs:
		return HandleOrgs(rt, args)
	case CmdEmployees:
		return HandleEmployees(rt, args)
	case CmdJoin:
		return HandleJoin(rt, args)
	case CmdUsers:
		return HandleUsers(rt, args)
	case CmdMe:
		return HandleMe(rt, args)
	case CmdUpload:
		return HandleUpload(rt, args)
	case CmdCache:
		return HandleCache(rt, args)
	case CmdConfig:
		return HandleConfig(rt, args)
	case CmdVersion:
		return HandleVersionWithJSON(rt.Out, args)
	case CmdHelp:
		HandleHelp(rt.Out)
		return nil
	case CmdShell:
		return fmt.Errorf("already in the shell")
	case CmdTUI:
		return fmt.Errorf("the TUI cannot be started from here, run 'ytnews' directly")
	default:
		return &UnknownCommandError{Name: args.Name, Suggestion: SuggestCommand(args.Name)}
	}
}
