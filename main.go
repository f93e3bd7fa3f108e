// ytnews - terminal client for the YTNews portal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/cli"
	"github.com/jeranaias/ytnews-tui/internal/session"
	"github.com/jeranaias/ytnews-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	// Request and cache logging only with --verbose; it would tear the TUI
	if !args.Verbose || cmd == cli.CmdTUI {
		log.SetOutput(io.Discard)
	}

	// Version and help work without a config or network
	switch cmd {
	case cli.CmdVersion:
		exit(cli.HandleVersionWithJSON(os.Stdout, args), args, "version")
	case cli.CmdHelp:
		cli.HandleHelp(os.Stdout)
		return
	case cli.CmdUnknown:
		exit(&cli.UnknownCommandError{Name: args.Name, Suggestion: cli.SuggestCommand(args.Name)}, args, args.Name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := cli.NewRuntime(ctx, args)
	if err != nil {
		stop()
		exit(err, args, args.Name)
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, rt, args)
	case cli.CmdShell:
		err = cli.HandleShell(rt)
	default:
		err = cli.Run(rt, cmd, args)
	}
	if cerr := rt.Close(); err == nil {
		err = cerr
	}
	stop()
	exit(err, args, args.Name)
}

// runTUI starts the Bubble Tea program. Token changes made by another
// ytnews process reach it through the watcher when session.watch_token is on.
func runTUI(ctx context.Context, rt *cli.Runtime, args cli.Args) error {
	env := app.NewEnv(ctx, rt.Config, rt.Client, rt.Holder, rt.Audit)
	p := tea.NewProgram(
		app.New(env, args.Open),
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	cancel := session.Forward(rt.Holder, p.Send)
	defer cancel()

	if rt.Config.Session.WatchToken && !args.NoPersist {
		if path, err := rt.Config.TokenPath(); err == nil {
			if tw, err := session.NewTokenWatcher(path, rt.Holder, 0); err == nil {
				if err := tw.Watch(); err == nil {
					defer tw.Close()
				} else {
					tw.Close()
				}
			}
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running ytnews: %w", err)
	}
	return nil
}

// exit reports err (if any) in the requested format and exits with its code.
func exit(err error, args cli.Args, command string) {
	if err == nil {
		os.Exit(0)
	}
	if errors.Is(err, cli.ErrCancelled) {
		fmt.Fprintln(os.Stderr, "Cancelled.")
		os.Exit(0)
	}
	// Machine output keeps the error envelope on stdout with the data
	w := os.Stderr
	if args.Format() != cli.FormatText {
		w = os.Stdout
	}
	cli.DisplayError(w, err, args.Format(), command)
	os.Exit(cli.GetExitCode(err))
}
