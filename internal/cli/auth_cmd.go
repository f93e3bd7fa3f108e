// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Session commands: login, logout, whoami, register.
//
// Command: login
// Short:   Sign in and store the token for the TUI and later commands
//
// Examples:
//   ytnews login                              Prompt for email and password
//   ytnews login --email me@example.com       Prompt for the password only
//   echo "$PW" | ytnews login --email me@example.com --password-stdin
//
// Command: logout
// Short:   Forget the stored token (no network call)
//
// Command: whoami
// Short:   Show the signed-in user, role and token expiry
//
// Command: register (alias: signup)
// Short:   Create an account; sign in afterwards with login
//
// Flags:
//   --email E           Account email
//   --name N            Full name (register)
//   --password-stdin    Read the password from stdin instead of prompting

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/session"
)

// SessionData is the machine output of login and whoami.
type SessionData struct {
	Authenticated bool      `json:"authenticated"`
	User          *api.User `json:"user,omitempty"`
	Subject       string    `json:"token_subject,omitempty"`
	ExpiresAt     string    `json:"token_expires_at,omitempty"`
	ExpiresIn     string    `json:"token_expires_in,omitempty"`
}

func sessionData(snap session.Snapshot, now time.Time) SessionData {
	data := SessionData{Authenticated: snap.Authenticated(), User: snap.User}
	if snap.Token == "" {
		return data
	}
	if claims, err := session.ParseClaims(snap.Token); err == nil {
		data.Subject = claims.Subject
		if claims.HasExpiry() {
			data.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
			data.ExpiresIn = formatDuration(claims.Remaining(now))
		}
	}
	return data
}

// readCredentials resolves the email and password from flags and prompts.
func readCredentials(rt *Runtime, p *ArgParser) (string, string, error) {
	email := p.Flag("email")
	if email == "" {
		if !rt.Prompt.Interactive {
			return "", "", ErrMissingArgument("email", "--email you@example.com")
		}
		var err error
		if email, err = rt.Prompt.Line("Email: "); err != nil {
			return "", "", err
		}
	}

	if p.BoolFlag("password-stdin") {
		pw, err := rt.Prompt.Line("")
		return email, pw, err
	}
	pw, err := rt.Prompt.Password("Password: ")
	return email, pw, err
}

// HandleLogin handles "ytnews login".
func HandleLogin(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "password-stdin")
	email, password, err := readCredentials(rt, p)
	if err != nil {
		return err
	}
	if err := api.Validate(api.LoginRequest{Email: email, Password: password}); err != nil {
		return err
	}

	snap, err := rt.Holder.Login(rt.ctx, email, password)
	if err != nil {
		return NewCommandError("login", "sign in", err)
	}
	rt.loaded = true

	if !rt.Text() {
		return rt.Print("login", sessionData(snap, time.Now()))
	}
	return rt.Done("login", fmt.Sprintf("Signed in as %s (%s)", snap.User.DisplayName(), snap.Role()), nil)
}

// HandleLogout handles "ytnews logout".
// The stored token is dropped as-is; signing out never calls the API.
func HandleLogout(rt *Runtime, args Args) error {
	who := rt.Holder.StoredSubject()
	if prev := rt.Holder.Snapshot(); prev.User != nil {
		who = prev.User.Email
	}
	if err := rt.Holder.Logout(); err != nil {
		return err
	}
	rt.loaded = true
	msg := "Signed out"
	if who != "" {
		msg = fmt.Sprintf("Signed out %s", who)
	}
	return rt.Done("logout", msg, nil)
}

// HandleWhoami handles "ytnews whoami".
func HandleWhoami(rt *Runtime, args Args) error {
	snap := rt.Session()
	data := sessionData(snap, time.Now())
	if !rt.Text() {
		return rt.Print("whoami", data)
	}

	if !snap.Authenticated() {
		fmt.Fprintln(rt.Out, DimStyle.Render("Not signed in. Run 'ytnews login'."))
		return nil
	}
	u := snap.User
	printTitle(rt.Out, u.DisplayName())
	printField(rt.Out, "Email", u.Email)
	printField(rt.Out, "Role", string(u.Role))
	printField(rt.Out, "User ID", fmt.Sprint(u.ID))
	printField(rt.Out, "Active", yesNo(u.IsActive))
	if data.ExpiresAt != "" {
		printField(rt.Out, "Token expires", fmt.Sprintf("%s (in %s)", data.ExpiresAt, data.ExpiresIn))
	}
	return nil
}

// HandleRegister handles "ytnews register". It does not sign in; the
// backend returns the new user, not a token.
func HandleRegister(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw, "password-stdin")
	email, password, err := readCredentials(rt, p)
	if err != nil {
		return err
	}

	name := p.Flag("name")
	if name == "" && rt.Prompt.Interactive && !p.BoolFlag("password-stdin") {
		if name, err = rt.Prompt.Line("Full name (optional): "); err != nil {
			return err
		}
	}

	user, err := rt.Client.Auth.Register(rt.Context(), api.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: name,
	})
	if err != nil {
		return NewCommandError("register", "create account", err)
	}
	return rt.Done("register", fmt.Sprintf("Account %s created. Sign in with 'ytnews login --email %s'", user.Email, user.Email), user)
}
