// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation handling for destructive commands.
//
// One pattern for every delete:
//  1. --confirm proceeds without prompting
//  2. JSON/YAML output requires --confirm
//  3. A piped stdin requires --confirm
//  4. Otherwise the user is asked [y/N]

package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the user answers no.
var ErrCancelled = errors.New("cancelled")

// RequireConfirmation asks the user to confirm action unless confirmFlag
// is set. It returns ErrCancelled on anything but y/yes.
func RequireConfirmation(p *Prompter, confirmFlag bool, action string, format Format) error {
	if confirmFlag {
		return nil
	}
	if format != FormatText {
		return NewValidationErrorWithExample("confirm", "", "confirmation required for destructive actions in machine output",
			"add --confirm")
	}
	if p == nil || !p.Interactive {
		return NewValidationErrorWithExample("confirm", "", "confirmation required but stdin is not a terminal",
			"add --confirm")
	}

	answer, err := p.Line(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	default:
		return ErrCancelled
	}
}
