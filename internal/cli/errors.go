// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for ytnews commands.
//
// Command handlers always return errors and never print them; main decides
// how to display an error and which exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jeranaias/ytnews-tui/internal/api"
	"github.com/jeranaias/ytnews-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the session is missing or lacks a role
	ExitAuthError = 4
	// ExitNetworkError indicates the API could not be reached
	ExitNetworkError = 5
	// ExitServerError indicates the API answered with a 5xx
	ExitServerError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "announcements"
	Action  string // e.g. "delete"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Command, e.Action, api.Message(e.Err))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// PermissionError is returned when the current session cannot run a
// command: either nobody is signed in or the role is too low.
type PermissionError struct {
	Action   string
	User     string // email, "" when anonymous
	Required string // role name, "" when any signed-in user will do
}

func (e *PermissionError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("%s requires signing in, run 'ytnews login'", e.Action)
	}
	return fmt.Sprintf("permission denied: %s requires role '%s' (user: %s)", e.Action, e.Required, e.User)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError wraps err with the command and action that produced it.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// ErrInvalidFormat creates an error for invalid format.
func ErrInvalidFormat(field, value, expected string) error {
	return NewValidationErrorWithExample(field, value, "invalid format", expected)
}

// ErrUnknownSubcommand is returned for a subcommand a command does not have.
func ErrUnknownSubcommand(command, sub string, valid ...string) error {
	return NewValidationErrorWithExample(command+" subcommand", sub, "unknown subcommand",
		fmt.Sprintf("one of %v", valid))
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w in the format the run asked for. JSON and
// YAML runs get the response envelope so scripts can parse failures too.
func DisplayError(w io.Writer, err error, format Format, command string) {
	if err == nil {
		return
	}
	if format != FormatText {
		_ = NewPrinter(w, format, "").Fail(command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), errorText(err))
}

// errorText prefers the server's detail message over the wrapped chain.
func errorText(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Error()
	}
	return api.Message(err)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to the exit code for its category.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		validationErr *ValidationError
		unknownErr    *UnknownCommandError
		permissionErr *PermissionError
		notFoundErr   *NotFoundError
		configErr     config.ValidateErrors
		netErr        net.Error
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &unknownErr):
		return ExitUsageError
	case errors.Is(err, api.ErrInvalid), errors.Is(err, api.ErrBadRequest):
		return ExitUsageError
	case errors.As(err, &configErr):
		return ExitConfigError
	case errors.As(err, &permissionErr),
		errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, api.ErrForbidden):
		return ExitAuthError
	case errors.As(err, &notFoundErr), errors.Is(err, api.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, api.ErrServer), errors.Is(err, api.ErrRateLimited):
		return ExitServerError
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	}
	return ExitGeneralError
}
