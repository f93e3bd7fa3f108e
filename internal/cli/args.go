// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for ytnews subcommands.

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits subcommand arguments into positionals and flags.
// It accepts:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//   - Positional arguments: arguments without flags
//
// A flag followed by a non-flag word takes that word as its value unless
// the flag was declared boolean in NewArgParser.
//
// Example:
//
//	p := NewArgParser([]string{"delete", "12", "--confirm"}, "confirm")
//	p.Subcommand()       // "delete"
//	p.Positional(1)      // "12"
//	p.BoolFlag("confirm") // true
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. boolNames are flags that never take a value.
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
		raw:       raw,
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, n := range boolNames {
		isBool[n] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		// "--" ends flag parsing
		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if isBool[k] || v == "true" || v == "false" {
				p.boolFlags[k] = v == "true"
			} else {
				p.flags[k] = v
			}
			continue
		}

		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
			continue
		}
		p.boolFlags[name] = true
	}

	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// Subcommand returns the first positional argument, lower-cased.
func (p *ArgParser) Subcommand() string {
	return strings.ToLower(p.subcommand)
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the flag value or a default if not found.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if val := p.Flag(name); val != "" {
		return val
	}
	return defaultValue
}

// FlagInt returns the flag as an integer. A missing flag returns def; a
// malformed one is a usage error.
func (p *ArgParser) FlagInt(name string, def int) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, ErrInvalidFormat("--"+name, val, "a whole number")
	}
	return n, nil
}

// BoolFlag reports whether a boolean flag was given.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "". Index 0 is
// the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return nil
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// OPTIONAL VALUES FOR PARTIAL UPDATES
// =============================================================================

// StringPtr returns the flag's value, or nil when it was not given. An
// explicitly empty value (--excerpt=) yields a pointer to "".
func (p *ArgParser) StringPtr(name string) *string {
	v, ok := p.flags[name]
	if !ok {
		if _, isBool := p.boolFlags[name]; !isBool {
			return nil
		}
	}
	return &v
}

// IntPtr is StringPtr for integers.
func (p *ArgParser) IntPtr(name string) (*int, error) {
	s := p.StringPtr(name)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil, ErrInvalidFormat("--"+name, *s, "a whole number")
	}
	return &n, nil
}

// BoolPtr accepts "--flag", "--flag=false" and "--flag no" style values.
func (p *ArgParser) BoolPtr(name string) (*bool, error) {
	if v, ok := p.boolFlags[name]; ok {
		return &v, nil
	}
	s, ok := p.flags[name]
	if !ok {
		return nil, nil
	}
	b, err := ParseBoolString(s)
	if err != nil {
		return nil, ErrInvalidFormat("--"+name, s, "true or false")
	}
	return &b, nil
}

// IntList parses a comma-separated list such as "--category 1,4".
func (p *ArgParser) IntList(name string) ([]int, error) {
	s := p.Flag(name)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, ErrInvalidFormat("--"+name, s, "comma-separated ids, e.g. 1,4")
		}
		out = append(out, n)
	}
	return out, nil
}

// =============================================================================
// HELPER FUNCTIONS FOR COMMON ARG PATTERNS
// =============================================================================

// ParseID parses a positive numeric id argument.
func ParseID(s, fieldName string) (int, error) {
	if s == "" {
		return 0, ErrMissingArgument(fieldName, "<"+fieldName+">")
	}
	val, err := strconv.Atoi(s)
	if err != nil || val <= 0 {
		return 0, NewValidationError(fieldName, s, "must be a positive number")
	}
	return val, nil
}

// ParseBoolString parses a boolean from various string representations.
// Accepts: true/false, yes/no, y/n, 1/0, on/off (case-insensitive)
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
