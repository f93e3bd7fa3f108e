// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// output.go - Machine-readable output for ytnews commands.
//
// --json and --yaml wrap every result in the same envelope so scripts can
// check success without parsing text. On a color terminal the document is
// syntax highlighted with chroma.

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is the output format of a run.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// =============================================================================
// RESPONSE ENVELOPE
// =============================================================================

// JSONResponse is the envelope for --json and --yaml output.
type JSONResponse struct {
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error is the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is RFC 3339 UTC
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := errorText(err)
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData is the data of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// MessageData is returned by commands whose only result is a message.
type MessageData struct {
	Message string `json:"message"`
}

// =============================================================================
// PRINTER
// =============================================================================

// Printer writes envelopes in one format.
type Printer struct {
	w         io.Writer
	format    Format
	codeStyle string
}

// NewPrinter returns a printer for w. codeStyle names a chroma style;
// highlighting only happens when w is a color terminal.
func NewPrinter(w io.Writer, format Format, codeStyle string) *Printer {
	return &Printer{w: w, format: format, codeStyle: codeStyle}
}

// Print writes data as a successful response. FormatText writes the bare
// data as YAML, which reads well enough for commands with no text view.
func (p *Printer) Print(command string, data interface{}) error {
	if p.format == FormatText {
		return p.write(data, FormatYAML)
	}
	return p.write(NewJSONResponse(command, data), p.format)
}

// Fail writes err as a failed response.
func (p *Printer) Fail(command string, err error) error {
	return p.write(NewJSONErrorResponse(command, err), p.format)
}

func (p *Printer) write(v interface{}, format Format) error {
	doc, err := encode(v, format)
	if err != nil {
		return err
	}
	if p.highlight() {
		doc = highlight(doc, format.String(), p.codeStyle)
	}
	_, err = io.WriteString(p.w, doc)
	return err
}

func (p *Printer) highlight() bool {
	if p.codeStyle == "" || !ColorsEnabled() {
		return false
	}
	f, ok := p.w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// encode renders v as indented JSON or as YAML. YAML goes through JSON
// first so both formats share the json tags and field order.
func encode(v interface{}, format Format) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal output: %w", err)
	}
	if format != FormatYAML {
		return string(data) + "\n", nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", fmt.Errorf("failed to convert output to yaml: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// blockStyle clears the flow and quoting styles JSON input leaves on every
// node, so the encoder picks plain block YAML.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// highlight applies chroma syntax highlighting for a terminal.
func highlight(doc, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		return doc
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, doc)
	if err != nil {
		return doc
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return doc
	}
	return buf.String()
}
