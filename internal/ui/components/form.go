// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ytnews-tui/internal/ui/styles"
)

// =============================================================================
// FORM COMPONENT
// =============================================================================

// FieldKind selects the input widget for a field. The zero kind is a
// single-line text input.
type FieldKind int

const (
	FieldPassword FieldKind = iota + 1
	FieldMultiline
)

// Field describes one form input.
type Field struct {
	Name        string
	Label       string
	Placeholder string
	Kind        FieldKind
	Value       string
	CharLimit   int
}

// Form is a vertical list of inputs followed by a submit button. Tab and
// shift+tab move focus, enter advances (or submits from the last field and
// the button), ctrl+s submits from anywhere.
type Form struct {
	Title  string
	Submit string

	fields []Field
	inputs []textinput.Model
	areas  []textarea.Model
	focus  int
	width  int

	// Busy disables submission while a request is in flight
	Busy bool
	Err  error

	theme *styles.Theme
}

// NewForm builds a form. The first field gets focus.
func NewForm(theme *styles.Theme, title, submit string, fields ...Field) *Form {
	f := &Form{
		Title:  title,
		Submit: submit,
		fields: fields,
		inputs: make([]textinput.Model, len(fields)),
		areas:  make([]textarea.Model, len(fields)),
		width:  60,
		theme:  theme,
	}
	for i, fd := range fields {
		if fd.Kind == FieldMultiline {
			ta := textarea.New()
			ta.Placeholder = fd.Placeholder
			ta.ShowLineNumbers = false
			ta.CharLimit = fd.CharLimit
			ta.SetValue(fd.Value)
			ta.SetHeight(8)
			f.areas[i] = ta
			continue
		}
		ti := textinput.New()
		ti.Placeholder = fd.Placeholder
		ti.CharLimit = fd.CharLimit
		ti.Prompt = "> "
		if fd.Kind == FieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		ti.SetValue(fd.Value)
		f.inputs[i] = ti
	}
	f.setFocus(0)
	return f
}

// SetWidth resizes the inputs.
func (f *Form) SetWidth(width int) {
	f.width = width
	inner := width - 8
	if inner < 20 {
		inner = 20
	}
	for i, fd := range f.fields {
		if fd.Kind == FieldMultiline {
			f.areas[i].SetWidth(inner)
		} else {
			f.inputs[i].Width = inner
		}
	}
}

// Value returns the current text of the named field.
func (f *Form) Value(name string) string {
	for i, fd := range f.fields {
		if fd.Name == name {
			if fd.Kind == FieldMultiline {
				return f.areas[i].Value()
			}
			return f.inputs[i].Value()
		}
	}
	return ""
}

// SetValue replaces the text of the named field.
func (f *Form) SetValue(name, value string) {
	for i, fd := range f.fields {
		if fd.Name == name {
			if fd.Kind == FieldMultiline {
				f.areas[i].SetValue(value)
			} else {
				f.inputs[i].SetValue(value)
			}
		}
	}
}

// Values returns all field values keyed by name.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fd := range f.fields {
		out[fd.Name] = f.Value(fd.Name)
	}
	return out
}

// Focused returns the index of the focused field; len(fields) is the button.
func (f *Form) Focused() int { return f.focus }

func (f *Form) setFocus(i int) tea.Cmd {
	n := len(f.fields) + 1
	f.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j, fd := range f.fields {
		if fd.Kind == FieldMultiline {
			if j == f.focus {
				cmd = f.areas[j].Focus()
			} else {
				f.areas[j].Blur()
			}
			continue
		}
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// Update handles a key or blink message. submitted reports that the user
// asked to submit and the form is not busy.
func (f *Form) Update(msg tea.Msg) (submitted bool, cmd tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		onButton := f.focus == len(f.fields)
		multiline := !onButton && f.fields[f.focus].Kind == FieldMultiline

		switch key.String() {
		case "tab":
			return false, f.setFocus(f.focus + 1)
		case "shift+tab":
			return false, f.setFocus(f.focus - 1)
		case "down":
			if !multiline {
				return false, f.setFocus(f.focus + 1)
			}
		case "up":
			if !multiline {
				return false, f.setFocus(f.focus - 1)
			}
		case "ctrl+s":
			return !f.Busy, nil
		case "enter":
			if onButton || (f.focus == len(f.fields)-1 && !multiline) {
				return !f.Busy, nil
			}
			if !multiline {
				return false, f.setFocus(f.focus + 1)
			}
		}
	}

	if f.focus == len(f.fields) {
		return false, nil
	}
	if f.fields[f.focus].Kind == FieldMultiline {
		f.areas[f.focus], cmd = f.areas[f.focus].Update(msg)
	} else {
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	}
	return false, cmd
}

// View renders the form.
func (f *Form) View() string {
	t := f.theme
	var b strings.Builder
	if f.Title != "" {
		b.WriteString(t.Title.Render(f.Title))
		b.WriteString("\n")
	}
	for i, fd := range f.fields {
		label := t.FormLabel
		if i == f.focus {
			label = t.FormLabelFocused
		}
		b.WriteString(label.Render(fd.Label))
		b.WriteString("\n")
		if fd.Kind == FieldMultiline {
			b.WriteString(f.areas[i].View())
		} else {
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n\n")
	}

	button := t.Button
	if f.focus == len(f.fields) {
		button = t.ButtonActive
	}
	text := f.Submit
	if f.Busy {
		text += "..."
	}
	b.WriteString(button.Render(text))
	b.WriteString("  ")
	b.WriteString(t.FormHint.Render("tab next  ctrl+s submit  esc cancel"))

	if f.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(InlineError(t, f.Err))
	}
	return t.FormBox.Width(f.width).Render(b.String())
}
