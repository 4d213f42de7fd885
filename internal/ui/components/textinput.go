package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/ui/theme"
)

// Field is a labelled text input.
type Field struct {
	Label       string
	Model       textinput.Model
	NumericOnly bool
}

// NewField creates an unfocused field.
func NewField(label, placeholder string, limit int) Field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if limit > 0 {
		ti.CharLimit = limit
	}
	return Field{Label: label, Model: ti}
}

// NewPasswordField creates a field that masks its input.
func NewPasswordField(label string) Field {
	f := NewField(label, "", 128)
	f.Model.EchoMode = textinput.EchoPassword
	f.Model.EchoCharacter = '•'
	return f
}

func (f Field) Update(msg tea.Msg) (Field, tea.Cmd) {
	if f.NumericOnly {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			if key := kmsg.String(); len(key) == 1 && (key[0] < '0' || key[0] > '9') {
				return f, nil
			}
		}
	}
	var cmd tea.Cmd
	f.Model, cmd = f.Model.Update(msg)
	return f, cmd
}

func (f Field) View() string {
	label := theme.Label.Render(f.Label)
	if f.Model.Focused() {
		label = theme.Selected.Render(f.Label)
	}
	return label + "\n" + f.Model.View()
}

// Value returns the trimmed input.
func (f Field) Value() string {
	return strings.TrimSpace(f.Model.Value())
}

// IntValue parses the input as an integer.
func (f Field) IntValue() (int, error) {
	return strconv.Atoi(f.Value())
}

// Form is an ordered set of fields followed by a submit button. Tab and
// the arrow keys move focus; the button is focused after the last field.
type Form struct {
	Fields []Field
	Submit Button
	focus  int
}

func NewForm(submit string, fields ...Field) Form {
	f := Form{Fields: fields, Submit: Button{Label: submit}}
	f.setFocus(0)
	return f
}

// Focus returns the index of the focused field, or len(Fields) when the
// submit button is focused.
func (f Form) Focus() int { return f.focus }

// OnSubmit reports whether the submit button is focused.
func (f Form) OnSubmit() bool { return f.focus == len(f.Fields) }

func (f *Form) setFocus(i int) tea.Cmd {
	f.focus = min(max(i, 0), len(f.Fields))
	var cmd tea.Cmd
	for j := range f.Fields {
		if j == f.focus {
			cmd = f.Fields[j].Model.Focus()
		} else {
			f.Fields[j].Model.Blur()
		}
	}
	f.Submit.Focused = f.OnSubmit()
	return cmd
}

// Init focuses the first field.
func (f *Form) Init() tea.Cmd {
	return f.setFocus(f.focus)
}

// Update moves focus on navigation keys and forwards everything else to
// the focused field. Enter on the submit button is left to the caller.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "tab", "down":
			return f, f.setFocus((f.focus + 1) % (len(f.Fields) + 1))
		case "shift+tab", "up":
			return f, f.setFocus((f.focus + len(f.Fields)) % (len(f.Fields) + 1))
		case "enter":
			if !f.OnSubmit() {
				return f, f.setFocus(f.focus + 1)
			}
			return f, nil
		}
	}
	if f.OnSubmit() {
		return f, nil
	}
	var cmd tea.Cmd
	f.Fields[f.focus], cmd = f.Fields[f.focus].Update(msg)
	return f, cmd
}

// Set fills field i with v.
func (f *Form) Set(i int, v string) {
	f.Fields[i].Model.SetValue(v)
}

// Value returns the trimmed value of field i.
func (f Form) Value(i int) string {
	return f.Fields[i].Value()
}

func (f Form) View() string {
	var b strings.Builder
	for _, field := range f.Fields {
		b.WriteString(field.View())
		b.WriteString("\n\n")
	}
	b.WriteString(f.Submit.View())
	return b.String()
}
