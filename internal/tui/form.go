package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/selfassess/internal/step"
)

// fieldEditor holds the editing state of one declared field. Text and number
// fields edit through a textinput; the other kinds keep their own state.
type fieldEditor struct {
	field    step.Field
	input    textinput.Model
	checked  bool
	choice   int
	selected map[string]bool
	cursor   int
}

// stepForm renders the fields of the mounted step and collects their values.
type stepForm struct {
	editors []*fieldEditor
	focus   int
}

func newStepForm(fields []step.Field, prefill step.Values) *stepForm {
	form := &stepForm{}
	for _, field := range fields {
		editor := &fieldEditor{field: field, choice: -1, selected: map[string]bool{}}
		value := prefill[field.Name]
		switch field.Kind {
		case step.FieldBool:
			editor.checked, _ = value.(bool)
		case step.FieldChoice:
			if s, ok := value.(string); ok {
				for i, opt := range field.Options {
					if opt.Value == s {
						editor.choice = i
					}
				}
			}
		case step.FieldMulti:
			if tokens, ok := value.([]string); ok {
				for _, token := range tokens {
					editor.selected[token] = true
				}
			}
		default:
			input := textinput.New()
			input.Prompt = ""
			input.Placeholder = field.Help
			input.Cursor.SetMode(cursor.CursorStatic)
			if s, ok := value.(string); ok {
				input.SetValue(s)
			}
			editor.input = input
		}
		form.editors = append(form.editors, editor)
	}
	form.setFocus(0)
	return form
}

func (f *stepForm) empty() bool {
	return len(f.editors) == 0
}

func (f *stepForm) current() *fieldEditor {
	if f.empty() {
		return nil
	}
	return f.editors[f.focus]
}

func (f *stepForm) setFocus(index int) {
	if f.empty() {
		return
	}
	if index < 0 {
		index = len(f.editors) - 1
	}
	if index >= len(f.editors) {
		index = 0
	}
	for i, editor := range f.editors {
		if !editor.textual() {
			continue
		}
		if i == index {
			editor.input.Focus()
		} else {
			editor.input.Blur()
		}
	}
	f.focus = index
}

func (f *stepForm) next() { f.setFocus(f.focus + 1) }
func (f *stepForm) prev() { f.setFocus(f.focus - 1) }

// values collects the raw editor contents; validation belongs to the step.
func (f *stepForm) values() step.Values {
	values := step.Values{}
	for _, editor := range f.editors {
		field := editor.field
		switch field.Kind {
		case step.FieldBool:
			values[field.Name] = editor.checked
		case step.FieldChoice:
			if editor.choice >= 0 {
				values[field.Name] = field.Options[editor.choice].Value
			}
		case step.FieldMulti:
			chosen := []string{}
			for _, opt := range field.Options {
				if editor.selected[opt.Value] {
					chosen = append(chosen, opt.Value)
				}
			}
			values[field.Name] = chosen
		default:
			values[field.Name] = editor.input.Value()
		}
	}
	return values
}

func (e *fieldEditor) textual() bool {
	switch e.field.Kind {
	case step.FieldBool, step.FieldChoice, step.FieldMulti:
		return false
	default:
		return true
	}
}

// toggle flips a bool field or the highlighted option of a multi field.
func (e *fieldEditor) toggle() bool {
	switch e.field.Kind {
	case step.FieldBool:
		e.checked = !e.checked
		return true
	case step.FieldMulti:
		if len(e.field.Options) == 0 {
			return false
		}
		value := e.field.Options[e.cursor].Value
		e.selected[value] = !e.selected[value]
		return true
	}
	return false
}

// cycle moves a choice field by delta, wrapping around.
func (e *fieldEditor) cycle(delta int) bool {
	if e.field.Kind != step.FieldChoice || len(e.field.Options) == 0 {
		return false
	}
	n := len(e.field.Options)
	e.choice = ((e.choice+delta)%n + n) % n
	return true
}

// moveCursor walks the options of a multi field. It reports false at the
// edges so focus can move on to the neighbouring field.
func (e *fieldEditor) moveCursor(delta int) bool {
	if e.field.Kind != step.FieldMulti {
		return false
	}
	next := e.cursor + delta
	if next < 0 || next >= len(e.field.Options) {
		return false
	}
	e.cursor = next
	return true
}

func (e *fieldEditor) update(msg tea.Msg) tea.Cmd {
	if !e.textual() {
		return nil
	}
	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return cmd
}

func (f *stepForm) view(errs map[string]string, width int) string {
	if f.empty() {
		return ""
	}
	labelStyle := lipgloss.NewStyle().Bold(true)
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	var blocks []string
	for i, editor := range f.editors {
		field := editor.field
		focused := i == f.focus
		label := field.Label
		if field.Required {
			label += " *"
		}
		if focused {
			label = focusStyle.Render("▸ " + label)
		} else {
			label = labelStyle.Render("  " + label)
		}
		lines := []string{label}
		lines = append(lines, "    "+editor.render(focused))
		if field.Help != "" && !editor.textual() {
			lines = append(lines, "    "+helpStyle.Render(field.Help))
		}
		if msg, ok := errs[field.Name]; ok {
			lines = append(lines, "    "+errStyle.Render(fmt.Sprintf("%s %s", field.Label, msg)))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(blocks, "\n\n"))
}

func (e *fieldEditor) render(focused bool) string {
	switch e.field.Kind {
	case step.FieldBool:
		if e.checked {
			return "[x] yes"
		}
		return "[ ] no"
	case step.FieldChoice:
		if e.choice < 0 {
			return "‹ choose ›"
		}
		return fmt.Sprintf("‹ %s ›", e.field.Options[e.choice].Label)
	case step.FieldMulti:
		rows := make([]string, len(e.field.Options))
		for i, opt := range e.field.Options {
			mark := "[ ]"
			if e.selected[opt.Value] {
				mark = "[x]"
			}
			pointer := " "
			if focused && i == e.cursor {
				pointer = ">"
			}
			rows[i] = fmt.Sprintf("%s %s %s", pointer, mark, opt.Label)
		}
		return strings.Join(rows, "\n    ")
	default:
		return e.input.View()
	}
}
