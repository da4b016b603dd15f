// internal/tui/app.go
//
// This is the terminal frontend for the self assessment questionnaire.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the mounted step's form plus whatever the controller reports
// 2. Update: key presses become controller requests (Next, Back, Restart)
// 3. View: the form, the active step list and the journey log
//
// The controller owns navigation. The App only turns editor state into
// values for the mounted step and re-renders whatever the controller mounted.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/selfassess/internal/logbook"
	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/wizard/controller"
)

const logPanelLines = 6

type keyMap struct {
	Next    key.Binding
	Back    key.Binding
	Field   key.Binding
	Prev    key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Cycle   key.Binding
	Skip    key.Binding
	Restart key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Field:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Cycle:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "choose")),
		Skip:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "skip step")),
		Restart: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "start over")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Field, k.Toggle, k.Cycle, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Skip},
		{k.Field, k.Prev, k.Up, k.Down},
		{k.Toggle, k.Cycle},
		{k.Restart, k.Quit},
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	ctrl    *controller.Controller
	logbook *logbook.Logbook
	keys    keyMap
	help    help.Model

	form      *stepForm
	errs      map[string]string
	statusMsg string

	width  int
	height int
}

// NewApp builds the model around a ready controller.
func NewApp(ctrl *controller.Controller, book *logbook.Logbook) (*App, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("tui: controller is required")
	}
	a := &App{
		ctrl:    ctrl,
		logbook: book,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	a.keys.Skip.SetEnabled(ctrl.CanSkip())
	a.remount()
	a.statusMsg = fmt.Sprintf("Step 1 of %d", len(ctrl.Steps()))
	return a, nil
}

// remount rebuilds the form for whatever the controller has mounted.
func (a *App) remount() {
	a.errs = nil
	mounted := a.ctrl.Mounted()
	if mounted == nil {
		a.form = newStepForm(nil, nil)
		return
	}
	var prefill step.Values
	if p, ok := mounted.(step.Prefiller); ok {
		prefill = p.Prefill(a.ctrl.Context())
	}
	a.form = newStepForm(mounted.Fields(), prefill)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		editor := a.form.current()
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Next):
			a.handleAdvance(a.ctrl.RequestAdvance(a.form.values()))
			return a, nil
		case key.Matches(msg, a.keys.Skip):
			a.handleAdvance(a.ctrl.ForceAdvance())
			return a, nil
		case key.Matches(msg, a.keys.Back):
			adv := a.ctrl.Retreat()
			if adv.Moved {
				a.remount()
				a.statusMsg = a.positionStatus()
			} else {
				a.statusMsg = "Already at the first step"
			}
			return a, nil
		case key.Matches(msg, a.keys.Restart):
			a.ctrl.Restart()
			a.remount()
			a.statusMsg = "Answers cleared"
			return a, nil
		case key.Matches(msg, a.keys.Field):
			a.form.next()
			return a, nil
		case key.Matches(msg, a.keys.Prev):
			a.form.prev()
			return a, nil
		case key.Matches(msg, a.keys.Up):
			if editor == nil || !editor.moveCursor(-1) {
				a.form.prev()
			}
			return a, nil
		case key.Matches(msg, a.keys.Down):
			if editor == nil || !editor.moveCursor(1) {
				a.form.next()
			}
			return a, nil
		case key.Matches(msg, a.keys.Toggle):
			if editor != nil && editor.toggle() {
				return a, nil
			}
		case key.Matches(msg, a.keys.Cycle):
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			if editor != nil && editor.cycle(delta) {
				return a, nil
			}
		case msg.String() == "?":
			if editor == nil || !editor.textual() {
				a.help.ShowAll = !a.help.ShowAll
				return a, nil
			}
		}
		if editor != nil {
			return a, editor.update(msg)
		}
	}

	return a, nil
}

func (a *App) handleAdvance(adv controller.Advance) {
	switch {
	case adv.Finalized:
		a.remount()
		a.statusMsg = "Return finalized and logged. Starting a new return."
	case adv.Moved:
		a.remount()
		a.statusMsg = a.positionStatus()
		if adv.Forced {
			a.statusMsg = fmt.Sprintf("Skipped %s (%s). %s", adv.FromID, adv.Reason, a.statusMsg)
		}
	default:
		a.errs = adv.Errors
		switch adv.Reason {
		case controller.ReasonBlocked:
			a.statusMsg = "This step cannot be submitted yet"
		case controller.ReasonEscapeHatchOff:
			a.statusMsg = "Skipping is turned off for this return"
		default:
			a.statusMsg = fmt.Sprintf("Please fix %d field(s); press enter again quickly to skip", len(adv.Errors))
			if !a.ctrl.CanSkip() {
				a.statusMsg = fmt.Sprintf("Please fix %d field(s)", len(adv.Errors))
			}
		}
	}
}

func (a *App) positionStatus() string {
	return fmt.Sprintf("Step %d of %d", a.ctrl.Position()+1, len(a.ctrl.Steps()))
}

// View renders the UI.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}
	return a.renderBoard(a.renderStep(leftWidth-4), leftWidth, rightWidth)
}

func (a *App) renderStep(width int) string {
	def := a.ctrl.Current()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(def.Title)
	sections := []string{title}

	mounted := a.ctrl.Mounted()
	if mounted == nil {
		note := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).
			Render("This section is not available yet. Press enter to continue.")
		return lipgloss.JoinVertical(lipgloss.Left, title, "", note)
	}
	if desc := mounted.Info().Description; desc != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Render(desc))
	}
	if p, ok := mounted.(step.Previewer); ok {
		sections = append(sections, "", lipgloss.NewStyle().Width(max(20, width)).Render(p.Preview(a.ctrl.Context())))
	}
	if form := a.form.view(a.errs, width); form != "" {
		sections = append(sections, "", form)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderStepList(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("YOUR RETURN · %d%%", a.ctrl.Progress()))
	snap := a.ctrl.Snapshot()
	lines := []string{title}
	for i, def := range a.ctrl.Steps() {
		line := "  " + def.Title
		if snap.Completed[def.ID] {
			line += " ✓"
		}
		if i == a.ctrl.Position() {
			line = lipgloss.NewStyle().Bold(true).Render("▸" + line[1:])
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("£ SELF ASSESSMENT")
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(mainContent)
	body := leftBox
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderStepList(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer, a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
