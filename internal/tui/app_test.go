package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/logbook"
	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/steps"
	"github.com/kingrea/selfassess/internal/wizard/controller"
)

func TestProfileSubmitsAndAdvances(t *testing.T) {
	app, store := newTestApp(t)

	app = typeText(t, app, "Ada Lovelace")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = typeText(t, app, "12345 67890")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = typeText(t, app, "qq123456c")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if got := app.ctrl.Current().ID; got != step.IDIncomeCategories {
		t.Fatalf("expected income categories, got %s (errors %v)", got, app.errs)
	}
	snap := store.Snapshot()
	if got := snap.String(answers.KeyUTR); got != "1234567890" {
		t.Fatalf("utr = %q", got)
	}
	if got := snap.String(answers.KeyTaxYear); got != answers.DefaultTaxYear {
		t.Fatalf("tax year = %q", got)
	}
	if !strings.Contains(app.statusMsg, "Step 2 of 5") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestRejectedSubmitShowsFieldErrors(t *testing.T) {
	app, _ := newTestApp(t)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if got := app.ctrl.Current().ID; got != step.IDProfile {
		t.Fatalf("rejected submit must not move, got %s", got)
	}
	if app.errs[answers.KeyFullName] == "" {
		t.Fatalf("expected full name error, got %v", app.errs)
	}
	view := app.View()
	if !strings.Contains(view, "Full name is required") {
		t.Fatalf("view should show the field error:\n%s", view)
	}
	if !strings.Contains(app.statusMsg, "Please fix 3 field(s)") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestSelectionTogglesResequence(t *testing.T) {
	app, _ := newTestApp(t)
	submitProfile(t, app)

	app = press(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyDown})
	app = press(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	got := idsOf(app.ctrl.Steps())
	want := []string{
		step.IDProfile, step.IDIncomeCategories, step.IDReliefCategories,
		step.IDEmployment, step.IDProperty, step.IDSummary, step.IDFinalization,
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	if !strings.Contains(app.View(), "UK property") {
		t.Fatalf("step list should include the property section:\n%s", app.View())
	}
}

func TestBackRestoresPreviousAnswers(t *testing.T) {
	app, _ := newTestApp(t)
	submitProfile(t, app)

	app = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if got := app.ctrl.Current().ID; got != step.IDProfile {
		t.Fatalf("back should return to profile, got %s", got)
	}
	if got := app.form.values()[answers.KeyFullName]; got != "Ada Lovelace" {
		t.Fatalf("full name should be prefilled, got %v", got)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.statusMsg != "Already at the first step" {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestChoiceCyclesAndWraps(t *testing.T) {
	app, _ := newTestApp(t)
	for i := 0; i < 3; i++ {
		app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	}
	editor := app.form.current()
	if editor.field.Name != answers.KeyTaxYear {
		t.Fatalf("focus = %s", editor.field.Name)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if got := app.form.values()[answers.KeyTaxYear]; got != steps.TaxYears[0] {
		t.Fatalf("tax year should wrap to %s, got %v", steps.TaxYears[0], got)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	if got := app.form.values()[answers.KeyTaxYear]; got != steps.TaxYears[len(steps.TaxYears)-1] {
		t.Fatalf("tax year = %v", got)
	}
}

func TestRestartClearsAnswers(t *testing.T) {
	app, store := newTestApp(t)
	submitProfile(t, app)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})

	if got := app.ctrl.Current().ID; got != step.IDProfile {
		t.Fatalf("restart should return to profile, got %s", got)
	}
	if got := store.Snapshot().String(answers.KeyFullName); got != "" {
		t.Fatalf("answers should be cleared, got %q", got)
	}
	if !strings.Contains(app.View(), "answers reset") {
		t.Fatalf("log panel should show the reset:\n%s", app.View())
	}
}

func TestSkipKeyForcesPastRejectedStep(t *testing.T) {
	app, store := newTestApp(t)
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlF})

	if got := app.ctrl.Current().ID; got != step.IDIncomeCategories {
		t.Fatalf("skip should move on, got %s", got)
	}
	if store.Snapshot().Completed[step.IDProfile] {
		t.Fatalf("skipped step must not be marked complete")
	}
	if !strings.Contains(app.statusMsg, "Skipped profile (forced)") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestSkipKeyDisabledWithoutEscapeHatch(t *testing.T) {
	policy := controller.DefaultPolicy()
	policy.EscapeHatch = false
	policy.MissingContract = controller.MissingContractBlock
	app, store := newTestApp(t, controller.WithPolicy(policy))

	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlF})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if got := app.ctrl.Current().ID; got != step.IDProfile {
		t.Fatalf("nothing should get past profile, got %s", got)
	}
	if store.Snapshot().Completed[step.IDProfile] {
		t.Fatalf("profile must not be marked complete")
	}
	if app.statusMsg != "Please fix 3 field(s)" {
		t.Fatalf("status = %q", app.statusMsg)
	}
	app.help.ShowAll = true
	if strings.Contains(app.View(), "skip step") {
		t.Fatalf("help should not offer skipping:\n%s", app.View())
	}
}

func TestQuitKey(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func newTestApp(t *testing.T, opts ...controller.Option) (*App, *answers.Store) {
	t.Helper()
	store, err := answers.Open(answers.NewMemoryRepository())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	catalog := step.DefaultCatalog()
	reg, err := steps.NewRegistry(catalog)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	book, err := logbook.New(filepath.Join(t.TempDir(), "journey.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	now := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	opts = append([]controller.Option{controller.WithClock(clock), controller.WithLogbook(book)}, opts...)
	ctrl, err := controller.New(store, reg, catalog, opts...)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	app, err := NewApp(ctrl, book)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app, store
}

func submitProfile(t *testing.T, app *App) {
	t.Helper()
	adv := app.ctrl.RequestAdvance(step.Values{
		answers.KeyFullName:          "Ada Lovelace",
		answers.KeyUTR:               "1234567890",
		answers.KeyNationalInsurance: "QQ123456C",
		answers.KeyTaxYear:           "2023-24",
	})
	if !adv.Moved {
		t.Fatalf("profile submit failed: %+v", adv)
	}
	app.handleAdvance(adv)
}

func typeText(t *testing.T, app *App, text string) *App {
	t.Helper()
	return press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(t *testing.T, app *App, msg tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(msg)
	return runCommands(t, model, cmd)
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

func idsOf(defs []step.Definition) []string {
	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}
	return ids
}
