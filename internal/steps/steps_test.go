package steps

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/wizard/sequencer"
)

func newContext(snap answers.Snapshot) *step.Context {
	return step.NewContext(nil, nil, step.DefaultCatalog(), snap)
}

func resolve(t *testing.T, id string) step.Step {
	t.Helper()
	reg, err := NewRegistry(step.DefaultCatalog())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	s, err := reg.Resolve(id)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", id, err)
	}
	return s
}

func TestRegistryCoversCatalog(t *testing.T) {
	catalog := step.DefaultCatalog()
	reg, err := NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for _, def := range catalog.All() {
		s, err := reg.Resolve(def.ID)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", def.ID, err)
		}
		want := step.ValidationRequired
		if def.Kind == step.KindTail {
			want = step.NoValidation
		}
		if got := s.Info().Validation; got != want {
			t.Fatalf("%s validation = %s, want %s", def.ID, got, want)
		}
	}
	if len(reg.IDs()) != catalog.Len() {
		t.Fatalf("registered %d steps, catalog has %d", len(reg.IDs()), catalog.Len())
	}
}

func TestProfileSubmit(t *testing.T) {
	profile := resolve(t, step.IDProfile)
	ctx := newContext(answers.Snapshot{})

	rejected := profile.Submit(ctx, step.SubmitRequest{Values: step.Values{
		answers.KeyFullName: "Ada Lovelace",
		answers.KeyUTR:      "12345",
		answers.KeyTaxYear:  "2023-24",
	}})
	if rejected.OK() {
		t.Fatalf("expected rejection")
	}
	if diff := cmp.Diff([]string{answers.KeyNationalInsurance, answers.KeyUTR}, sortedKeys(rejected.Errors)); diff != "" {
		t.Fatalf("error fields (-want +got):\n%s", diff)
	}
	if rejected.Data != nil {
		t.Fatalf("rejected outcome must not carry data")
	}

	accepted := profile.Submit(ctx, step.SubmitRequest{Values: step.Values{
		answers.KeyFullName:          "Ada Lovelace",
		answers.KeyUTR:               "12345 67890",
		answers.KeyNationalInsurance: "qq 12 34 56 c",
		answers.KeyTaxYear:           "2023-24",
	}})
	if !accepted.OK() {
		t.Fatalf("expected acceptance, got %v", accepted.Errors)
	}
	want := map[string]any{
		answers.KeyFullName:          "Ada Lovelace",
		answers.KeyUTR:               "1234567890",
		answers.KeyNationalInsurance: "QQ123456C",
		answers.KeyTaxYear:           "2023-24",
	}
	if diff := cmp.Diff(want, accepted.Data); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
}

func TestSelectionSubmit(t *testing.T) {
	income := resolve(t, step.IDIncomeCategories)
	ctx := newContext(answers.Snapshot{})

	out := income.Submit(ctx, step.SubmitRequest{Values: step.Values{
		answers.KeyIncomeCategories: []string{"property", "employment"},
	}})
	if !out.OK() {
		t.Fatalf("expected acceptance, got %v", out.Errors)
	}
	if diff := cmp.Diff([]string{"property", "employment"}, out.Data[answers.KeyIncomeCategories]); diff != "" {
		t.Fatalf("selection should keep chosen order (-want +got):\n%s", diff)
	}

	out = income.Submit(ctx, step.SubmitRequest{Values: step.Values{
		answers.KeyIncomeCategories: []string{"gift-aid"},
	}})
	if out.OK() {
		t.Fatalf("relief token must be rejected by the income selection")
	}

	out = income.Submit(ctx, step.SubmitRequest{})
	if !out.OK() {
		t.Fatalf("empty selection should be accepted")
	}
	if diff := cmp.Diff([]string{}, out.Data[answers.KeyIncomeCategories]); diff != "" {
		t.Fatalf("empty selection should clear the list (-want +got):\n%s", diff)
	}

	relief := resolve(t, step.IDReliefCategories).(*Selection)
	if relief.Key() != answers.KeyReliefCategories {
		t.Fatalf("relief key = %s", relief.Key())
	}
}

func TestDetailSubmitNestsUnderStepID(t *testing.T) {
	property := resolve(t, step.IDProperty)
	out := property.Submit(newContext(answers.Snapshot{}), step.SubmitRequest{Values: step.Values{
		"properties":   "2",
		"rentalIncome": "14,400",
		"jointlyOwned": true,
	}})
	if !out.OK() {
		t.Fatalf("expected acceptance, got %v", out.Errors)
	}
	want := map[string]any{
		step.IDProperty: map[string]any{"properties": 2.0, "rentalIncome": 14400.0, "jointlyOwned": true},
	}
	if diff := cmp.Diff(want, out.Data); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}

	out = property.Submit(newContext(answers.Snapshot{}), step.SubmitRequest{Values: step.Values{"properties": "two"}})
	if out.OK() || out.Errors["properties"] == "" || out.Errors["rentalIncome"] == "" {
		t.Fatalf("expected field errors, got %+v", out)
	}
}

func TestPrefillReadsStoredAnswers(t *testing.T) {
	snap := answers.Snapshot{Answers: map[string]any{
		answers.KeyFullName:         "Ada",
		answers.KeyIncomeCategories: []any{"employment"},
		step.IDEmployment:           map[string]any{"employer": "Acme", "pay": 30000.0, "director": true},
	}}
	ctx := newContext(snap)

	got := resolve(t, step.IDProfile).(step.Prefiller).Prefill(ctx)
	if diff := cmp.Diff(step.Values{answers.KeyFullName: "Ada"}, got); diff != "" {
		t.Fatalf("profile prefill (-want +got):\n%s", diff)
	}
	got = resolve(t, step.IDIncomeCategories).(step.Prefiller).Prefill(ctx)
	if diff := cmp.Diff(step.Values{answers.KeyIncomeCategories: []string{"employment"}}, got); diff != "" {
		t.Fatalf("selection prefill (-want +got):\n%s", diff)
	}
	got = resolve(t, step.IDEmployment).(step.Prefiller).Prefill(ctx)
	want := step.Values{"employer": "Acme", "pay": "30000", "director": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("detail prefill (-want +got):\n%s", diff)
	}
}

func TestSummaryPreviewFollowsActiveSteps(t *testing.T) {
	catalog := step.DefaultCatalog()
	snap := answers.Snapshot{
		Answers: map[string]any{
			answers.KeyFullName:         "Ada",
			answers.KeyIncomeCategories: []any{"property"},
			step.IDProperty:             map[string]any{"rentalIncome": 900.0},
			step.IDGiftAid:              map[string]any{"donations": 50.0},
		},
		Completed: map[string]bool{step.IDProfile: true},
	}
	ctx := newContext(snap).WithActive(sequencer.Sequence(catalog, []string{"property"}, nil))

	summary := resolve(t, step.IDSummary)
	if !summary.Submit(ctx, step.SubmitRequest{}).OK() {
		t.Fatalf("summary must always submit")
	}
	preview := summary.(step.Previewer).Preview(ctx)
	for _, want := range []string{"✓ Your details", "Full name: Ada", "UK property", "Total rents received: 900"} {
		if !strings.Contains(preview, want) {
			t.Fatalf("preview missing %q:\n%s", want, preview)
		}
	}
	if strings.Contains(preview, "Gift Aid") {
		t.Fatalf("inactive sections must not be previewed:\n%s", preview)
	}
}

func TestFinalizationPreview(t *testing.T) {
	snap := answers.Snapshot{Answers: map[string]any{answers.KeyFullName: "Ada", answers.KeyTaxYear: "2023-24"}}
	final := resolve(t, step.IDFinalization)
	if !final.Submit(newContext(snap), step.SubmitRequest{}).OK() {
		t.Fatalf("finalization must always submit")
	}
	preview := final.(step.Previewer).Preview(newContext(snap))
	if !strings.Contains(preview, "Ada") || !strings.Contains(preview, "2023-24") {
		t.Fatalf("preview = %q", preview)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
