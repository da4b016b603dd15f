package sequencer

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/selfassess/internal/step"
)

func TestSequenceCanonicalOrdering(t *testing.T) {
	got := IDs(Sequence(step.DefaultCatalog(), []string{"property", "employment"}, nil))
	want := []string{
		step.IDProfile,
		step.IDIncomeCategories,
		step.IDReliefCategories,
		step.IDEmployment,
		step.IDProperty,
		step.IDSummary,
		step.IDFinalization,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sequence (-want +got):\n%s", diff)
	}
}

func TestSequenceWithoutSelections(t *testing.T) {
	got := IDs(Sequence(step.DefaultCatalog(), nil, nil))
	want := []string{step.IDProfile, step.IDIncomeCategories, step.IDReliefCategories, step.IDSummary, step.IDFinalization}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sequence (-want +got):\n%s", diff)
	}
}

func TestSequenceFullCatalog(t *testing.T) {
	catalog := step.DefaultCatalog()
	income := catalog.Tokens(step.CategoryIncome)
	relief := catalog.Tokens(step.CategoryRelief)
	got := IDs(Sequence(catalog, income, relief))
	if diff := cmp.Diff(IDs(catalog.All()), got); diff != "" {
		t.Fatalf("selecting everything should reproduce catalog order (-want +got):\n%s", diff)
	}
}

func TestSequenceIsOrderIndependentAndCountsSelections(t *testing.T) {
	catalog := step.DefaultCatalog()
	incomeTokens := catalog.Tokens(step.CategoryIncome)
	reliefTokens := catalog.Tokens(step.CategoryRelief)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		income := subset(rng, incomeTokens)
		relief := subset(rng, reliefTokens)
		base := Sequence(catalog, income, relief)

		if len(base) != 3+len(income)+len(relief)+2 {
			t.Fatalf("len = %d for income=%v relief=%v", len(base), income, relief)
		}
		assertLayout(t, base)

		shuffledIncome := shuffled(rng, income)
		shuffledRelief := shuffled(rng, relief)
		again := Sequence(catalog, shuffledIncome, shuffledRelief)
		if diff := cmp.Diff(IDs(base), IDs(again)); diff != "" {
			t.Fatalf("order dependence for %v/%v vs %v/%v (-first +second):\n%s", income, relief, shuffledIncome, shuffledRelief, diff)
		}
	}
}

func TestSequenceIgnoresDuplicatesAndUnknownTokens(t *testing.T) {
	catalog := step.DefaultCatalog()
	income := []string{"property", "lottery", "property", "employment"}
	relief := []string{"gift-aid", "gift-aid", "employment"}
	got := IDs(Sequence(catalog, income, relief))
	want := []string{
		step.IDProfile, step.IDIncomeCategories, step.IDReliefCategories,
		step.IDEmployment, step.IDProperty, step.IDGiftAid,
		step.IDSummary, step.IDFinalization,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sequence (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"lottery"}, Unknown(catalog, step.CategoryIncome, income)); diff != "" {
		t.Fatalf("unknown income (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"employment"}, Unknown(catalog, step.CategoryRelief, relief)); diff != "" {
		t.Fatalf("unknown relief (-want +got):\n%s", diff)
	}
}

func TestIndexOf(t *testing.T) {
	defs := Sequence(step.DefaultCatalog(), []string{"property"}, nil)
	if got := IndexOf(defs, step.IDProperty); got != 3 {
		t.Fatalf("IndexOf(property) = %d, want 3", got)
	}
	if got := IndexOf(defs, step.IDGiftAid); got != -1 {
		t.Fatalf("IndexOf(gift-aid) = %d, want -1", got)
	}
}

func assertLayout(t *testing.T, defs []step.Definition) {
	t.Helper()
	ids := IDs(defs)
	n := len(ids)
	if ids[0] != step.IDProfile || ids[1] != step.IDIncomeCategories || ids[2] != step.IDReliefCategories {
		t.Fatalf("lead steps out of place: %v", ids)
	}
	if ids[n-2] != step.IDSummary || ids[n-1] != step.IDFinalization {
		t.Fatalf("tail steps out of place: %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("%s appears twice in %v", id, ids)
		}
		seen[id] = true
	}
}

func subset(rng *rand.Rand, tokens []string) []string {
	var out []string
	for _, token := range tokens {
		if rng.Intn(2) == 0 {
			out = append(out, token)
		}
	}
	return shuffled(rng, out)
}

func shuffled(rng *rand.Rand, tokens []string) []string {
	out := append([]string(nil), tokens...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
