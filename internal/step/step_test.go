package step

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubStep struct {
	Base
}

func (s *stubStep) Submit(*Context, SubmitRequest) Outcome { return Submitted(nil) }

func newStub(info Info) Factory {
	return func() (Step, error) {
		return &stubStep{Base: NewBase(info)}, nil
	}
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("profile", newStub(Info{ID: "profile", Title: "Profile", Version: "1.0.0", Validation: ValidationRequired}))
	s, err := reg.Resolve("profile")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Info().ID != "profile" {
		t.Fatalf("resolved %s", s.Info().ID)
	}
	if err := reg.Register("profile", newStub(Info{})); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if !reg.Has("profile") || reg.Has("summary") {
		t.Fatalf("Has reported wrong membership")
	}
	if diff := cmp.Diff([]string{"profile"}, reg.IDs()); diff != "" {
		t.Fatalf("IDs (-want +got):\n%s", diff)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	_, err := NewRegistry().Resolve("summary")
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
}

func TestRegistryRejectsInvalidInfo(t *testing.T) {
	cases := map[string]Info{
		"missing validation tag": {ID: "gift-aid", Title: "Gift Aid", Version: "1.0.0"},
		"unknown validation tag": {ID: "gift-aid", Title: "Gift Aid", Version: "1.0.0", Validation: "sometimes"},
		"missing version":        {ID: "gift-aid", Title: "Gift Aid", Validation: NoValidation},
		"id mismatch":            {ID: "summary", Title: "Summary", Version: "1.0.0", Validation: NoValidation},
	}
	for name, info := range cases {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			reg.MustRegister("gift-aid", newStub(info))
			if _, err := reg.Resolve("gift-aid"); err == nil {
				t.Fatalf("expected resolve to fail")
			}
		})
	}
}

func TestDefaultCatalogLayout(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 14 {
		t.Fatalf("catalog size = %d, want 14", c.Len())
	}
	ids := func(defs []Definition) []string {
		out := make([]string, len(defs))
		for i, d := range defs {
			out[i] = d.ID
		}
		return out
	}
	if diff := cmp.Diff([]string{IDProfile, IDIncomeCategories, IDReliefCategories}, ids(c.Lead())); diff != "" {
		t.Fatalf("lead (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{IDSummary, IDFinalization}, ids(c.Tail())); diff != "" {
		t.Fatalf("tail (-want +got):\n%s", diff)
	}
	wantIncome := []string{"employment", "self-employment", "partnership", "property", "foreign-income", "capital-gains"}
	if diff := cmp.Diff(wantIncome, c.Tokens(CategoryIncome)); diff != "" {
		t.Fatalf("income order (-want +got):\n%s", diff)
	}
	wantRelief := []string{"pension-contributions", "gift-aid", "marriage-allowance"}
	if diff := cmp.Diff(wantRelief, c.Tokens(CategoryRelief)); diff != "" {
		t.Fatalf("relief order (-want +got):\n%s", diff)
	}
	def, ok := c.ByToken(CategoryIncome, "property")
	if !ok || def.ID != IDProperty || !def.Optional() {
		t.Fatalf("ByToken(property) = %+v, %v", def, ok)
	}
	if _, ok := c.ByToken(CategoryRelief, "property"); ok {
		t.Fatalf("token lookup must be scoped by category")
	}
}

func TestNewCatalogRejectsBadEntries(t *testing.T) {
	cases := map[string][]Definition{
		"duplicate id":     {{ID: "a", Kind: KindLead}, {ID: "a", Kind: KindTail}},
		"missing token":    {{ID: "a", Kind: KindOptional, Category: CategoryIncome}},
		"missing category": {{ID: "a", Kind: KindOptional, Token: "a"}},
		"duplicate token":  {{ID: "a", Kind: KindOptional, Category: CategoryIncome, Token: "x"}, {ID: "b", Kind: KindOptional, Category: CategoryIncome, Token: "x"}},
		"unknown kind":     {{ID: "a", Kind: "floating"}},
		"missing id":       {{Kind: KindLead}},
	}
	for name, defs := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewCatalog(defs); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
