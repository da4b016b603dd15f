package steps

import (
	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/step"
)

// Selection lets the user pick which income or relief categories apply.
// The chosen tokens drive which detail steps follow.
type Selection struct {
	step.Base
	key string
}

// NewSelection builds a multi-select over the catalog tokens of category.
func NewSelection(def step.Definition, catalog *step.Catalog, category step.Category) *Selection {
	key := answers.KeyIncomeCategories
	label := "Which kinds of income did you have?"
	if category == step.CategoryRelief {
		key = answers.KeyReliefCategories
		label = "Which reliefs or allowances do you want to claim?"
	}
	var options []step.Option
	for _, opt := range catalog.Optional(category) {
		options = append(options, step.Option{Value: opt.Token, Label: opt.Title})
	}
	return &Selection{
		Base: step.NewBase(
			info(def, step.ValidationRequired, "Pick every category that applies. Each adds a section."),
			step.Field{Name: key, Label: label, Kind: step.FieldMulti, Options: options},
		),
		key: key,
	}
}

// Key returns the answer key holding the selection list.
func (s *Selection) Key() string {
	return s.key
}

// Submit rejects tokens outside the catalog and stores the list as chosen.
func (s *Selection) Submit(_ *step.Context, req step.SubmitRequest) step.Outcome {
	data, errs := step.ValidateFields(s.Fields(), req.Values)
	if errs != nil {
		return step.Rejected(errs)
	}
	if _, ok := data[s.key]; !ok {
		data[s.key] = []string{}
	}
	return step.Submitted(data)
}

// Prefill implements step.Prefiller.
func (s *Selection) Prefill(ctx *step.Context) step.Values {
	return prefill(s.Fields(), ctx.Answers.Answers)
}
