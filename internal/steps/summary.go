package steps

import (
	"fmt"
	"strings"

	"github.com/kingrea/selfassess/internal/step"
)

type section struct {
	fields []step.Field
	nested bool
}

// Summary shows every answer grouped by the active steps. It never rejects.
type Summary struct {
	step.Base
	sections map[string]section
}

// NewSummary builds the review step. sections describes how to read each
// step's answers back out of the snapshot.
func NewSummary(def step.Definition, sections map[string]section) *Summary {
	return &Summary{
		Base:     step.NewBase(info(def, step.NoValidation, "Check everything before you declare.")),
		sections: sections,
	}
}

// Submit always accepts.
func (s *Summary) Submit(*step.Context, step.SubmitRequest) step.Outcome {
	return step.Submitted(nil)
}

// Preview renders the answers of every active section.
func (s *Summary) Preview(ctx *step.Context) string {
	defs := ctx.Active
	if len(defs) == 0 && ctx.Catalog != nil {
		defs = ctx.Catalog.All()
	}
	var b strings.Builder
	for _, def := range defs {
		sec, ok := s.sections[def.ID]
		if !ok {
			continue
		}
		mark := " "
		if ctx.Answers.Completed[def.ID] {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, def.Title)

		stored := ctx.Answers.Answers
		if sec.nested {
			stored, _ = ctx.Answers.Answers[def.ID].(map[string]any)
		}
		for _, field := range sec.fields {
			value := step.FormatValue(stored[field.Name])
			if value == "" {
				value = "-"
			}
			fmt.Fprintf(&b, "    %s: %s\n", field.Label, value)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
