package steps

import (
	"fmt"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/step"
)

// Finalization is the closing declaration. Advancing past it finalizes the
// run: the controller journals the snapshot and clears the store.
type Finalization struct {
	step.Base
}

// NewFinalization builds the declaration step.
func NewFinalization(def step.Definition) *Finalization {
	return &Finalization{Base: step.NewBase(
		info(def, step.NoValidation, "Confirm to record your return locally and clear saved answers."),
	)}
}

// Submit always accepts.
func (f *Finalization) Submit(*step.Context, step.SubmitRequest) step.Outcome {
	return step.Submitted(nil)
}

// Preview describes what confirming does.
func (f *Finalization) Preview(ctx *step.Context) string {
	name := ctx.Answers.String(answers.KeyFullName)
	if name == "" {
		name = "the taxpayer"
	}
	year := ctx.Answers.String(answers.KeyTaxYear)
	return fmt.Sprintf(
		"I declare that the information given for %s for the %s tax year is correct and complete.\n"+
			"Confirming writes the answers to the journey log and clears this session.",
		name, year,
	)
}
