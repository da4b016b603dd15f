package steps

import (
	"strings"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/step"
)

// TaxYears lists the years a return can be prepared for.
var TaxYears = []string{"2021-22", "2022-23", "2023-24", "2024-25"}

// Profile collects the taxpayer's identity. Its answers live at the top
// level of the snapshot.
type Profile struct {
	step.Base
}

// NewProfile builds the profile step for def.
func NewProfile(def step.Definition) *Profile {
	years := make([]step.Option, len(TaxYears))
	for i, year := range TaxYears {
		years[i] = step.Option{Value: year, Label: "6 April " + year}
	}
	return &Profile{Base: step.NewBase(
		info(def, step.ValidationRequired, "Who is filing and for which year."),
		step.Field{Name: answers.KeyFullName, Label: "Full name", Kind: step.FieldText, Required: true},
		step.Field{
			Name:        answers.KeyUTR,
			Label:       "Unique Taxpayer Reference",
			Help:        "10 digits, found on letters from HMRC",
			Kind:        step.FieldText,
			Required:    true,
			Pattern:     `^\d{10}$`,
			PatternHint: "10 digits",
			Normalize:   stripSpaces,
		},
		step.Field{
			Name:        answers.KeyNationalInsurance,
			Label:       "National Insurance number",
			Help:        "e.g. QQ123456C",
			Kind:        step.FieldText,
			Required:    true,
			Pattern:     `^[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]$`,
			PatternHint: "two letters, six digits and A-D",
			Normalize:   upperNoSpaces,
		},
		step.Field{Name: answers.KeyTaxYear, Label: "Tax year", Kind: step.FieldChoice, Required: true, Options: years},
	)}
}

// Submit validates the identity fields.
func (p *Profile) Submit(_ *step.Context, req step.SubmitRequest) step.Outcome {
	data, errs := step.ValidateFields(p.Fields(), req.Values)
	if errs != nil {
		return step.Rejected(errs)
	}
	return step.Submitted(data)
}

// Prefill implements step.Prefiller.
func (p *Profile) Prefill(ctx *step.Context) step.Values {
	return prefill(p.Fields(), ctx.Answers.Answers)
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func upperNoSpaces(s string) string {
	return strings.ToUpper(stripSpaces(s))
}
