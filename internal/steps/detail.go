package steps

import "github.com/kingrea/selfassess/internal/step"

// Detail is the screen for one optional category. Its answers are stored as
// a nested record under the step id.
type Detail struct {
	step.Base
}

// NewDetail builds a detail step for def with the given fields.
func NewDetail(def step.Definition, fields ...step.Field) *Detail {
	return &Detail{Base: step.NewBase(
		info(def, step.ValidationRequired, "Figures for the tax year, rounded to the nearest pound."),
		fields...,
	)}
}

// Submit validates the declared fields and wraps them under the step id.
func (d *Detail) Submit(_ *step.Context, req step.SubmitRequest) step.Outcome {
	data, errs := step.ValidateFields(d.Fields(), req.Values)
	if errs != nil {
		return step.Rejected(errs)
	}
	return step.Submitted(map[string]any{d.Info().ID: data})
}

// Prefill implements step.Prefiller.
func (d *Detail) Prefill(ctx *step.Context) step.Values {
	stored, _ := ctx.Answers.Answers[d.Info().ID].(map[string]any)
	return prefill(d.Fields(), stored)
}

func money(name, label string, required bool) step.Field {
	return step.Field{Name: name, Label: label, Kind: step.FieldNumber, Required: required, Help: "£"}
}

var detailFields = map[string][]step.Field{
	step.IDEmployment: {
		{Name: "employer", Label: "Employer name", Kind: step.FieldText, Required: true},
		{Name: "payeReference", Label: "Employer PAYE reference", Kind: step.FieldText, Pattern: `^\d{3}/[A-Z0-9]{1,10}$`, PatternHint: "123/AB456", Normalize: upperNoSpaces},
		money("pay", "Pay from this employment", true),
		money("taxDeducted", "UK tax taken off pay", true),
		{Name: "director", Label: "Company director", Kind: step.FieldBool},
	},
	step.IDSelfEmployment: {
		{Name: "businessName", Label: "Business name", Kind: step.FieldText, Required: true},
		money("turnover", "Turnover", true),
		money("expenses", "Allowable expenses", true),
		{Name: "cashBasis", Label: "Using cash basis", Kind: step.FieldBool},
	},
	step.IDPartnership: {
		{Name: "partnershipName", Label: "Partnership name", Kind: step.FieldText, Required: true},
		{Name: "partnershipUTR", Label: "Partnership UTR", Kind: step.FieldText, Required: true, Pattern: `^\d{10}$`, PatternHint: "10 digits", Normalize: stripSpaces},
		{Name: "profitShare", Label: "Your share of profit or loss", Kind: step.FieldNumber, Required: true, AllowNegative: true, Help: "£"},
	},
	step.IDProperty: {
		{Name: "properties", Label: "Number of properties let", Kind: step.FieldNumber, Required: true},
		money("rentalIncome", "Total rents received", true),
		money("expenses", "Allowable property expenses", false),
		{Name: "jointlyOwned", Label: "Jointly owned", Kind: step.FieldBool},
	},
	step.IDForeignIncome: {
		{Name: "country", Label: "Country", Kind: step.FieldText, Required: true},
		money("amount", "Income before foreign tax", true),
		money("foreignTaxPaid", "Foreign tax paid", false),
	},
	step.IDCapitalGains: {
		{Name: "disposals", Label: "Number of disposals", Kind: step.FieldNumber, Required: true},
		money("proceeds", "Disposal proceeds", true),
		money("allowableCosts", "Allowable costs", true),
		{Name: "residential", Label: "Includes residential property", Kind: step.FieldBool},
	},
	step.IDPensions: {
		{
			Name: "scheme", Label: "Scheme type", Kind: step.FieldChoice, Required: true,
			Options: []step.Option{
				{Value: "relief-at-source", Label: "Relief at source"},
				{Value: "net-pay", Label: "Net pay arrangement"},
				{Value: "retirement-annuity", Label: "Retirement annuity contract"},
			},
		},
		money("contributions", "Contributions paid", true),
	},
	step.IDGiftAid: {
		money("donations", "Gift Aid donations", true),
		money("oneOff", "Of which one-off payments", false),
		{Name: "carryBack", Label: "Treat some as paid last year", Kind: step.FieldBool},
	},
	step.IDMarriageAllowance: {
		{
			Name: "role", Label: "Are you transferring or receiving", Kind: step.FieldChoice, Required: true,
			Options: []step.Option{
				{Value: "transferring", Label: "Transferring allowance"},
				{Value: "receiving", Label: "Receiving allowance"},
			},
		},
		{Name: "partnerName", Label: "Partner's full name", Kind: step.FieldText, Required: true},
		{Name: "partnerNI", Label: "Partner's National Insurance number", Kind: step.FieldText, Required: true, Pattern: `^[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]$`, PatternHint: "two letters, six digits and A-D", Normalize: upperNoSpaces},
	},
}
