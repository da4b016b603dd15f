package step

import "fmt"

// Validation tags how a step treats its input. Every step must declare one;
// skipping validation is a named choice, never an omission.
type Validation string

const (
	// ValidationRequired steps check their fields and may reject.
	ValidationRequired Validation = "required"
	// NoValidation steps accept any input and always submit.
	NoValidation Validation = "none"
)

// Info describes a step's identity and contract.
type Info struct {
	ID          string
	Title       string
	Description string
	Version     string
	Validation  Validation
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("step: id is required")
	}
	if i.Title == "" {
		return fmt.Errorf("step: title is required for %s", i.ID)
	}
	if i.Version == "" {
		return fmt.Errorf("step: version is required for %s", i.ID)
	}
	switch i.Validation {
	case ValidationRequired, NoValidation:
	case "":
		return fmt.Errorf("step: validation tag is required for %s", i.ID)
	default:
		return fmt.Errorf("step: unknown validation tag %q for %s", i.Validation, i.ID)
	}
	return nil
}

// Values carries raw field input from a frontend: strings for text, number
// and choice fields, bools for toggles and string slices for multi-selects.
type Values map[string]any

// SubmitRequest asks the mounted step to validate and hand back its data.
type SubmitRequest struct {
	Values Values
}

// Status enumerates submit outcomes.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusRejected  Status = "rejected"
)

// Outcome is a step's reply to a SubmitRequest. Submitted carries the
// top-level answer keys to merge; Rejected carries field errors for display.
type Outcome struct {
	Status Status
	Data   map[string]any
	Errors map[string]string
}

// Submitted builds an accepting outcome.
func Submitted(data map[string]any) Outcome {
	return Outcome{Status: StatusSubmitted, Data: data}
}

// Rejected builds a rejecting outcome.
func Rejected(errs map[string]string) Outcome {
	return Outcome{Status: StatusRejected, Errors: errs}
}

// OK reports whether the step accepted its input.
func (o Outcome) OK() bool {
	return o.Status == StatusSubmitted
}

// Step is implemented by every questionnaire screen. Submit must not touch
// the answer store; the controller merges Data once the step accepts.
type Step interface {
	Info() Info
	Fields() []Field
	Submit(ctx *Context, req SubmitRequest) Outcome
}

// Prefiller is implemented by steps that can seed their editors from
// previously stored answers.
type Prefiller interface {
	Prefill(ctx *Context) Values
}

// Previewer is implemented by steps that show read-only content, such as the
// review screen.
type Previewer interface {
	Preview(ctx *Context) string
}
