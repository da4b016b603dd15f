// Package steps holds the questionnaire screens. Every catalog entry gets a
// factory here; all of them are built from declared fields so frontends can
// render them without knowing the step.
package steps

import (
	"fmt"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/step"
)

const version = "1.0.0"

// Register installs a factory for every step in catalog.
func Register(reg *step.Registry, catalog *step.Catalog) error {
	sections := map[string]section{}
	factories := map[string]step.Factory{}

	for _, def := range catalog.All() {
		def := def
		var factory step.Factory
		switch {
		case def.ID == step.IDProfile:
			factory = func() (step.Step, error) { return NewProfile(def), nil }
		case def.ID == step.IDIncomeCategories:
			factory = func() (step.Step, error) { return NewSelection(def, catalog, step.CategoryIncome), nil }
		case def.ID == step.IDReliefCategories:
			factory = func() (step.Step, error) { return NewSelection(def, catalog, step.CategoryRelief), nil }
		case def.Optional():
			fields, ok := detailFields[def.ID]
			if !ok {
				return fmt.Errorf("steps: no fields declared for %s", def.ID)
			}
			factory = func() (step.Step, error) { return NewDetail(def, fields...), nil }
		default:
			continue
		}
		built, err := factory()
		if err != nil {
			return err
		}
		sections[def.ID] = section{fields: built.Fields(), nested: def.Optional()}
		factories[def.ID] = factory
	}

	for _, def := range catalog.Tail() {
		def := def
		switch def.ID {
		case step.IDSummary:
			factories[def.ID] = func() (step.Step, error) { return NewSummary(def, sections), nil }
		case step.IDFinalization:
			factories[def.ID] = func() (step.Step, error) { return NewFinalization(def), nil }
		}
	}

	for _, def := range catalog.All() {
		factory, ok := factories[def.ID]
		if !ok {
			continue
		}
		if err := reg.Register(def.ID, factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with every step of catalog installed.
func NewRegistry(catalog *step.Catalog) (*step.Registry, error) {
	reg := step.NewRegistry()
	if err := Register(reg, catalog); err != nil {
		return nil, err
	}
	return reg, nil
}

func info(def step.Definition, validation step.Validation, description string) step.Info {
	return step.Info{
		ID:          def.ID,
		Title:       def.Title,
		Description: description,
		Version:     version,
		Validation:  validation,
	}
}

// prefill copies the stored answers named by fields into editor values.
func prefill(fields []step.Field, stored map[string]any) step.Values {
	values := step.Values{}
	for _, field := range fields {
		value, ok := stored[field.Name]
		if !ok || value == nil {
			continue
		}
		switch field.Kind {
		case step.FieldBool:
			if b, ok := value.(bool); ok {
				values[field.Name] = b
			}
		case step.FieldMulti:
			values[field.Name] = answers.Tokens(value)
		default:
			values[field.Name] = step.FormatValue(value)
		}
	}
	return values
}
