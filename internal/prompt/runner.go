// Package prompt is the line-mode frontend. It walks the same controller as
// the full screen TUI, asking one survey prompt per field.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/wizard/controller"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrStuck is returned when a step cannot be passed and the user declined
	// to skip it.
	ErrStuck = errors.New("prompt: step cannot be completed")
)

// Runner asks the mounted step's fields until the run finalizes.
type Runner struct {
	ctrl   *controller.Controller
	driver Driver

	retryID string
	retry   step.Values
}

// NewRunner binds a driver to a controller.
func NewRunner(ctrl *controller.Controller, driver Driver) (*Runner, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("prompt: controller is required")
	}
	if driver == nil {
		return nil, fmt.Errorf("prompt: driver is required")
	}
	return &Runner{ctrl: ctrl, driver: driver}, nil
}

// Run loops until the final step is confirmed, the context ends or the user
// aborts.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := r.visit(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) visit(ctx context.Context) (bool, error) {
	def := r.ctrl.Current()
	steps := r.ctrl.Steps()
	header := fmt.Sprintf("\n[%d/%d] %s · %d%% complete", r.ctrl.Position()+1, len(steps), def.Title, r.ctrl.Progress())
	if err := r.driver.Info(ctx, header); err != nil {
		return false, err
	}

	mounted := r.ctrl.Mounted()
	if mounted == nil {
		return r.advance(ctx, r.ctrl.RequestAdvance(nil))
	}
	if desc := mounted.Info().Description; desc != "" {
		if err := r.driver.Info(ctx, desc); err != nil {
			return false, err
		}
	}
	if p, ok := mounted.(step.Previewer); ok {
		if err := r.driver.Info(ctx, p.Preview(r.ctrl.Context())); err != nil {
			return false, err
		}
	}

	fields := mounted.Fields()
	if len(fields) == 0 {
		proceed, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Continue?", Default: true})
		if err != nil {
			return false, err
		}
		if !proceed {
			r.ctrl.Retreat()
			return false, nil
		}
		return r.advance(ctx, r.ctrl.RequestAdvance(nil))
	}

	defaults := step.Values{}
	if p, ok := mounted.(step.Prefiller); ok {
		defaults = p.Prefill(r.ctrl.Context())
	}
	if r.retryID == def.ID {
		for k, v := range r.retry {
			defaults[k] = v
		}
	}
	values, err := r.ask(ctx, fields, defaults)
	if err != nil {
		return false, err
	}
	adv := r.ctrl.RequestAdvance(values)
	if !adv.Moved {
		r.retryID, r.retry = def.ID, values
	} else {
		r.retryID, r.retry = "", nil
	}
	return r.advance(ctx, adv)
}

// advance reports a controller outcome. A step that held its position gets
// the field errors printed and an offer to skip it.
func (r *Runner) advance(ctx context.Context, adv controller.Advance) (bool, error) {
	if adv.Finalized {
		return true, r.driver.Info(ctx, "Return finalized. The answers were written to the journey log.")
	}
	if adv.Moved {
		if adv.Forced {
			return false, r.driver.Info(ctx, fmt.Sprintf("Skipped %s (%s).", adv.FromID, adv.Reason))
		}
		return false, nil
	}

	if len(adv.Errors) > 0 {
		if err := r.driver.Info(ctx, formatErrors(r.ctrl.Mounted(), adv.Errors)); err != nil {
			return false, err
		}
	}
	if !r.ctrl.CanSkip() {
		return false, r.stuck(adv)
	}
	message := "Skip this step anyway?"
	if adv.Reason == controller.ReasonBlocked {
		message = "This section is not available yet. Skip it?"
	}
	skip, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message})
	if err != nil {
		return false, err
	}
	if skip {
		r.retryID, r.retry = "", nil
		return r.advance(ctx, r.ctrl.ForceAdvance())
	}
	return false, r.stuck(adv)
}

// stuck is nil for a rejected step, which is simply asked again.
func (r *Runner) stuck(adv controller.Advance) error {
	switch adv.Reason {
	case controller.ReasonBlocked, controller.ReasonEscapeHatchOff:
		return fmt.Errorf("%w: %s", ErrStuck, adv.FromID)
	}
	return nil
}

func (r *Runner) ask(ctx context.Context, fields []step.Field, defaults step.Values) (step.Values, error) {
	values := step.Values{}
	for _, field := range fields {
		message := field.Label
		if !field.Required && field.Kind != step.FieldBool && field.Kind != step.FieldMulti {
			message += " (optional)"
		}
		switch field.Kind {
		case step.FieldBool:
			def, _ := defaults[field.Name].(bool)
			answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: field.Help})
			if err != nil {
				return nil, err
			}
			values[field.Name] = answer
		case step.FieldChoice:
			current, _ := defaults[field.Name].(string)
			idx, err := r.driver.Select(ctx, SelectConfig{
				Message:      message,
				Options:      optionLabels(field),
				DefaultIndex: indexOf(field.OptionValues(), current),
				Help:         field.Help,
			})
			if err != nil {
				return nil, err
			}
			if idx >= 0 && idx < len(field.Options) {
				values[field.Name] = field.Options[idx].Value
			}
		case step.FieldMulti:
			chosen, _ := defaults[field.Name].([]string)
			picked, err := r.driver.MultiSelect(ctx, SelectConfig{
				Message:  message,
				Options:  optionLabels(field),
				Defaults: indicesOf(field.OptionValues(), chosen),
				Help:     field.Help,
				PageSize: len(field.Options),
			})
			if err != nil {
				return nil, err
			}
			tokens := make([]string, 0, len(picked))
			for _, idx := range picked {
				if idx >= 0 && idx < len(field.Options) {
					tokens = append(tokens, field.Options[idx].Value)
				}
			}
			values[field.Name] = tokens
		default:
			def, _ := defaults[field.Name].(string)
			answer, err := r.driver.Input(ctx, InputConfig{Message: message, Default: def, Help: field.Help})
			if err != nil {
				return nil, err
			}
			values[field.Name] = answer
		}
	}
	return values, nil
}

func optionLabels(field step.Field) []string {
	labels := make([]string, len(field.Options))
	for i, opt := range field.Options {
		labels[i] = opt.Label
	}
	return labels
}

func formatErrors(mounted step.Step, errs map[string]string) string {
	labels := map[string]string{}
	if mounted != nil {
		for _, field := range mounted.Fields() {
			labels[field.Name] = field.Label
		}
	}
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		label := labels[name]
		if label == "" {
			label = name
		}
		lines[i] = fmt.Sprintf("  ! %s %s", label, errs[name])
	}
	return strings.Join(lines, "\n")
}
