package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/config"
	"github.com/kingrea/selfassess/internal/logbook"
	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/wizard/sequencer"
)

// Store is the slice of the answer store the controller depends on.
type Store interface {
	Snapshot() answers.Snapshot
	SessionID() string
	Update(partial map[string]any)
	SetSectionCompleted(id string, completed bool)
	Reset()
	Progress(policy answers.ProgressPolicy, active []string) int
}

// Resolver builds step implementations by id.
type Resolver interface {
	Resolve(id string) (step.Step, error)
}

// Reason explains the result of a navigation request.
type Reason string

const (
	ReasonSubmitted        Reason = "submitted"
	ReasonRejected         Reason = "rejected"
	ReasonDoubleActivation Reason = "double-activation"
	ReasonMissingContract  Reason = "missing-contract"
	ReasonBlocked          Reason = "blocked"
	ReasonForced           Reason = "forced"
	ReasonEscapeHatchOff   Reason = "escape-hatch-off"
	ReasonRetreat          Reason = "retreat"
	ReasonFinalized        Reason = "finalized"
)

// Advance describes what a navigation request did.
type Advance struct {
	From   int
	To     int
	FromID string
	ToID   string
	// Moved is set when the position changed or the run finalized.
	Moved     bool
	Forced    bool
	Finalized bool
	Reason    Reason
	// Errors holds field errors from a rejecting step.
	Errors map[string]string
}

// Controller drives position, mounting and submission for one store.
type Controller struct {
	store    Store
	registry Resolver
	catalog  *step.Catalog
	config   *config.Config
	logbook  *logbook.Logbook
	policy   Policy
	clock    func() time.Time

	steps    []step.Definition
	position int
	mounted  step.Step
	mountErr error

	lastActivation    time.Time
	lastActivationPos int
	activated         bool

	finished bool
}

// Option customizes the controller instance.
type Option func(*Controller)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithPolicy overrides the navigation rules.
func WithPolicy(policy Policy) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithLogbook journals navigation events.
func WithLogbook(book *logbook.Logbook) Option {
	return func(c *Controller) {
		c.logbook = book
	}
}

// WithConfig exposes the runtime configuration to steps.
func WithConfig(cfg *config.Config) Option {
	return func(c *Controller) {
		c.config = cfg
	}
}

// New wires a controller to the store, the step registry and the catalog, and
// mounts the first step.
func New(store Store, registry Resolver, catalog *step.Catalog, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("controller: store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("controller: step registry is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("controller: catalog is required")
	}
	c := &Controller{
		store:    store,
		registry: registry,
		catalog:  catalog,
		policy:   DefaultPolicy(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resequence()
	c.mount()
	return c, nil
}

// Position returns the current index into Steps.
func (c *Controller) Position() int {
	return c.position
}

// Steps returns the active step list.
func (c *Controller) Steps() []step.Definition {
	return append([]step.Definition(nil), c.steps...)
}

// Current returns the definition at the current position.
func (c *Controller) Current() step.Definition {
	return c.steps[c.position]
}

// Mounted returns the step implementation at the current position, or nil
// when the catalog step has no contract.
func (c *Controller) Mounted() step.Step {
	return c.mounted
}

// MountError explains why Mounted is nil.
func (c *Controller) MountError() error {
	return c.mountErr
}

// Finished reports whether a run was just finalized and the user has not
// moved forward since.
func (c *Controller) Finished() bool {
	return c.finished
}

// Policy returns the navigation rules in force.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Snapshot returns the store's current answers.
func (c *Controller) Snapshot() answers.Snapshot {
	return c.store.Snapshot()
}

// Context builds the read-only step context for the current state.
func (c *Controller) Context() *step.Context {
	return step.NewContext(c.config, c.logbook, c.catalog, c.store.Snapshot()).WithActive(c.steps)
}

// Progress returns the completion percentage under the configured policy.
func (c *Controller) Progress() int {
	return c.store.Progress(c.policy.Progress, sequencer.IDs(c.steps))
}

// RequestAdvance is the Next action. The mounted step decides; a rejection
// leaves everything unchanged unless it is the second press on the same step
// inside the double activation window. Any change of step in between breaks
// the pair.
func (c *Controller) RequestAdvance(values step.Values) Advance {
	now := c.clock()
	double := c.policy.EscapeHatch &&
		c.activated &&
		c.lastActivationPos == c.position &&
		now.Sub(c.lastActivation) <= c.policy.DoubleActivationWindow
	c.lastActivation = now
	c.lastActivationPos = c.position
	c.activated = true

	current := c.Current()
	if c.mounted == nil {
		if c.policy.MissingContract == MissingContractBlock {
			if double {
				c.logbook.Warn("%s has no submit contract, forced on by double activation", current.ID)
				return c.move(ReasonDoubleActivation, true)
			}
			c.logbook.Warn("%s has no submit contract, holding position", current.ID)
			return c.stay(ReasonBlocked, nil)
		}
		c.logbook.Warn("%s has no submit contract, advancing without validation", current.ID)
		return c.move(ReasonMissingContract, true)
	}

	outcome := c.mounted.Submit(c.Context(), step.SubmitRequest{Values: values})
	if !outcome.OK() {
		if c.mounted.Info().Validation == step.NoValidation {
			c.logbook.Error("%s is tagged no-validation but rejected its input", current.ID)
		}
		if double {
			c.logbook.Warn("%s rejected input, forced on by double activation", current.ID)
			adv := c.move(ReasonDoubleActivation, true)
			adv.Errors = outcome.Errors
			return adv
		}
		return c.stay(ReasonRejected, outcome.Errors)
	}

	if len(outcome.Data) > 0 {
		c.store.Update(outcome.Data)
	}
	c.store.SetSectionCompleted(current.ID, true)
	c.Resequence()
	return c.move(ReasonSubmitted, false)
}

// CanSkip reports whether ForceAdvance is allowed under the current policy.
// Frontends use it to decide whether to offer a skip at all.
func (c *Controller) CanSkip() bool {
	return c.policy.EscapeHatch
}

// ForceAdvance moves on without asking the mounted step, finalizing when
// already on the last step. It is the explicit form of the escape hatch and
// holds position when the hatch is off.
func (c *Controller) ForceAdvance() Advance {
	if !c.CanSkip() {
		c.logbook.Warn("refused to skip %s, escape hatch is off", c.Current().ID)
		return c.stay(ReasonEscapeHatchOff, nil)
	}
	c.logbook.Warn("forced past %s", c.Current().ID)
	return c.move(ReasonForced, true)
}

// Retreat steps back one position. It never validates and is a no-op on the
// first step.
func (c *Controller) Retreat() Advance {
	from := c.position
	fromID := c.Current().ID
	if c.position == 0 {
		return Advance{From: from, To: from, FromID: fromID, ToID: fromID, Reason: ReasonRetreat}
	}
	c.position--
	c.activated = false
	c.mount()
	return Advance{From: from, To: c.position, FromID: fromID, ToID: c.Current().ID, Moved: true, Reason: ReasonRetreat}
}

// Resequence re-derives the active list from the stored selections and
// clamps the position into range. It reports whether the position clamped.
func (c *Controller) Resequence() bool {
	before := ""
	if c.position < len(c.steps) {
		before = c.steps[c.position].ID
	}
	clamped := c.resequence()
	if c.steps[c.position].ID != before {
		c.activated = false
		c.mount()
	}
	return clamped
}

// Finalize journals the final snapshot, resets the store and returns to the
// first step.
func (c *Controller) Finalize() Advance {
	from := c.position
	fromID := ""
	if from < len(c.steps) {
		fromID = c.steps[from].ID
	}
	snap := c.store.Snapshot()
	encoded, err := json.Marshal(struct {
		SessionID string          `json:"session_id"`
		Answers   map[string]any  `json:"answers"`
		Completed map[string]bool `json:"completed"`
	}{c.store.SessionID(), snap.Answers, snap.Completed})
	if err != nil {
		c.logbook.Error("finalize: encode snapshot: %v", err)
	} else {
		c.logbook.Info("finalized return: %s", encoded)
	}

	c.store.Reset()
	c.finished = true
	c.position = 0
	c.activated = false
	c.resequence()
	c.mount()
	return Advance{
		From:      from,
		To:        0,
		FromID:    fromID,
		ToID:      c.Current().ID,
		Moved:     true,
		Finalized: true,
		Reason:    ReasonFinalized,
	}
}

// Restart discards all answers and returns to the first step without
// journaling a final snapshot.
func (c *Controller) Restart() {
	c.store.Reset()
	c.logbook.Info("answers reset")
	c.finished = false
	c.position = 0
	c.activated = false
	c.resequence()
	c.mount()
}

func (c *Controller) move(reason Reason, forced bool) Advance {
	from := c.position
	fromID := c.Current().ID
	if c.position >= len(c.steps)-1 {
		adv := c.Finalize()
		adv.Forced = forced
		if reason != ReasonSubmitted {
			adv.Reason = reason
		}
		return adv
	}
	c.position++
	c.finished = false
	c.activated = false
	c.mount()
	c.logbook.Info("%s -> %s (%s)", fromID, c.Current().ID, reason)
	return Advance{
		From:   from,
		To:     c.position,
		FromID: fromID,
		ToID:   c.Current().ID,
		Moved:  true,
		Forced: forced,
		Reason: reason,
	}
}

func (c *Controller) stay(reason Reason, errs map[string]string) Advance {
	id := c.Current().ID
	return Advance{From: c.position, To: c.position, FromID: id, ToID: id, Reason: reason, Errors: errs}
}

func (c *Controller) resequence() bool {
	snap := c.store.Snapshot()
	income, relief := snap.Selections()
	if unknown := sequencer.Unknown(c.catalog, step.CategoryIncome, income); len(unknown) > 0 {
		c.logbook.Warn("ignoring unknown income categories %v", unknown)
	}
	if unknown := sequencer.Unknown(c.catalog, step.CategoryRelief, relief); len(unknown) > 0 {
		c.logbook.Warn("ignoring unknown relief categories %v", unknown)
	}
	c.steps = sequencer.Sequence(c.catalog, income, relief)
	if c.position >= len(c.steps) {
		c.logbook.Info("step list shrank to %d, clamping position %d", len(c.steps), c.position)
		c.position = len(c.steps) - 1
		return true
	}
	if c.position < 0 {
		c.position = 0
	}
	return false
}

func (c *Controller) mount() {
	def := c.steps[c.position]
	s, err := c.registry.Resolve(def.ID)
	if err != nil {
		c.mounted = nil
		c.mountErr = err
		if !errors.Is(err, step.ErrUnknownStep) {
			c.logbook.Error("mount %s: %v", def.ID, err)
		}
		return
	}
	c.mounted = s
	c.mountErr = nil
}
