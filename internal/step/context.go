package step

import (
	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/config"
	"github.com/kingrea/selfassess/internal/logbook"
)

// Context carries read-only runtime state into every step.
type Context struct {
	Config  *config.Config
	Logbook *logbook.Logbook
	Catalog *Catalog
	Answers answers.Snapshot
	// Active is the current ordered step list.
	Active []Definition
}

// NewContext builds a Context around a store snapshot.
func NewContext(cfg *config.Config, lb *logbook.Logbook, catalog *Catalog, snap answers.Snapshot) *Context {
	return &Context{
		Config:  cfg,
		Logbook: lb,
		Catalog: catalog,
		Answers: snap,
	}
}

// WithAnswers returns a copy carrying a fresher snapshot.
func (ctx *Context) WithAnswers(snap answers.Snapshot) *Context {
	clone := *ctx
	clone.Answers = snap
	return &clone
}

// WithActive returns a copy carrying the current step list.
func (ctx *Context) WithActive(active []Definition) *Context {
	clone := *ctx
	clone.Active = append([]Definition(nil), active...)
	return &clone
}
