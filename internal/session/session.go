// Package session assembles a questionnaire run for a project directory:
// configuration, logs, the persisted answer store and the controller.
package session

import (
	"fmt"
	"time"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/config"
	"github.com/kingrea/selfassess/internal/logbook"
	"github.com/kingrea/selfassess/internal/logging"
	"github.com/kingrea/selfassess/internal/step"
	"github.com/kingrea/selfassess/internal/steps"
	"github.com/kingrea/selfassess/internal/wizard/controller"
)

// Session bundles the collaborators of one run.
type Session struct {
	Config     *config.Config
	Logger     *logging.Logger
	Logbook    *logbook.Logbook
	Store      *answers.Store
	Catalog    *step.Catalog
	Registry   *step.Registry
	Controller *controller.Controller
}

type options struct {
	clock    func() time.Time
	catalog  *step.Catalog
	register func(*step.Registry, *step.Catalog) error
}

// Option customizes Open.
type Option func(*options)

// WithClock drives the store timestamps and the double activation window.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithCatalog replaces the default step catalog.
func WithCatalog(catalog *step.Catalog) Option {
	return func(o *options) {
		if catalog != nil {
			o.catalog = catalog
		}
	}
}

// WithRegistration replaces the step registration, e.g. to leave catalog
// steps without an implementation.
func WithRegistration(register func(*step.Registry, *step.Catalog) error) Option {
	return func(o *options) {
		if register != nil {
			o.register = register
		}
	}
}

// Open initializes the project directory when needed and restores the
// persisted answers.
func Open(projectDir string, opts ...Option) (*Session, error) {
	o := options{
		clock:    time.Now,
		catalog:  step.DefaultCatalog(),
		register: steps.Register,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := config.InitDir(projectDir); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	policy, err := controller.PolicyFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	logger, err := logging.New(projectDir)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	book, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("session: %w", err)
	}

	store, err := answers.Open(answers.NewFileRepository(cfg.StateDir()),
		answers.WithLogger(logger),
		answers.WithClock(o.clock),
		answers.WithTotalSteps(cfg.TotalSteps()),
	)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("session: %w", err)
	}

	registry := step.NewRegistry()
	if err := o.register(registry, o.catalog); err != nil {
		logger.Close()
		return nil, fmt.Errorf("session: register steps: %w", err)
	}
	ctrl, err := controller.New(store, registry, o.catalog,
		controller.WithPolicy(policy),
		controller.WithLogbook(book),
		controller.WithConfig(cfg),
		controller.WithClock(o.clock),
	)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("session: %w", err)
	}
	logger.Printf("session %s opened at step %s", store.SessionID(), ctrl.Current().ID)

	return &Session{
		Config:     cfg,
		Logger:     logger,
		Logbook:    book,
		Store:      store,
		Catalog:    o.catalog,
		Registry:   registry,
		Controller: ctrl,
	}, nil
}

// Close releases the log file.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	return s.Logger.Close()
}
