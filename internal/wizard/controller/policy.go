package controller

import (
	"fmt"
	"time"

	"github.com/kingrea/selfassess/internal/answers"
	"github.com/kingrea/selfassess/internal/config"
)

// MissingContract selects how steps without an implementation are handled.
type MissingContract string

const (
	MissingContractForce MissingContract = config.MissingContractForce
	MissingContractBlock MissingContract = config.MissingContractBlock
)

// Policy gathers the navigation rules of a run.
type Policy struct {
	EscapeHatch            bool
	DoubleActivationWindow time.Duration
	MissingContract        MissingContract
	Progress               answers.ProgressPolicy
}

// DefaultPolicy mirrors the default config file.
func DefaultPolicy() Policy {
	return Policy{
		EscapeHatch:            true,
		DoubleActivationWindow: config.DefaultDoubleActivationWindow,
		MissingContract:        MissingContractForce,
		Progress:               answers.ProgressFixed,
	}
}

// PolicyFromConfig reads the navigation and progress settings.
func PolicyFromConfig(cfg *config.Config) (Policy, error) {
	if cfg == nil {
		return DefaultPolicy(), nil
	}
	progress, err := answers.ParseProgressPolicy(cfg.ProgressPolicy())
	if err != nil {
		return Policy{}, fmt.Errorf("controller: %w", err)
	}
	missing := MissingContract(cfg.MissingContract())
	switch missing {
	case MissingContractForce, MissingContractBlock:
	default:
		return Policy{}, fmt.Errorf("controller: unknown missing contract policy %q", missing)
	}
	return Policy{
		EscapeHatch:            cfg.EscapeHatchEnabled(),
		DoubleActivationWindow: cfg.DoubleActivationWindow(),
		MissingContract:        missing,
		Progress:               progress,
	}, nil
}
