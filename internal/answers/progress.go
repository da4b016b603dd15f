package answers

import (
	"fmt"
	"math"
	"strings"
)

// ProgressPolicy selects the denominator used for completion percentages.
type ProgressPolicy string

const (
	// ProgressFixed divides every completion flag by the constant step total,
	// so a short flow never reaches 100.
	ProgressFixed ProgressPolicy = "fixed"
	// ProgressActive counts only flags of active steps, divided by their count.
	ProgressActive ProgressPolicy = "active"
)

// ParseProgressPolicy accepts "fixed" or "active" in any case.
func ParseProgressPolicy(raw string) (ProgressPolicy, error) {
	switch policy := ProgressPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case ProgressFixed, ProgressActive:
		return policy, nil
	case "":
		return ProgressFixed, nil
	default:
		return "", fmt.Errorf("answers: unknown progress policy %q", raw)
	}
}

// CalculateProgress returns round(100 * completed / TotalSteps).
func (s *Store) CalculateProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	done := 0
	for _, flag := range s.completed {
		if flag {
			done++
		}
	}
	return percent(done, s.totalSteps)
}

// Progress computes completion under policy. active lists the step ids of the
// current flow and is ignored by the fixed policy.
func (s *Store) Progress(policy ProgressPolicy, active []string) int {
	if policy != ProgressActive {
		return s.CalculateProgress()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	done := 0
	seen := make(map[string]struct{}, len(active))
	for _, id := range active {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.completed[id] {
			done++
		}
	}
	return percent(done, len(seen))
}

// TotalSteps returns the fixed policy denominator.
func (s *Store) TotalSteps() int {
	return s.totalSteps
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
