package answers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known answer keys. Any step may read or write other keys freely.
const (
	KeyFullName          = "fullName"
	KeyUTR               = "utr"
	KeyNationalInsurance = "nationalInsurance"
	KeyTaxYear           = "taxYear"
	KeyIncomeCategories  = "incomeCategories"
	KeyReliefCategories  = "reliefCategories"

	// DefaultTaxYear is the tax year offered before the user picks one.
	DefaultTaxYear = "2023-24"
	// DefaultTotalSteps is the constant denominator of the fixed progress policy.
	DefaultTotalSteps = 14
)

// Defaults returns the hard-coded initial answers.
func Defaults() map[string]any {
	return map[string]any{
		KeyFullName:          "",
		KeyUTR:               "",
		KeyNationalInsurance: "",
		KeyTaxYear:           DefaultTaxYear,
		KeyIncomeCategories:  []any{},
		KeyReliefCategories:  []any{},
	}
}

// Logger receives persistence failures.
type Logger interface {
	Printf(format string, args ...any)
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Answers   map[string]any
	Completed map[string]bool
}

// String returns the answer stored under key when it is a string.
func (s Snapshot) String(key string) string {
	value, _ := s.Answers[key].(string)
	return value
}

// Selections returns the income and relief category tokens in stored order.
func (s Snapshot) Selections() (income, relief []string) {
	return Tokens(s.Answers[KeyIncomeCategories]), Tokens(s.Answers[KeyReliefCategories])
}

// CompletedIDs returns the sections flagged complete, sorted.
func (s Snapshot) CompletedIDs() []string {
	ids := make([]string, 0, len(s.Completed))
	for id, done := range s.Completed {
		if done {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Tokens converts a stored selection list into strings, dropping anything
// that is not a string.
func Tokens(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Store holds the answer mapping and the section-completion map.
type Store struct {
	mu         sync.RWMutex
	repo       Repository
	logger     Logger
	clock      func() time.Time
	newID      func() string
	totalSteps int

	sessionID string
	answers   map[string]any
	completed map[string]bool
}

// Option customizes the store.
type Option func(*Store)

// WithLogger routes persistence failures to logger.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSessionIDs overrides session id generation.
func WithSessionIDs(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithTotalSteps overrides the fixed progress denominator.
func WithTotalSteps(total int) Option {
	return func(s *Store) {
		if total > 0 {
			s.totalSteps = total
		}
	}
}

// Open loads the persisted record, falling back to defaults when it is
// missing or unreadable, and folds in the retired onboarding-progress record
// if the repository still has one.
func Open(repo Repository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("answers: repository is required")
	}
	s := &Store{
		repo:       repo,
		logger:     nopLogger{},
		clock:      time.Now,
		newID:      uuid.NewString,
		totalSteps: DefaultTotalSteps,
		answers:    Defaults(),
		completed:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}

	dirty := false
	rec, err := repo.Load()
	switch {
	case err == nil:
		for key, value := range rec.Answers {
			s.answers[key] = value
		}
		for id, done := range rec.Completed {
			s.completed[id] = done
		}
		s.sessionID = rec.SessionID
		if rec.Migrated {
			s.logger.Printf("answers: upgraded unversioned record to version %d", RecordVersion)
			dirty = true
		}
	case errors.Is(err, ErrRecordNotFound):
	default:
		s.logger.Printf("answers: load failed, using defaults: %v", err)
	}
	if s.sessionID == "" {
		s.sessionID = s.newID()
	}

	if legacy, ok := repo.(LegacyStore); ok && s.consolidate(legacy) {
		dirty = true
	}
	if dirty {
		s.persistLocked()
	}
	return s, nil
}

func (s *Store) consolidate(legacy LegacyStore) bool {
	progress, err := legacy.LoadLegacy()
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.Printf("answers: legacy progress unreadable, leaving it in place: %v", err)
		}
		return false
	}
	for _, id := range progress.CompletedSections {
		s.completed[id] = true
	}
	section, err := canonicalize(progress.SectionData)
	if err != nil {
		s.logger.Printf("answers: legacy section data dropped: %v", err)
	}
	for key, value := range section {
		if _, exists := s.answers[key]; !exists {
			s.answers[key] = value
		}
	}
	if err := legacy.RemoveLegacy(); err != nil {
		s.logger.Printf("answers: %v", err)
	}
	s.logger.Printf("answers: consolidated legacy progress (%d sections)", len(progress.CompletedSections))
	return true
}

// Snapshot returns a copy of the answers and completion flags.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Answers:   cloneAnswers(s.answers),
		Completed: cloneFlags(s.completed),
	}
}

// SessionID identifies the current run. It changes on Reset.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Update overlays the top-level keys of partial and persists the result.
// Values are normalized to their JSON shapes so a reload reproduces them.
func (s *Store) Update(partial map[string]any) {
	if len(partial) == 0 {
		return
	}
	normalized, err := canonicalize(partial)
	if err != nil {
		s.logger.Printf("answers: update dropped unencodable values: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range normalized {
		s.answers[key] = value
	}
	s.persistLocked()
}

// SetSectionCompleted records one section's completion flag.
func (s *Store) SetSectionCompleted(id string, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[id] = completed
	s.persistLocked()
}

// Reset restores defaults, clears completion and removes the persisted record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = Defaults()
	s.completed = map[string]bool{}
	s.sessionID = s.newID()
	if err := s.repo.Remove(); err != nil {
		s.logger.Printf("answers: reset could not remove record: %v", err)
	}
}

func (s *Store) persistLocked() {
	rec := Record{
		Version:   RecordVersion,
		SessionID: s.sessionID,
		UpdatedAt: s.clock().UTC(),
		Answers:   s.answers,
		Completed: s.completed,
	}
	if err := s.repo.Save(rec); err != nil {
		s.logger.Printf("answers: persist failed, continuing in memory: %v", err)
	}
}

// canonicalize round-trips each value through JSON. Values that cannot be
// encoded are skipped and reported together.
func canonicalize(partial map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(partial))
	var errs []error
	for key, value := range partial {
		encoded, err := json.Marshal(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		var decoded any
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		out[key] = decoded
	}
	return out, errors.Join(errs...)
}

func cloneAnswers(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneAnswers(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
