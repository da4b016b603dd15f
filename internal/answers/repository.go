package answers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrRecordNotFound is returned when nothing has been persisted yet.
var ErrRecordNotFound = errors.New("answers: record not found")

const (
	recordFile         = "answers.json"
	legacyProgressFile = "onboarding-progress.json"
)

// Repository persists the store's record under one well-known key.
type Repository interface {
	Load() (Record, error)
	Save(Record) error
	Remove() error
}

// LegacyStore is implemented by repositories that can still see the retired
// onboarding-progress record. The store consolidates it once and removes it.
type LegacyStore interface {
	LoadLegacy() (LegacyProgress, error)
	RemoveLegacy() error
}

// FileRepository stores the record as JSON inside the state directory.
type FileRepository struct {
	path       string
	legacyPath string
}

// NewFileRepository creates a repository rooted at stateDir.
func NewFileRepository(stateDir string) *FileRepository {
	return &FileRepository{
		path:       filepath.Join(stateDir, recordFile),
		legacyPath: filepath.Join(stateDir, legacyProgressFile),
	}
}

// Path returns the record location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the persisted record if present.
func (r *FileRepository) Load() (Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, fmt.Errorf("answers: read %s: %w", r.path, err)
	}
	return DecodeRecord(data)
}

// Save overwrites the record. The write goes through a temp file so a crash
// never leaves a truncated record behind.
func (r *FileRepository) Save(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("answers: ensure state dir: %w", err)
	}
	encoded, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("answers: write record: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("answers: replace record: %w", err)
	}
	return nil
}

// Remove deletes the record. Removing a missing record is not an error.
func (r *FileRepository) Remove() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("answers: remove record: %w", err)
	}
	return nil
}

// LoadLegacy reads the onboarding-progress record if it still exists.
func (r *FileRepository) LoadLegacy() (LegacyProgress, error) {
	data, err := os.ReadFile(r.legacyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LegacyProgress{}, ErrRecordNotFound
		}
		return LegacyProgress{}, fmt.Errorf("answers: read %s: %w", r.legacyPath, err)
	}
	var legacy LegacyProgress
	if err := json.Unmarshal(data, &legacy); err != nil {
		return LegacyProgress{}, fmt.Errorf("answers: decode legacy progress: %w", err)
	}
	return legacy, nil
}

// RemoveLegacy deletes the onboarding-progress record.
func (r *FileRepository) RemoveLegacy() error {
	if err := os.Remove(r.legacyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("answers: remove legacy progress: %w", err)
	}
	return nil
}

// MemoryRepository keeps the encoded record in memory. It encodes and decodes
// exactly like FileRepository, so round-trips behave the same.
type MemoryRepository struct {
	mu     sync.Mutex
	data   []byte
	legacy *LegacyProgress

	// SaveErr, when set, is returned by every Save.
	SaveErr error
	// Saves counts successful Save calls.
	Saves int
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load decodes the stored record.
func (m *MemoryRepository) Load() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return Record{}, ErrRecordNotFound
	}
	return DecodeRecord(m.data)
}

// Save encodes and stores rec.
func (m *MemoryRepository) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	encoded, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	m.data = encoded
	m.Saves++
	return nil
}

// Remove drops the stored record.
func (m *MemoryRepository) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// Raw returns the stored bytes, or nil when nothing is stored.
func (m *MemoryRepository) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// SetRaw replaces the stored bytes, e.g. with a legacy or corrupt payload.
func (m *MemoryRepository) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}

// SetLegacy seeds an onboarding-progress record.
func (m *MemoryRepository) SetLegacy(legacy LegacyProgress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy = &legacy
}

// LoadLegacy returns the seeded onboarding-progress record.
func (m *MemoryRepository) LoadLegacy() (LegacyProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.legacy == nil {
		return LegacyProgress{}, ErrRecordNotFound
	}
	return *m.legacy, nil
}

// RemoveLegacy drops the onboarding-progress record.
func (m *MemoryRepository) RemoveLegacy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy = nil
	return nil
}
