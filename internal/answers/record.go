package answers

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordVersion is the schema version written by this package.
const RecordVersion = 2

// Record is the persisted form of the store.
type Record struct {
	Version   int             `json:"version"`
	SessionID string          `json:"session_id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Answers   map[string]any  `json:"answers"`
	Completed map[string]bool `json:"completed"`

	// Migrated is set by repositories that upgraded an older schema on load.
	Migrated bool `json:"-"`
}

// LegacyProgress is the retired onboarding-progress record that tracked a
// completed-section list and per-section data next to the main answers.
type LegacyProgress struct {
	CompletedSections []string       `json:"completedSections"`
	SectionData       map[string]any `json:"sectionData"`
}

type recordProbe struct {
	Version           int             `json:"version"`
	FormData          map[string]any  `json:"formData"`
	CompletedSections json.RawMessage `json:"completedSections"`
}

// DecodeRecord parses a persisted record, upgrading the unversioned layout
// ({"formData": ..., "completedSections": ...}) to the current schema.
func DecodeRecord(data []byte) (Record, error) {
	var probe recordProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return Record{}, fmt.Errorf("answers: decode record: %w", err)
	}
	switch {
	case probe.Version == RecordVersion:
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("answers: decode record: %w", err)
		}
		rec.normalize()
		return rec, nil
	case probe.Version == 0:
		completed, err := decodeLegacyCompletion(probe.CompletedSections)
		if err != nil {
			return Record{}, err
		}
		rec := Record{
			Version:   RecordVersion,
			Answers:   probe.FormData,
			Completed: completed,
			Migrated:  true,
		}
		rec.normalize()
		return rec, nil
	default:
		return Record{}, fmt.Errorf("answers: unsupported record version %d", probe.Version)
	}
}

// EncodeRecord renders a record the way FileRepository stores it.
func EncodeRecord(rec Record) ([]byte, error) {
	rec.normalize()
	encoded, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("answers: encode record: %w", err)
	}
	return append(encoded, '\n'), nil
}

// The unversioned record stored completion either as an object of flags or
// as a plain list of section ids.
func decodeLegacyCompletion(raw json.RawMessage) (map[string]bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]bool{}, nil
	}
	flags := map[string]bool{}
	if err := json.Unmarshal(raw, &flags); err == nil {
		return flags, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("answers: decode legacy completion: %w", err)
	}
	for _, id := range ids {
		flags[id] = true
	}
	return flags, nil
}

func (r *Record) normalize() {
	if r.Version == 0 {
		r.Version = RecordVersion
	}
	if r.Answers == nil {
		r.Answers = map[string]any{}
	}
	if r.Completed == nil {
		r.Completed = map[string]bool{}
	}
}
