package ledger

import (
	"slices"
	"sync"

	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
)

// UndoStore holds undo records in memory for the lifetime of the process.
// Records are removed only by a successful restore.
type UndoStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewUndoStore creates an empty store.
func NewUndoStore() *UndoStore {
	return &UndoStore{records: make(map[string]Record)}
}

// Put stores record under record.ID, replacing any previous record.
func (s *UndoStore) Put(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(record)
}

// Get returns the record stored under id.
func (s *UndoStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return cloneRecord(record), true
}

// Delete removes the record stored under id.
func (s *UndoStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// Len returns the number of stored records.
func (s *UndoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns the records matching an AIP-160 filter, oldest first.
// Filterable fields: kind, user_id, source, entries, created_at.
func (s *UndoStore) List(filter string) ([]Record, error) {
	parsed, err := parseRecordFilter(filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRulesInvalidFilter, "invalid undo record filter", err)
	}

	s.mu.RLock()
	candidates := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		candidates = append(candidates, record)
	}
	s.mu.RUnlock()

	var out []Record
	for _, record := range candidates {
		ok, err := evalFilter(parsed, recordField(record))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeRulesInvalidFilter, "invalid undo record filter", err)
		}
		if ok {
			out = append(out, cloneRecord(record))
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func cloneRecord(record Record) Record {
	if record.Source != nil {
		source := *record.Source
		record.Source = &source
	}
	entries := make([]Snapshot, len(record.Entries))
	for i, entry := range record.Entries {
		if entry.OriginalArmor != nil {
			armor := *entry.OriginalArmor
			entry.OriginalArmor = &armor
		}
		entries[i] = entry
	}
	record.Entries = entries
	return record
}
