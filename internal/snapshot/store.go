// Package snapshot reads the extracted source-system dataset: one JSON
// document per entity table plus a couple of auxiliary mapping documents.
// The snapshot is read-only for the duration of a migration run.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/boxhaul-io/boxhaul/internal/logging"
)

// Store provides access to the snapshot tables in a data directory.
// Tables are loaded lazily and cached; auxiliary mappings are loaded once
// at open time.
type Store struct {
	dir string

	mu     sync.Mutex
	tables map[string][]Record

	seed      map[string]map[string]string
	relations map[string]any
}

// Open validates the snapshot directory and loads the auxiliary documents
// (the source-id-to-natural-key seed mapping and the many-to-many relation
// tables). A missing directory is a fatal error; missing auxiliary files
// are not.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot path is not a directory: %s", dir)
	}

	s := &Store{
		dir:       dir,
		tables:    make(map[string][]Record),
		seed:      make(map[string]map[string]string),
		relations: make(map[string]any),
	}

	if err := s.loadJSON("id_mappings.json", &s.seed); err != nil {
		return nil, err
	}
	if err := s.loadJSON("m2m_mappings.json", &s.relations); err != nil {
		return nil, err
	}

	logging.Debug("snapshot opened", "dir", dir,
		"seed_tables", len(s.seed), "relation_tables", len(s.relations))
	return s, nil
}

// loadJSON decodes an optional auxiliary file into out. Absent files are
// skipped; present-but-malformed files are an error.
func (s *Store) loadJSON(name string, out any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Table returns the ordered records of an entity table. A missing table
// file yields an empty table.
func (s *Store) Table(name string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if records, ok := s.tables[name]; ok {
		return records
	}

	path := filepath.Join(s.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		s.tables[name] = nil
		return nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		logging.Warn("failed to parse snapshot table", "table", name, "error", err)
		s.tables[name] = nil
		return nil
	}

	s.tables[name] = records
	return records
}

// FindByID locates a record in a table by its source-local identifier.
// Used for polymorphic references, which carry a type tag and a source id
// instead of a plain foreign key.
func (s *Store) FindByID(table string, id int) (Record, bool) {
	for _, rec := range s.Table(table) {
		if rec.ID() == id {
			return rec, true
		}
	}
	return nil, false
}

// SeedMappings returns the externally supplied mapping of
// table -> source id (as a decimal string) -> natural key.
func (s *Store) SeedMappings() map[string]map[string]string {
	return s.seed
}

// RelationCount reports how many many-to-many relation tables the snapshot
// carries. The relations are loaded for completeness but no relation is
// applied during migration.
func (s *Store) RelationCount() int {
	return len(s.relations)
}
