package engine

import "strings"

// Exclusions tracks, per entity type, the source ids that must be skipped
// because they belong to an excluded vendor or depend on something that
// does. Marks are monotonic: once excluded, always excluded.
type Exclusions struct {
	sets map[string]map[int]struct{}
}

// NewExclusions returns an empty exclusion set.
func NewExclusions() *Exclusions {
	return &Exclusions{sets: make(map[string]map[int]struct{})}
}

// Mark records a source id as excluded for an entity type.
func (e *Exclusions) Mark(table string, id int) {
	if id == 0 {
		return
	}
	if e.sets[table] == nil {
		e.sets[table] = make(map[int]struct{})
	}
	e.sets[table][id] = struct{}{}
}

// Excluded reports whether a source id has been marked.
func (e *Exclusions) Excluded(table string, id int) bool {
	_, ok := e.sets[table][id]
	return ok
}

// rules is the normalized form of the configured exclusion rules.
type rules struct {
	manufacturers map[string]struct{}
	platforms     map[string]struct{}
}

func newRules(manufacturers, platforms []string) rules {
	r := rules{
		manufacturers: make(map[string]struct{}, len(manufacturers)),
		platforms:     make(map[string]struct{}, len(platforms)),
	}
	for _, name := range manufacturers {
		r.manufacturers[name] = struct{}{}
	}
	for _, name := range platforms {
		r.platforms[strings.ToLower(name)] = struct{}{}
	}
	return r
}

// excludedManufacturerName matches exactly against the configured vendor set.
func (r rules) excludedManufacturerName(name string) bool {
	_, ok := r.manufacturers[name]
	return ok
}

// excludedPlatformName matches case-insensitively against the configured
// platform identifiers.
func (r rules) excludedPlatformName(name string) bool {
	_, ok := r.platforms[strings.ToLower(name)]
	return ok
}
