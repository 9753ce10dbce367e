package engine

import "strconv"

// Resolver maps (entity type, source id) pairs to the natural key used to
// re-identify the object in the target. It is seeded from the snapshot's
// id mappings and extended as objects are materialized; an existing entry
// is never overwritten.
type Resolver struct {
	seed    map[string]map[string]string
	runtime map[string]map[int]string
}

// NewResolver builds a resolver over the externally supplied seed mapping.
// The seed maps table -> decimal source id -> natural key.
func NewResolver(seed map[string]map[string]string) *Resolver {
	return &Resolver{
		seed:    seed,
		runtime: make(map[string]map[int]string),
	}
}

// Resolve returns the natural key for a source id. A false return is a
// skip signal for the referencing record, not an error.
func (r *Resolver) Resolve(table string, id int) (string, bool) {
	if id == 0 {
		return "", false
	}
	if keys, ok := r.runtime[table]; ok {
		if key, ok := keys[id]; ok {
			return key, true
		}
	}
	if keys, ok := r.seed[table]; ok {
		if key, ok := keys[strconv.Itoa(id)]; ok {
			return key, true
		}
	}
	return "", false
}

// Record registers a natural key for a source id. Existing mappings,
// whether seeded or recorded, are left untouched.
func (r *Resolver) Record(table string, id int, key string) {
	if id == 0 || key == "" {
		return
	}
	if _, ok := r.Resolve(table, id); ok {
		return
	}
	if r.runtime[table] == nil {
		r.runtime[table] = make(map[int]string)
	}
	r.runtime[table][id] = key
}
