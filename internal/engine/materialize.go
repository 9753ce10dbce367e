package engine

import (
	"context"
	"fmt"

	"github.com/boxhaul-io/boxhaul/internal/logging"
	"github.com/boxhaul-io/boxhaul/internal/netbox"
	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

// fieldSpec projects one scalar field from a raw record into the payload.
// With a default, the field is always set (record value when present,
// default otherwise). Without one, the field is copied only when it holds
// a non-empty value.
type fieldSpec struct {
	name string
	def  any
}

// refSpec resolves one foreign key into a payload sub-object.
type refSpec struct {
	field    string // source FK field
	table    string // referenced entity type
	payload  string // payload field name; defaults to field
	sub      string // sub-object key, "name" unless overridden
	required bool
}

// typeSpec drives the materialization of one entity type. Regular types
// declare fields and refs; irregular ones supply a build function.
type typeSpec struct {
	table string
	// key is the payload field carrying the natural key; "name" unless set.
	key string
	// exclude applies the type's exclusion rule and marks the id. The
	// returned reason is surfaced on the Filtered outcome.
	exclude func(r *run, rec snapshot.Record) (string, bool)
	fields  []fieldSpec
	refs    []refSpec
	// build replaces the declarative projection for irregular types. A
	// non-empty skip reason means the record cannot be constructed.
	build func(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string)
	// probe builds the existence-check query for types whose target
	// schema does not enforce uniqueness on the natural key.
	probe func(r *run, rec snapshot.Record, payload map[string]any) map[string]string
	// noop marks a type that is deliberately not migrated; every record
	// is counted as skipped with this message.
	noop string
}

// naturalKey extracts the identifying value used for resolver entries and
// progress events.
func (s typeSpec) naturalKey(rec snapshot.Record, payload map[string]any) string {
	field := s.key
	if field == "" {
		field = "name"
	}
	if payload != nil {
		if v, ok := payload[field]; ok {
			if str := stringValue(v); str != "" {
				return str
			}
		}
	}
	if str := rec.Str(field); str != "" {
		return str
	}
	return fmt.Sprintf("%s/%d", s.table, rec.ID())
}

// processType walks one entity type's snapshot table in order. Only a
// cancelled context stops the walk; per-record problems become ledger
// entries.
func (r *run) processType(ctx context.Context, spec typeSpec) error {
	records := r.store.Table(spec.table)
	logging.Info("processing entity type", "type", spec.table, "records", len(records))

	if spec.noop != "" {
		for _, rec := range records {
			r.finish(spec.table, spec.naturalKey(rec, nil), nil, OutcomeFiltered, spec.noop)
		}
		return nil
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("migration interrupted: %w", err)
		}
		r.processRecord(ctx, spec, rec)
	}
	return nil
}

// processRecord runs the per-record pipeline: exclusion check, reference
// resolution, payload projection, upsert, resolver registration.
func (r *run) processRecord(ctx context.Context, spec typeSpec, rec snapshot.Record) {
	if spec.exclude != nil {
		if reason, excluded := spec.exclude(r, rec); excluded {
			r.finish(spec.table, spec.naturalKey(rec, nil), nil, OutcomeFiltered, reason)
			return
		}
	}

	var payload map[string]any
	var skip string
	if spec.build != nil {
		payload, skip = spec.build(ctx, r, rec)
	} else {
		payload, skip = r.project(spec, rec)
	}

	key := spec.naturalKey(rec, payload)
	if skip != "" {
		r.finish(spec.table, key, nil, OutcomeFiltered, skip)
		return
	}

	var probe map[string]string
	if spec.probe != nil {
		probe = spec.probe(r, rec, payload)
	}

	outcome, _, message := r.exec.Apply(ctx, spec.table, probe, payload)

	// An already-existing object must still become resolvable for later
	// tiers. Dry runs record nothing beyond the pre-seeded mappings.
	if (outcome == OutcomeCreated || outcome == OutcomeExists) && !r.dryRun {
		r.resolver.Record(spec.table, rec.ID(), key)
	}

	r.finish(spec.table, key, payload, outcome, message)
}

// project applies the declarative field and reference specs.
func (r *run) project(spec typeSpec, rec snapshot.Record) (map[string]any, string) {
	payload := make(map[string]any)

	for _, ref := range spec.refs {
		id := rec.Int(ref.field)
		if id == 0 {
			if ref.required {
				return nil, "missing reference: " + ref.field
			}
			continue
		}
		key, ok := r.resolver.Resolve(ref.table, id)
		if !ok {
			if ref.required {
				return nil, "unresolved reference: " + ref.field
			}
			continue
		}
		field := ref.payload
		if field == "" {
			field = ref.field
		}
		sub := ref.sub
		if sub == "" {
			sub = "name"
		}
		payload[field] = map[string]any{sub: key}
	}

	for _, f := range spec.fields {
		v, present := rec[f.name]
		if f.def != nil {
			if present && v != nil {
				payload[f.name] = v
			} else {
				payload[f.name] = f.def
			}
			continue
		}
		if truthy(v) {
			payload[f.name] = v
		}
	}

	return payload, ""
}

// finish books the outcome and emits the progress event.
func (r *run) finish(typ, key string, payload map[string]any, outcome Outcome, message string) {
	r.ledger.Record(typ, key, payload, outcome, message)
	if r.emit != nil {
		r.emit(Event{Type: typ, Key: key, Outcome: outcome, Message: message})
	}
	logging.Debug("record processed",
		"type", typ, "key", key, "outcome", outcome.String(), "message", message)
}

// lookup queries the target for zero-or-one object. Dry runs never contact
// the target; they optimistically treat every lookup as resolvable, since
// nothing will be sent anyway.
func (r *run) lookup(ctx context.Context, entity string, query map[string]string) (*netbox.Object, bool) {
	if r.dryRun {
		return &netbox.Object{}, true
	}
	obj, err := r.client.Find(ctx, entity, query)
	if err != nil {
		logging.Debug("target lookup failed", "entity", entity, "error", err)
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// optionalRef resolves an optional FK into payload[field]; unresolvable
// references just omit the field.
func (r *run) optionalRef(payload map[string]any, rec snapshot.Record, srcField, table, field string) {
	id := rec.Int(srcField)
	if id == 0 {
		return
	}
	if key, ok := r.resolver.Resolve(table, id); ok {
		payload[field] = map[string]any{"name": key}
	}
}

// copyTruthy copies the listed scalar fields when they hold a value.
func copyTruthy(payload map[string]any, rec snapshot.Record, fields ...string) {
	for _, field := range fields {
		if v, ok := rec[field]; ok && truthy(v) {
			payload[field] = v
		}
	}
}

// defaultStr returns a string field with a fallback for absent values.
func defaultStr(rec snapshot.Record, field, def string) string {
	if rec.Has(field) {
		return rec.Str(field)
	}
	return def
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// stringValue renders a payload value for display and resolver keys.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%v", val)
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return name
		}
		if slug, ok := val["slug"].(string); ok {
			return slug
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
