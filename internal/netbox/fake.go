package netbox

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client used by tests. It emulates the two target
// behaviors the engine depends on: uniqueness constraints that reject a
// duplicate create with a recognizable error message, and list lookups by
// exact field match.
type Fake struct {
	mu      sync.Mutex
	nextID  int
	objects map[string][]*FakeObject

	// unique lists the field combinations each entity type enforces
	// uniqueness on. Entities without an entry accept duplicates, which
	// models the "soft" target schemas that need an existence probe.
	unique map[string][][]string

	// CreateErr, when set, is consulted before every create; a non-nil
	// return is surfaced as the creation error.
	CreateErr func(entity string, payload map[string]any) error

	// FindErr, when set, is consulted before every lookup.
	FindErr func(entity string, query map[string]string) error
}

// FakeObject is a created object retained by the fake.
type FakeObject struct {
	ID      int
	Payload map[string]any
}

// NewFake returns a Fake preloaded with the uniqueness constraints the
// real target enforces on the entity types this tool creates.
func NewFake() *Fake {
	return &Fake{
		objects: make(map[string][]*FakeObject),
		unique: map[string][][]string{
			"extras_tag":                    {{"name"}},
			"dcim_manufacturer":             {{"name"}},
			"dcim_platform":                 {{"name"}},
			"ipam_rir":                      {{"name"}},
			"tenancy_tenantgroup":           {{"name"}},
			"tenancy_tenant":                {{"name"}},
			"tenancy_contactrole":           {{"name"}},
			"circuits_provider":             {{"name"}},
			"dcim_region":                   {{"name"}},
			"dcim_sitegroup":                {{"name"}},
			"dcim_site":                     {{"name"}},
			"dcim_location":                 {{"name", "site"}},
			"dcim_rackrole":                 {{"name"}},
			"dcim_devicerole":               {{"name"}},
			"dcim_devicetype":               {{"slug"}},
			"dcim_moduletype":               {{"model"}},
			"ipam_role":                     {{"name"}},
			"circuits_circuittype":          {{"name"}},
			"virtualization_clustertype":    {{"name"}},
			"wireless_wirelesslangroup":     {{"name"}},
			"dcim_powerpanel":               {{"name", "site"}},
			"dcim_powerfeed":                {{"name", "power_panel"}},
			"ipam_vlan":                     {{"vid", "site"}},
			"circuits_circuit":              {{"cid"}},
			"dcim_device":                   {{"name"}},
			"virtualization_virtualmachine": {{"name"}},
			"dcim_interface":                {{"name", "device"}},
			"dcim_consoleport":              {{"name", "device"}},
			"dcim_consoleserverport":        {{"name", "device"}},
			"dcim_powerport":                {{"name", "device"}},
			"dcim_poweroutlet":              {{"name", "device"}},
			"dcim_frontport":                {{"name", "device"}},
			"dcim_rearport":                 {{"name", "device"}},
			"dcim_modulebay":                {{"name", "device"}},
			"virtualization_vminterface":    {{"name", "virtual_machine"}},
			"ipam_aggregate":                {{"prefix"}},
			"ipam_prefix":                   {{"prefix"}},
			"ipam_ipaddress":                {{"address"}},
		},
	}
}

// Create stores the payload and returns a handle, or a "must be unique"
// error when the entity's uniqueness constraints are violated.
func (f *Fake) Create(ctx context.Context, entity string, payload map[string]any) (*Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		if err := f.CreateErr(entity, payload); err != nil {
			return nil, err
		}
	}

	for _, fields := range f.unique[entity] {
		for _, existing := range f.objects[entity] {
			if matchesFields(existing.Payload, payload, fields) {
				return nil, fmt.Errorf("create %s: the fields %v must be unique", entity, fields)
			}
		}
	}

	f.nextID++
	obj := &FakeObject{ID: f.nextID, Payload: payload}
	f.objects[entity] = append(f.objects[entity], obj)

	return &Object{ID: obj.ID, Key: flatten(payload["name"])}, nil
}

// Find returns the first stored object whose payload matches every query
// field, or nil when none does.
func (f *Fake) Find(ctx context.Context, entity string, query map[string]string) (*Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FindErr != nil {
		if err := f.FindErr(entity, query); err != nil {
			return nil, err
		}
	}

	for _, obj := range f.objects[entity] {
		match := true
		for field, want := range query {
			if flatten(obj.Payload[field]) != want {
				match = false
				break
			}
		}
		if match {
			return &Object{ID: obj.ID, Key: flatten(obj.Payload["name"])}, nil
		}
	}
	return nil, nil
}

// Objects returns the created objects for an entity type, in creation order.
func (f *Fake) Objects(entity string) []*FakeObject {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeObject(nil), f.objects[entity]...)
}

// CreatedCount returns the total number of objects stored across all
// entity types.
func (f *Fake) CreatedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, objs := range f.objects {
		n += len(objs)
	}
	return n
}

// matchesFields reports whether two payloads agree on every listed field.
func matchesFields(a, b map[string]any, fields []string) bool {
	for _, field := range fields {
		if flatten(a[field]) != flatten(b[field]) {
			return false
		}
	}
	return true
}

// flatten reduces a payload value to a comparable string. Resolved FK
// sub-objects compare by their name or slug.
func flatten(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return name
		}
		if slug, ok := val["slug"].(string); ok {
			return slug
		}
		return fmt.Sprintf("%v", val)
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
