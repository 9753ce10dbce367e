package engine

import (
	"context"

	"github.com/boxhaul-io/boxhaul/internal/netbox"
	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

// componentTarget describes how a polymorphic reference's concrete type
// tag maps onto a snapshot table and the parent that disambiguates the
// component's name in the target.
type componentTarget struct {
	table       string // snapshot table and target entity type
	parentField string // FK field naming the owning object, also the query param
	parentTable string // entity type of the owning object
}

// componentTargets covers the type tags that can appear on cable
// terminations and IP address assignments.
var componentTargets = map[string]componentTarget{
	"dcim.interface":             {TypeInterface, "device", TypeDevice},
	"dcim.consoleport":           {TypeConsolePort, "device", TypeDevice},
	"dcim.consoleserverport":     {TypeConsoleServerPort, "device", TypeDevice},
	"dcim.powerport":             {TypePowerPort, "device", TypeDevice},
	"dcim.poweroutlet":           {TypePowerOutlet, "device", TypeDevice},
	"dcim.frontport":             {TypeFrontPort, "device", TypeDevice},
	"dcim.rearport":              {TypeRearPort, "device", TypeDevice},
	"virtualization.vminterface": {TypeVMInterface, "virtual_machine", TypeVirtualMachine},
}

// resolveComponent turns a polymorphic (type tag, source id) reference
// into a target object handle. The chain is: find the source record, name
// its owning device or VM through the resolver, then query the target by
// the (name, parent) compound key. Any failed step resolves to not-found.
func (r *run) resolveComponent(ctx context.Context, objType string, objID int) (*netbox.Object, bool) {
	target, ok := componentTargets[objType]
	if !ok {
		return nil, false
	}

	rec, ok := r.store.FindByID(target.table, objID)
	if !ok {
		return nil, false
	}

	name := rec.Str("name")
	parentID := rec.Int(target.parentField)
	if name == "" || parentID == 0 {
		return nil, false
	}

	parent, ok := r.resolver.Resolve(target.parentTable, parentID)
	if !ok {
		return nil, false
	}

	return r.lookup(ctx, target.table, map[string]string{
		"name":             name,
		target.parentField: parent,
	})
}

// resolveTerminations resolves one side of a cable, dropping terminations
// that cannot be resolved.
func (r *run) resolveTerminations(ctx context.Context, terms []snapshot.Record) []map[string]any {
	var out []map[string]any
	for _, term := range terms {
		objType := term.Str("object_type")
		obj, ok := r.resolveComponent(ctx, objType, term.Int("object_id"))
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"object_type": objType,
			"object_id":   obj.ID,
		})
	}
	return out
}
