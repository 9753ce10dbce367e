package engine

import (
	"context"
	"strconv"

	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

// typeSpecs declares, per entity type, how raw records become creation
// payloads. Most types are fully declarative; the irregular ones (devices,
// cables, services, IP assignment, VLAN scoping) carry a build function.
var typeSpecs = map[string]typeSpec{
	TypeTag: {
		table: TypeTag,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "color", def: "9e9e9e"},
			{name: "description", def: ""},
		},
	},

	TypeManufacturer: {
		table:   TypeManufacturer,
		exclude: excludeManufacturer,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "description", def: ""},
		},
	},

	TypePlatform: {
		table:   TypePlatform,
		exclude: excludePlatform,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "description", def: ""},
		},
		refs: []refSpec{
			{field: "manufacturer", table: TypeManufacturer},
		},
	},

	TypeRIR:         nameSlugSpec(TypeRIR),
	TypeTenantGroup: nameSlugSpec(TypeTenantGroup),
	TypeTenant:      nameSlugSpec(TypeTenant),
	TypeContactRole: nameSlugSpec(TypeContactRole),

	TypeContactGroup: {
		table: TypeContactGroup,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "description"},
		},
		probe: probeBy("name"),
	},

	TypeContact: {
		table: TypeContact,
		fields: []fieldSpec{
			{name: "name"},
			{name: "email"},
			{name: "phone"},
			{name: "address"},
		},
		probe: probeBy("name"),
	},

	TypeProvider:  nameSlugSpec(TypeProvider),
	TypeRegion:    nameSlugSpec(TypeRegion),
	TypeSiteGroup: nameSlugSpec(TypeSiteGroup),

	TypeSite: {
		table: TypeSite,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "status", def: "active"},
			{name: "description", def: ""},
		},
		refs: []refSpec{
			{field: "region", table: TypeRegion},
			{field: "group", table: TypeSiteGroup},
			{field: "tenant", table: TypeTenant},
		},
	},

	TypeLocation: {
		table: TypeLocation,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
			{name: "status", def: "active"},
			{name: "description", def: ""},
		},
		refs: []refSpec{
			{field: "site", table: TypeSite, required: true},
		},
	},

	TypeRackRole:   nameSlugSpec(TypeRackRole),
	TypeDeviceRole: nameSlugSpec(TypeDeviceRole),

	TypeDeviceType: {
		table:   TypeDeviceType,
		key:     "slug",
		exclude: excludeByManufacturer(TypeDeviceType),
		fields: []fieldSpec{
			{name: "model"},
			{name: "slug"},
			{name: "u_height", def: 1},
			{name: "is_full_depth", def: false},
			{name: "part_number"},
			{name: "airflow"},
		},
		refs: []refSpec{
			{field: "manufacturer", table: TypeManufacturer, required: true},
		},
	},

	TypeModuleType: {
		table:   TypeModuleType,
		key:     "model",
		exclude: excludeByManufacturer(TypeModuleType),
		fields: []fieldSpec{
			{name: "model"},
			{name: "part_number"},
		},
		refs: []refSpec{
			{field: "manufacturer", table: TypeManufacturer, required: true},
		},
	},

	TypeIPAMRole: nameSlugSpec(TypeIPAMRole),

	TypeVLANGroup: {
		table: TypeVLANGroup,
		build: buildVLANGroup,
		probe: probeBy("name"),
	},

	TypeCircuitType: nameSlugSpec(TypeCircuitType),
	TypeClusterType: nameSlugSpec(TypeClusterType),
	TypeWLANGroup:   nameSlugSpec(TypeWLANGroup),

	TypeRack: {
		table: TypeRack,
		fields: []fieldSpec{
			{name: "name"},
			{name: "status", def: "active"},
			{name: "u_height"},
		},
		refs: []refSpec{
			{field: "site", table: TypeSite, required: true},
			{field: "role", table: TypeRackRole},
			{field: "tenant", table: TypeTenant},
		},
		probe: probeBy("name", "site"),
	},

	TypePowerPanel: {
		table: TypePowerPanel,
		fields: []fieldSpec{
			{name: "name"},
		},
		refs: []refSpec{
			{field: "site", table: TypeSite, required: true},
		},
	},

	TypePowerFeed: {
		table: TypePowerFeed,
		fields: []fieldSpec{
			{name: "name"},
			{name: "status", def: "active"},
		},
		refs: []refSpec{
			{field: "power_panel", table: TypePowerPanel, required: true},
		},
	},

	TypeCluster: {
		table: TypeCluster,
		fields: []fieldSpec{
			{name: "name"},
		},
		refs: []refSpec{
			{field: "type", table: TypeClusterType, required: true},
			{field: "site", table: TypeSite},
		},
		probe: probeBy("name"),
	},

	TypeVLAN: {
		table: TypeVLAN,
		fields: []fieldSpec{
			{name: "name"},
			{name: "vid"},
			{name: "status", def: "active"},
		},
		refs: []refSpec{
			{field: "site", table: TypeSite},
			{field: "group", table: TypeVLANGroup},
			{field: "role", table: TypeIPAMRole},
		},
	},

	TypeWirelessLAN: {
		table: TypeWirelessLAN,
		key:   "ssid",
		build: buildWirelessLAN,
		probe: probeBy("ssid"),
	},

	TypeCircuit: {
		table: TypeCircuit,
		key:   "cid",
		fields: []fieldSpec{
			{name: "cid"},
			{name: "status", def: "active"},
		},
		refs: []refSpec{
			{field: "provider", table: TypeProvider, required: true},
			{field: "type", table: TypeCircuitType, required: true},
		},
	},

	TypeDevice: {
		table:   TypeDevice,
		exclude: excludeDevice,
		build:   buildDevice,
	},

	TypeVirtualMachine: {
		table: TypeVirtualMachine,
		fields: []fieldSpec{
			{name: "name"},
			{name: "status", def: "active"},
			{name: "vcpus"},
			{name: "memory"},
			{name: "disk"},
		},
		refs: []refSpec{
			{field: "cluster", table: TypeCluster, required: true},
		},
	},

	TypeInterface: {
		table: TypeInterface,
		build: buildInterface,
	},

	TypeConsolePort:       consolePortSpec(TypeConsolePort),
	TypeConsoleServerPort: consolePortSpec(TypeConsoleServerPort),
	TypePowerPort:         devicePortSpec(TypePowerPort),
	TypePowerOutlet:       devicePortSpec(TypePowerOutlet),
	TypeFrontPort:         devicePortSpec(TypeFrontPort),
	TypeRearPort:          devicePortSpec(TypeRearPort),
	TypeModuleBay:         devicePortSpec(TypeModuleBay),

	TypeVMInterface: {
		table: TypeVMInterface,
		fields: []fieldSpec{
			{name: "name"},
			{name: "enabled", def: true},
			{name: "description"},
			{name: "mode"},
			{name: "mtu"},
			{name: "mac_address"},
		},
		refs: []refSpec{
			{field: "virtual_machine", table: TypeVirtualMachine, required: true},
		},
	},

	TypeAggregate: {
		table: TypeAggregate,
		key:   "prefix",
		fields: []fieldSpec{
			{name: "prefix"},
			{name: "description"},
			{name: "date_added"},
		},
		refs: []refSpec{
			{field: "rir", table: TypeRIR, required: true},
			{field: "tenant", table: TypeTenant},
		},
	},

	TypePrefix: {
		table: TypePrefix,
		key:   "prefix",
		build: buildPrefix,
	},

	TypeIPAddress: {
		table: TypeIPAddress,
		key:   "address",
		build: buildIPAddress,
	},

	TypeCable: {
		table: TypeCable,
		key:   "label",
		build: buildCable,
	},

	// Circuit terminations need a terminating object on the target side
	// that this snapshot cannot identify; they are deliberately skipped.
	TypeCircuitTermination: {
		table: TypeCircuitTermination,
		key:   "circuit",
		noop:  "circuit terminations are not migrated",
	},

	TypeService: {
		table: TypeService,
		build: buildService,
		probe: func(r *run, rec snapshot.Record, payload map[string]any) map[string]string {
			return map[string]string{
				"name":             stringValue(payload["name"]),
				"parent_object_id": stringValue(payload["parent_object_id"]),
			}
		},
	},
}

// nameSlugSpec covers the simple reference tables that only carry a name
// and a slug.
func nameSlugSpec(table string) typeSpec {
	return typeSpec{
		table: table,
		fields: []fieldSpec{
			{name: "name"},
			{name: "slug"},
		},
	}
}

// consolePortSpec covers console and console server ports.
func consolePortSpec(table string) typeSpec {
	return typeSpec{
		table: table,
		fields: []fieldSpec{
			{name: "name"},
			{name: "type", def: "rj-45"},
		},
		refs: []refSpec{
			{field: "device", table: TypeDevice, required: true},
		},
	}
}

// devicePortSpec covers the remaining device-scoped components.
func devicePortSpec(table string) typeSpec {
	return typeSpec{
		table: table,
		fields: []fieldSpec{
			{name: "name"},
		},
		refs: []refSpec{
			{field: "device", table: TypeDevice, required: true},
		},
	}
}

// probeBy builds an existence-probe query from payload fields.
func probeBy(fields ...string) func(*run, snapshot.Record, map[string]any) map[string]string {
	return func(r *run, rec snapshot.Record, payload map[string]any) map[string]string {
		query := make(map[string]string, len(fields))
		for _, field := range fields {
			query[field] = stringValue(payload[field])
		}
		return query
	}
}

// Exclusion rules. Each rule marks the record's id so dependents observe
// the exclusion in later tiers.

func excludeManufacturer(r *run, rec snapshot.Record) (string, bool) {
	if r.rules.excludedManufacturerName(rec.Str("name")) {
		r.excl.Mark(TypeManufacturer, rec.ID())
		return "manufacturer excluded by rule", true
	}
	return "", false
}

func excludePlatform(r *run, rec snapshot.Record) (string, bool) {
	if r.rules.excludedPlatformName(rec.Str("name")) || r.rules.excludedPlatformName(rec.Str("slug")) {
		r.excl.Mark(TypePlatform, rec.ID())
		return "platform excluded by rule", true
	}
	if mfr := rec.Int("manufacturer"); mfr != 0 && r.excl.Excluded(TypeManufacturer, mfr) {
		r.excl.Mark(TypePlatform, rec.ID())
		return "manufacturer excluded", true
	}
	return "", false
}

// excludeByManufacturer covers the template types whose only exclusion
// criterion is an excluded manufacturer.
func excludeByManufacturer(table string) func(*run, snapshot.Record) (string, bool) {
	return func(r *run, rec snapshot.Record) (string, bool) {
		if mfr := rec.Int("manufacturer"); mfr != 0 && r.excl.Excluded(TypeManufacturer, mfr) {
			r.excl.Mark(table, rec.ID())
			return "manufacturer excluded", true
		}
		return "", false
	}
}

func excludeDevice(r *run, rec snapshot.Record) (string, bool) {
	if dt := rec.Int("device_type"); dt != 0 && r.excl.Excluded(TypeDeviceType, dt) {
		r.excl.Mark(TypeDevice, rec.ID())
		return "device type excluded", true
	}
	if platform := rec.Int("platform"); platform != 0 && r.excl.Excluded(TypePlatform, platform) {
		r.excl.Mark(TypeDevice, rec.ID())
		return "platform excluded", true
	}
	return "", false
}

// Bespoke builders for the irregular types.

// buildVLANGroup scopes the group to its site, which requires the target's
// numeric site id.
func buildVLANGroup(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	payload := map[string]any{
		"name": rec.Str("name"),
		"slug": rec.Str("slug"),
	}
	if siteID := rec.Int("site"); siteID != 0 {
		if site, ok := r.resolver.Resolve(TypeSite, siteID); ok {
			if obj, ok := r.lookup(ctx, TypeSite, map[string]string{"name": site}); ok {
				payload["scope_type"] = "dcim.site"
				payload["scope_id"] = obj.ID
			}
		}
	}
	return payload, ""
}

// buildWirelessLAN attaches the optional VLAN by looking it up through its
// VID and site, since a VLAN name alone is not unique.
func buildWirelessLAN(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	payload := map[string]any{
		"ssid":   rec.Str("ssid"),
		"status": defaultStr(rec, "status", "active"),
	}
	r.optionalRef(payload, rec, "group", TypeWLANGroup, "group")
	copyTruthy(payload, rec, "description")
	r.optionalRef(payload, rec, "tenant", TypeTenant, "tenant")

	if vlanID := rec.Int("vlan"); vlanID != 0 {
		if vlanRec, ok := r.store.FindByID(TypeVLAN, vlanID); ok {
			query := map[string]string{"vid": strconv.Itoa(vlanRec.Int("vid"))}
			if siteID := vlanRec.Int("site"); siteID != 0 {
				if site, ok := r.resolver.Resolve(TypeSite, siteID); ok {
					query["site"] = site
				}
			}
			if obj, ok := r.lookup(ctx, TypeVLAN, query); ok {
				payload["vlan"] = obj.ID
			}
		}
	}

	copyTruthy(payload, rec, "auth_type", "auth_cipher", "auth_psk")
	return payload, ""
}

// buildInterface preserves an explicit enabled=false, which a plain
// truthy projection would drop.
func buildInterface(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	device, ok := r.resolver.Resolve(TypeDevice, rec.Int("device"))
	if !ok {
		return nil, "unresolved reference: device"
	}

	payload := map[string]any{
		"name":   rec.Str("name"),
		"device": map[string]any{"name": device},
		"type":   defaultStr(rec, "type", "1000base-t"),
	}
	if enabled, ok := rec.Bool("enabled"); ok {
		payload["enabled"] = enabled
	}
	copyTruthy(payload, rec, "mtu", "mode", "description")
	return payload, ""
}

func buildDevice(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	deviceType, ok := r.resolver.Resolve(TypeDeviceType, rec.Int("device_type"))
	if !ok {
		return nil, "unresolved reference: device_type"
	}
	role, ok := r.resolver.Resolve(TypeDeviceRole, rec.Int("role"))
	if !ok {
		return nil, "unresolved reference: role"
	}
	site, ok := r.resolver.Resolve(TypeSite, rec.Int("site"))
	if !ok {
		return nil, "unresolved reference: site"
	}

	payload := map[string]any{
		"name":        rec.Str("name"),
		"device_type": map[string]any{"slug": deviceType},
		"role":        map[string]any{"name": role},
		"site":        map[string]any{"name": site},
		"status":      defaultStr(rec, "status", "active"),
	}

	if rackID := rec.Int("rack"); rackID != 0 {
		if rack, ok := r.resolver.Resolve(TypeRack, rackID); ok {
			// Racks are only unique per site.
			payload["rack"] = map[string]any{
				"name": rack,
				"site": map[string]any{"name": site},
			}
		}
	}

	copyTruthy(payload, rec, "position", "face")

	if platformID := rec.Int("platform"); platformID != 0 && !r.excl.Excluded(TypePlatform, platformID) {
		if platform, ok := r.resolver.Resolve(TypePlatform, platformID); ok {
			payload["platform"] = map[string]any{"name": platform}
		}
	}

	r.optionalRef(payload, rec, "tenant", TypeTenant, "tenant")
	copyTruthy(payload, rec, "serial", "asset_tag", "airflow")
	return payload, ""
}

// buildPrefix handles the VLAN compound lookup: a VLAN is only unique
// together with its site.
func buildPrefix(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	payload := map[string]any{
		"prefix": rec.Str("prefix"),
		"status": defaultStr(rec, "status", "active"),
	}

	var siteName string
	if siteID := rec.Int("site"); siteID != 0 {
		if site, ok := r.resolver.Resolve(TypeSite, siteID); ok {
			siteName = site
			payload["site"] = map[string]any{"name": site}
		}
	}

	if vlanID := rec.Int("vlan"); vlanID != 0 {
		if vlan, ok := r.resolver.Resolve(TypeVLAN, vlanID); ok {
			if siteName != "" {
				payload["vlan"] = map[string]any{
					"name": vlan,
					"site": map[string]any{"name": siteName},
				}
			} else {
				payload["vlan"] = map[string]any{"name": vlan}
			}
		}
	}

	r.optionalRef(payload, rec, "role", TypeIPAMRole, "role")
	r.optionalRef(payload, rec, "tenant", TypeTenant, "tenant")
	copyTruthy(payload, rec, "description")
	return payload, ""
}

// buildIPAddress resolves the optional polymorphic assignment to an
// interface or VM interface. An unresolvable assignment just leaves the
// address unassigned.
func buildIPAddress(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	payload := map[string]any{
		"address": rec.Str("address"),
		"status":  defaultStr(rec, "status", "active"),
	}
	r.optionalRef(payload, rec, "tenant", TypeTenant, "tenant")
	copyTruthy(payload, rec, "description")

	objType := rec.Str("assigned_object_type")
	objID := rec.Int("assigned_object_id")
	if objType != "" && objID != 0 {
		if obj, ok := r.resolveComponent(ctx, objType, objID); ok {
			payload["assigned_object_type"] = objType
			payload["assigned_object_id"] = obj.ID
		}
	}

	return payload, ""
}

// buildCable requires at least one resolvable termination on each side;
// otherwise the whole cable is skipped, not failed.
func buildCable(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	aTerms := r.resolveTerminations(ctx, rec.List("a_terminations"))
	bTerms := r.resolveTerminations(ctx, rec.List("b_terminations"))
	if len(aTerms) == 0 || len(bTerms) == 0 {
		return nil, "unresolved cable termination"
	}

	payload := map[string]any{
		"a_terminations": aTerms,
		"b_terminations": bTerms,
		"type":           defaultStr(rec, "type", ""),
		"status":         defaultStr(rec, "status", "connected"),
	}
	r.optionalRef(payload, rec, "tenant", TypeTenant, "tenant")
	copyTruthy(payload, rec, "label", "color", "length", "length_unit", "description")
	return payload, ""
}

// buildService attaches the service to its generic parent: a device or a
// virtual machine, exactly one of which must resolve.
func buildService(ctx context.Context, r *run, rec snapshot.Record) (map[string]any, string) {
	var parentType, parentEntity, parentName string
	if device, ok := r.resolver.Resolve(TypeDevice, rec.Int("device")); ok {
		parentType, parentEntity, parentName = "dcim.device", TypeDevice, device
	} else if vm, ok := r.resolver.Resolve(TypeVirtualMachine, rec.Int("virtual_machine")); ok {
		parentType, parentEntity, parentName = "virtualization.virtualmachine", TypeVirtualMachine, vm
	} else {
		return nil, "no resolvable parent"
	}

	parent, ok := r.lookup(ctx, parentEntity, map[string]string{"name": parentName})
	if !ok {
		return nil, "parent not found in target"
	}

	payload := map[string]any{
		"name":               rec.Str("name"),
		"protocol":           defaultStr(rec, "protocol", "tcp"),
		"ports":              rec["ports"],
		"parent_object_type": parentType,
		"parent_object_id":   parent.ID,
	}
	copyTruthy(payload, rec, "description")
	return payload, ""
}
