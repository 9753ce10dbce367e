package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxhaul-io/boxhaul/internal/netbox"
	"github.com/boxhaul-io/boxhaul/internal/snapshot"
)

// writeTable writes one snapshot table file into the test data directory.
func writeTable(t *testing.T, dir, name string, records []map[string]any) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644))
}

func openStore(t *testing.T, dir string) *snapshot.Store {
	t.Helper()
	store, err := snapshot.Open(dir)
	require.NoError(t, err)
	return store
}

// vendorSnapshot writes a small two-vendor dataset: one Arista switch and
// one Cisco switch with an interface each, plus a cable between them.
func vendorSnapshot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTable(t, dir, TypeManufacturer, []map[string]any{
		{"id": 1, "name": "Arista", "slug": "arista"},
		{"id": 2, "name": "Cisco", "slug": "cisco"},
	})
	writeTable(t, dir, TypePlatform, []map[string]any{
		{"id": 1, "name": "EOS", "slug": "eos", "manufacturer": 1},
		{"id": 2, "name": "IOS-XE", "slug": "ios-xe", "manufacturer": 2},
	})
	writeTable(t, dir, TypeSite, []map[string]any{
		{"id": 1, "name": "dc1", "slug": "dc1", "status": "active"},
	})
	writeTable(t, dir, TypeDeviceRole, []map[string]any{
		{"id": 1, "name": "leaf", "slug": "leaf"},
	})
	writeTable(t, dir, TypeDeviceType, []map[string]any{
		{"id": 1, "model": "DCS-7050", "slug": "dcs-7050", "manufacturer": 1},
		{"id": 2, "model": "C9300", "slug": "c9300", "manufacturer": 2},
	})
	writeTable(t, dir, TypeDevice, []map[string]any{
		{"id": 1, "name": "leaf-arista", "device_type": 1, "role": 1, "site": 1, "platform": 1},
		{"id": 2, "name": "leaf-cisco", "device_type": 2, "role": 1, "site": 1, "platform": 2},
	})
	writeTable(t, dir, TypeInterface, []map[string]any{
		{"id": 1, "name": "Ethernet1", "device": 1, "type": "25gbase-x-sfp28"},
		{"id": 2, "name": "GigabitEthernet0/1", "device": 2, "type": "1000base-t"},
	})
	writeTable(t, dir, TypeCable, []map[string]any{
		{"id": 1, "label": "c1",
			"a_terminations": []map[string]any{{"object_type": "dcim.interface", "object_id": 1}},
			"b_terminations": []map[string]any{{"object_type": "dcim.interface", "object_id": 2}},
		},
	})
	return dir
}

func TestRunFiltersExcludedVendorChain(t *testing.T) {
	dir := vendorSnapshot(t)
	fake := netbox.NewFake()

	var events []Event
	eng := New(openStore(t, dir), fake, Options{
		ExcludedManufacturers: []string{"Arista"},
		ExcludedPlatforms:     []string{"eos"},
		OnEvent:               func(ev Event) { events = append(events, ev) },
	})

	report, err := eng.Run(context.Background())
	require.NoError(t, err)

	// Created: Cisco, IOS-XE, dc1, leaf, C9300, leaf-cisco, its interface.
	assert.Equal(t, 7, report.Created)
	assert.Equal(t, 0, report.Failed)

	outcomes := make(map[string]Outcome)
	for _, ev := range events {
		outcomes[ev.Type+"/"+ev.Key] = ev.Outcome
	}
	assert.Equal(t, OutcomeFiltered, outcomes[TypeManufacturer+"/Arista"])
	assert.Equal(t, OutcomeCreated, outcomes[TypeManufacturer+"/Cisco"])
	assert.Equal(t, OutcomeFiltered, outcomes[TypePlatform+"/EOS"])
	assert.Equal(t, OutcomeFiltered, outcomes[TypeDeviceType+"/dcs-7050"])
	assert.Equal(t, OutcomeFiltered, outcomes[TypeDevice+"/leaf-arista"])
	assert.Equal(t, OutcomeCreated, outcomes[TypeDevice+"/leaf-cisco"])
	// The excluded device never resolves, so its interface is skipped.
	assert.Equal(t, OutcomeFiltered, outcomes[TypeInterface+"/Ethernet1"])
	assert.Equal(t, OutcomeCreated, outcomes[TypeInterface+"/GigabitEthernet0/1"])
	// A cable with one end on a filtered device is skipped, not failed.
	assert.Equal(t, OutcomeFiltered, outcomes[TypeCable+"/c1"])

	// Nothing referencing the excluded vendor reached the target.
	for _, obj := range fake.Objects(TypeDevice) {
		assert.NotEqual(t, "leaf-arista", obj.Payload["name"])
	}
	assert.Empty(t, fake.Objects(TypeCable))
}

func TestRunIsIdempotent(t *testing.T) {
	dir := vendorSnapshot(t)
	fake := netbox.NewFake()
	opts := Options{ExcludedManufacturers: []string{"Arista"}, ExcludedPlatforms: []string{"eos"}}

	first, err := New(openStore(t, dir), fake, opts).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, first.Created)

	second, err := New(openStore(t, dir), fake, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Failed)
	// Everything is either filtered or detected as already existing.
	assert.Equal(t, first.Created+first.Skipped, second.Skipped)
	assert.Equal(t, 7, fake.CreatedCount())
}

func TestRunCompoundUniqueness(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TypeSite, []map[string]any{
		{"id": 1, "name": "dc1", "slug": "dc1"},
		{"id": 2, "name": "dc2", "slug": "dc2"},
	})
	writeTable(t, dir, TypeVLAN, []map[string]any{
		{"id": 1, "name": "servers", "vid": 100, "site": 1},
		{"id": 2, "name": "servers", "vid": 100, "site": 2},
	})
	writeTable(t, dir, TypeRack, []map[string]any{
		{"id": 1, "name": "R1", "site": 1, "u_height": 42},
		{"id": 2, "name": "R1", "site": 2, "u_height": 42},
	})

	fake := netbox.NewFake()
	report, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)

	// Same VLAN id and same rack name in different sites are distinct objects.
	assert.Equal(t, 6, report.Created)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, fake.Objects(TypeVLAN), 2)
	assert.Len(t, fake.Objects(TypeRack), 2)

	// Re-running creates nothing: VLANs hit the uniqueness constraint,
	// racks are found by the existence probe.
	again, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Len(t, fake.Objects(TypeRack), 2)
}

func TestRunDryRunContactsNothing(t *testing.T) {
	dir := vendorSnapshot(t)
	// Dry runs resolve references only through the pre-seeded mapping.
	seed := map[string]map[string]string{
		TypeManufacturer: {"1": "Arista", "2": "Cisco"},
		TypePlatform:     {"2": "IOS-XE"},
		TypeSite:         {"1": "dc1"},
		TypeDeviceRole:   {"1": "leaf"},
		TypeDeviceType:   {"1": "dcs-7050", "2": "c9300"},
		TypeDevice:       {"2": "leaf-cisco"},
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_mappings.json"), data, 0o644))

	fake := netbox.NewFake()
	fake.CreateErr = func(entity string, payload map[string]any) error {
		t.Fatalf("dry run sent a create for %s", entity)
		return nil
	}
	fake.FindErr = func(entity string, query map[string]string) error {
		t.Fatalf("dry run sent a lookup for %s", entity)
		return nil
	}

	report, runErr := New(openStore(t, dir), fake, Options{
		DryRun:                true,
		ExcludedManufacturers: []string{"Arista"},
		ExcludedPlatforms:     []string{"eos"},
	}).Run(context.Background())
	require.NoError(t, runErr)

	assert.Equal(t, 0, fake.CreatedCount())
	// Exclusion decisions still apply in dry runs.
	assert.Equal(t, 7, report.Created)
	assert.Equal(t, 0, report.Failed)
}

func TestRunFailureDoesNotStopRun(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TypeManufacturer, []map[string]any{
		{"id": 1, "name": "Cisco", "slug": "cisco"},
		{"id": 2, "name": "Dell", "slug": "dell"},
	})

	fake := netbox.NewFake()
	fake.CreateErr = func(entity string, payload map[string]any) error {
		if payload["name"] == "Cisco" {
			return assert.AnError
		}
		return nil
	}

	report, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, TypeManufacturer, report.Errors[0].Type)
	assert.Equal(t, "Cisco", report.Errors[0].Key)
}

func TestRunCancelledContextReturnsPartialReport(t *testing.T) {
	dir := vendorSnapshot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(openStore(t, dir), netbox.NewFake(), Options{}).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Created)
}

func TestRunUsesSeedMappings(t *testing.T) {
	dir := t.TempDir()
	// The site itself is not in the snapshot; only the seed mapping knows it.
	seed := map[string]map[string]string{
		TypeSite: {"7": "dc-legacy"},
	}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_mappings.json"), data, 0o644))

	writeTable(t, dir, TypeLocation, []map[string]any{
		{"id": 1, "name": "row-a", "slug": "row-a", "site": 7},
	})

	fake := netbox.NewFake()
	report, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	objs := fake.Objects(TypeLocation)
	require.Len(t, objs, 1)
	assert.Equal(t, map[string]any{"name": "dc-legacy"}, objs[0].Payload["site"])
}

func TestRunServiceAttachesToParent(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TypeSite, []map[string]any{{"id": 1, "name": "dc1", "slug": "dc1"}})
	writeTable(t, dir, TypeDeviceRole, []map[string]any{{"id": 1, "name": "leaf", "slug": "leaf"}})
	writeTable(t, dir, TypeManufacturer, []map[string]any{{"id": 1, "name": "Cisco", "slug": "cisco"}})
	writeTable(t, dir, TypeDeviceType, []map[string]any{
		{"id": 1, "model": "C9300", "slug": "c9300", "manufacturer": 1},
	})
	writeTable(t, dir, TypeDevice, []map[string]any{
		{"id": 1, "name": "leaf-1", "device_type": 1, "role": 1, "site": 1},
	})
	writeTable(t, dir, TypeService, []map[string]any{
		{"id": 1, "name": "ssh", "protocol": "tcp", "ports": []any{22}, "device": 1},
	})

	fake := netbox.NewFake()
	report, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Failed)

	svcs := fake.Objects(TypeService)
	require.Len(t, svcs, 1)
	assert.Equal(t, "dcim.device", svcs[0].Payload["parent_object_type"])
	device := fake.Objects(TypeDevice)[0]
	assert.Equal(t, device.ID, svcs[0].Payload["parent_object_id"])
}

func TestRunCircuitTerminationsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TypeCircuitTermination, []map[string]any{
		{"id": 1, "circuit": 1, "term_side": "A"},
		{"id": 2, "circuit": 1, "term_side": "Z"},
	})

	fake := netbox.NewFake()
	report, err := New(openStore(t, dir), fake, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, fake.Objects(TypeCircuitTermination))
}
