package engine

// Entity type identifiers. Each names a snapshot table and the matching
// creation capability in the target system.
const (
	TypeTag                = "extras_tag"
	TypeManufacturer       = "dcim_manufacturer"
	TypePlatform           = "dcim_platform"
	TypeRIR                = "ipam_rir"
	TypeTenantGroup        = "tenancy_tenantgroup"
	TypeTenant             = "tenancy_tenant"
	TypeContactRole        = "tenancy_contactrole"
	TypeContactGroup       = "tenancy_contactgroup"
	TypeContact            = "tenancy_contact"
	TypeProvider           = "circuits_provider"
	TypeRegion             = "dcim_region"
	TypeSiteGroup          = "dcim_sitegroup"
	TypeSite               = "dcim_site"
	TypeLocation           = "dcim_location"
	TypeRackRole           = "dcim_rackrole"
	TypeDeviceRole         = "dcim_devicerole"
	TypeDeviceType         = "dcim_devicetype"
	TypeModuleType         = "dcim_moduletype"
	TypeIPAMRole           = "ipam_role"
	TypeVLANGroup          = "ipam_vlangroup"
	TypeCircuitType        = "circuits_circuittype"
	TypeClusterType        = "virtualization_clustertype"
	TypeWLANGroup          = "wireless_wirelesslangroup"
	TypeRack               = "dcim_rack"
	TypePowerPanel         = "dcim_powerpanel"
	TypePowerFeed          = "dcim_powerfeed"
	TypeCluster            = "virtualization_cluster"
	TypeVLAN               = "ipam_vlan"
	TypeWirelessLAN        = "wireless_wirelesslan"
	TypeCircuit            = "circuits_circuit"
	TypeDevice             = "dcim_device"
	TypeVirtualMachine     = "virtualization_virtualmachine"
	TypeInterface          = "dcim_interface"
	TypeConsolePort        = "dcim_consoleport"
	TypeConsoleServerPort  = "dcim_consoleserverport"
	TypePowerPort          = "dcim_powerport"
	TypePowerOutlet        = "dcim_poweroutlet"
	TypeFrontPort          = "dcim_frontport"
	TypeRearPort           = "dcim_rearport"
	TypeModuleBay          = "dcim_modulebay"
	TypeVMInterface        = "virtualization_vminterface"
	TypeAggregate          = "ipam_aggregate"
	TypePrefix             = "ipam_prefix"
	TypeIPAddress          = "ipam_ipaddress"
	TypeCable              = "dcim_cable"
	TypeCircuitTermination = "circuits_circuittermination"
	TypeService            = "ipam_service"
)

// Tier is a group of entity types whose foreign keys are all satisfied by
// earlier tiers. Types within a tier run in the declared sub-order.
type Tier struct {
	Name  string
	Types []string
}

// tiers is the fixed migration schedule. Ordering violations are a
// programming error; the schedule is verified against typeDeps by a test,
// never at run time.
var tiers = []Tier{
	{Name: "foundation", Types: []string{
		TypeTag, TypeManufacturer, TypePlatform, TypeRIR,
		TypeTenantGroup, TypeTenant, TypeContactRole, TypeContactGroup,
		TypeContact, TypeProvider,
	}},
	{Name: "organization", Types: []string{
		TypeRegion, TypeSiteGroup, TypeSite, TypeLocation,
		TypeRackRole, TypeDeviceRole,
	}},
	{Name: "templates", Types: []string{
		TypeDeviceType, TypeModuleType, TypeIPAMRole, TypeVLANGroup,
		TypeCircuitType, TypeClusterType, TypeWLANGroup,
	}},
	{Name: "infrastructure", Types: []string{
		TypeRack, TypePowerPanel, TypePowerFeed, TypeCluster,
		TypeVLAN, TypeWirelessLAN, TypeCircuit,
	}},
	{Name: "devices", Types: []string{
		TypeDevice, TypeVirtualMachine,
	}},
	{Name: "components", Types: []string{
		TypeInterface, TypeConsolePort, TypeConsoleServerPort,
		TypePowerPort, TypePowerOutlet, TypeFrontPort, TypeRearPort,
		TypeModuleBay, TypeVMInterface,
	}},
	{Name: "connectivity", Types: []string{
		TypeAggregate, TypePrefix, TypeIPAddress, TypeCable,
		TypeCircuitTermination,
	}},
	{Name: "services", Types: []string{
		TypeService,
	}},
}

// typeDeps declares, per entity type, the entity types it references by
// foreign key. This is the dependency graph the tier schedule must respect.
var typeDeps = map[string][]string{
	TypePlatform:           {TypeManufacturer},
	TypeSite:               {TypeRegion, TypeSiteGroup, TypeTenant},
	TypeLocation:           {TypeSite},
	TypeDeviceType:         {TypeManufacturer},
	TypeModuleType:         {TypeManufacturer},
	TypeVLANGroup:          {TypeSite},
	TypeRack:               {TypeSite, TypeRackRole, TypeTenant},
	TypePowerPanel:         {TypeSite},
	TypePowerFeed:          {TypePowerPanel},
	TypeCluster:            {TypeClusterType, TypeSite},
	TypeVLAN:               {TypeSite, TypeVLANGroup, TypeIPAMRole},
	TypeWirelessLAN:        {TypeWLANGroup, TypeTenant, TypeVLAN},
	TypeCircuit:            {TypeProvider, TypeCircuitType},
	TypeDevice:             {TypeDeviceType, TypeDeviceRole, TypeSite, TypeRack, TypePlatform, TypeTenant},
	TypeVirtualMachine:     {TypeCluster},
	TypeInterface:          {TypeDevice},
	TypeConsolePort:        {TypeDevice},
	TypeConsoleServerPort:  {TypeDevice},
	TypePowerPort:          {TypeDevice},
	TypePowerOutlet:        {TypeDevice},
	TypeFrontPort:          {TypeDevice},
	TypeRearPort:           {TypeDevice},
	TypeModuleBay:          {TypeDevice},
	TypeVMInterface:        {TypeVirtualMachine},
	TypeAggregate:          {TypeRIR, TypeTenant},
	TypePrefix:             {TypeSite, TypeVLAN, TypeIPAMRole, TypeTenant},
	TypeIPAddress:          {TypeTenant, TypeInterface, TypeVMInterface},
	TypeCable:              {TypeInterface, TypeConsolePort, TypeConsoleServerPort, TypePowerPort, TypePowerOutlet, TypeFrontPort, TypeRearPort, TypeTenant},
	TypeCircuitTermination: {TypeCircuit, TypeSite},
	TypeService:            {TypeDevice, TypeVirtualMachine},
}

// Tiers returns the migration schedule.
func Tiers() []Tier {
	return tiers
}
