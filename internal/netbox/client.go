// Package netbox is the transport boundary to the target inventory system.
// The engine only depends on the Client interface; the HTTP implementation
// and the in-memory fake both satisfy it.
package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boxhaul-io/boxhaul/internal/logging"
)

// Object is a handle to an object that exists in the target system.
type Object struct {
	ID  int
	Key string
}

// Client is the creation and lookup capability the engine needs per
// entity type. Find returns nil when no object matches; a non-nil error
// means the lookup itself failed.
type Client interface {
	Create(ctx context.Context, entity string, payload map[string]any) (*Object, error)
	Find(ctx context.Context, entity string, query map[string]string) (*Object, error)
}

// apiPaths maps snapshot table names to NetBox REST API paths.
var apiPaths = map[string]string{
	"extras_tag":                    "extras/tags",
	"dcim_manufacturer":             "dcim/manufacturers",
	"dcim_platform":                 "dcim/platforms",
	"ipam_rir":                      "ipam/rirs",
	"tenancy_tenantgroup":           "tenancy/tenant-groups",
	"tenancy_tenant":                "tenancy/tenants",
	"tenancy_contactrole":           "tenancy/contact-roles",
	"tenancy_contactgroup":          "tenancy/contact-groups",
	"tenancy_contact":               "tenancy/contacts",
	"circuits_provider":             "circuits/providers",
	"dcim_region":                   "dcim/regions",
	"dcim_sitegroup":                "dcim/site-groups",
	"dcim_site":                     "dcim/sites",
	"dcim_location":                 "dcim/locations",
	"dcim_rackrole":                 "dcim/rack-roles",
	"dcim_devicerole":               "dcim/device-roles",
	"dcim_devicetype":               "dcim/device-types",
	"dcim_moduletype":               "dcim/module-types",
	"ipam_role":                     "ipam/roles",
	"ipam_vlangroup":                "ipam/vlan-groups",
	"circuits_circuittype":          "circuits/circuit-types",
	"virtualization_clustertype":    "virtualization/cluster-types",
	"wireless_wirelesslangroup":     "wireless/wireless-lan-groups",
	"dcim_rack":                     "dcim/racks",
	"dcim_powerpanel":               "dcim/power-panels",
	"dcim_powerfeed":                "dcim/power-feeds",
	"virtualization_cluster":        "virtualization/clusters",
	"ipam_vlan":                     "ipam/vlans",
	"wireless_wirelesslan":          "wireless/wireless-lans",
	"circuits_circuit":              "circuits/circuits",
	"dcim_device":                   "dcim/devices",
	"virtualization_virtualmachine": "virtualization/virtual-machines",
	"dcim_interface":                "dcim/interfaces",
	"dcim_consoleport":              "dcim/console-ports",
	"dcim_consoleserverport":        "dcim/console-server-ports",
	"dcim_powerport":                "dcim/power-ports",
	"dcim_poweroutlet":              "dcim/power-outlets",
	"dcim_frontport":                "dcim/front-ports",
	"dcim_rearport":                 "dcim/rear-ports",
	"dcim_modulebay":                "dcim/module-bays",
	"virtualization_vminterface":    "virtualization/interfaces",
	"ipam_aggregate":                "ipam/aggregates",
	"ipam_prefix":                   "ipam/prefixes",
	"ipam_ipaddress":                "ipam/ip-addresses",
	"dcim_cable":                    "dcim/cables",
	"circuits_circuittermination":   "circuits/circuit-terminations",
	"ipam_service":                  "ipam/services",
}

// HTTPClient talks to a live NetBox instance over its REST API.
type HTTPClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewHTTPClient builds a client for the given NetBox endpoint and API token.
func NewHTTPClient(rawURL, token string) (*HTTPClient, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid NetBox URL %s: %w", rawURL, err)
	}
	return &HTTPClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *HTTPClient) endpoint(entity string) (string, error) {
	path, ok := apiPaths[entity]
	if !ok {
		return "", fmt.Errorf("no API path for entity type %s", entity)
	}
	return c.base.JoinPath("api", path).String() + "/", nil
}

// Create POSTs a creation payload and returns the created object handle.
// NetBox error bodies are folded into the returned error message so the
// caller can classify uniqueness violations.
func (c *HTTPClient) Create(ctx context.Context, entity string, payload map[string]any) (*Object, error) {
	endpoint, err := c.endpoint(entity)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", entity, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create %s: %s: %s", entity, resp.Status, apiMessage(data))
	}

	var created map[string]any
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("create %s: failed to decode response: %w", entity, err)
	}
	return objectFrom(created), nil
}

// Find queries the list endpoint with the given parameters and returns the
// first match, or nil when the result set is empty.
func (c *HTTPClient) Find(ctx context.Context, entity string, query map[string]string) (*Object, error) {
	endpoint, err := c.endpoint(entity)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	for k, v := range query {
		params.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", entity, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("find %s: %s: %s", entity, resp.Status, apiMessage(data))
	}

	var list struct {
		Count   int              `json:"count"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("find %s: failed to decode response: %w", entity, err)
	}
	if list.Count == 0 || len(list.Results) == 0 {
		return nil, nil
	}
	if list.Count > 1 {
		logging.Debug("ambiguous lookup, using first match", "entity", entity, "count", list.Count)
	}
	return objectFrom(list.Results[0]), nil
}

func (c *HTTPClient) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// objectFrom extracts the id and a human-readable key from a NetBox
// object document.
func objectFrom(doc map[string]any) *Object {
	obj := &Object{}
	if id, ok := doc["id"].(float64); ok {
		obj.ID = int(id)
	}
	for _, field := range []string{"name", "model", "cid", "ssid", "address", "prefix", "slug"} {
		if s, ok := doc[field].(string); ok && s != "" {
			obj.Key = s
			break
		}
	}
	return obj
}

// apiMessage condenses a NetBox error body into a single line.
func apiMessage(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		var parts []string
		for field, v := range fields {
			parts = append(parts, fmt.Sprintf("%s: %v", field, v))
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
