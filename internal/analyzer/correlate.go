package analyzer

import (
	"sort"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

// IdentifierIndex maps raw network and compute ids (subnets, VPCs, security
// groups, instances) to display names. It is built once from the unfiltered
// inventory and never modified afterwards.
type IdentifierIndex struct {
	names map[string]string
}

// Resolve returns the display name for id, or id itself when unknown.
func (x IdentifierIndex) Resolve(id string) string {
	if name, ok := x.names[id]; ok {
		return name
	}
	return id
}

// Lookup returns the display name for id and whether it was indexed.
func (x IdentifierIndex) Lookup(id string) (string, bool) {
	name, ok := x.names[id]
	return name, ok
}

// Len returns the number of indexed ids.
func (x IdentifierIndex) Len() int {
	return len(x.names)
}

// Dependent is a resource that references a security group.
type Dependent struct {
	Kind inventory.Kind `json:"kind"`
	ID   string         `json:"id"`
	Name string         `json:"name"`
}

// String renders the dependent as "{Kind}: {Name}".
func (d Dependent) String() string {
	return d.Kind.Label() + ": " + d.Name
}

// SecurityGroupUsage maps a security group id to every resource that
// references it. Groups nobody references are absent.
type SecurityGroupUsage struct {
	users map[string][]Dependent
}

// Dependents returns the resources using group id in collection order.
func (u SecurityGroupUsage) Dependents(groupID string) []Dependent {
	return u.users[groupID]
}

// Labels returns the "{Kind}: {Name}" strings for group id.
func (u SecurityGroupUsage) Labels(groupID string) []string {
	deps := u.users[groupID]
	if len(deps) == 0 {
		return nil
	}
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.String()
	}
	return out
}

// InUse reports whether any resource references group id.
func (u SecurityGroupUsage) InUse(groupID string) bool {
	return len(u.users[groupID]) > 0
}

// Groups returns the referenced group ids in sorted order.
func (u SecurityGroupUsage) Groups() []string {
	ids := make([]string, 0, len(u.users))
	for id := range u.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildIndices builds the identifier index and the security group usage
// index from the full inventory. Both span every environment.
func BuildIndices(inv *inventory.Inventory) (IdentifierIndex, SecurityGroupUsage) {
	ids := IdentifierIndex{names: make(map[string]string)}
	usage := SecurityGroupUsage{users: make(map[string][]Dependent)}
	if inv == nil {
		return ids, usage
	}

	add := func(id, tagName, name string) {
		if id == "" {
			return
		}
		if _, seen := ids.names[id]; seen {
			return
		}
		switch {
		case tagName != "":
			ids.names[id] = tagName
		case name != "":
			ids.names[id] = name
		default:
			ids.names[id] = id
		}
	}

	for _, s := range inv.Subnets {
		add(s.ID, s.Name, "")
	}
	for _, kind := range []inventory.Kind{inventory.KindVPCs, inventory.KindSecurityGroups, inventory.KindInstances} {
		for _, r := range inv.Records(kind) {
			nameTag, _ := inventory.TagValue(r.Tags, "Name")
			add(r.ID, nameTag, r.Name)
		}
	}

	for _, kind := range inventory.Kinds {
		for _, r := range inv.Records(kind) {
			seen := make(map[string]bool, len(r.SecurityGroupIDs))
			for _, sg := range r.SecurityGroupIDs {
				if sg == "" || seen[sg] {
					continue
				}
				seen[sg] = true
				usage.users[sg] = append(usage.users[sg], Dependent{Kind: r.Kind, ID: r.ID, Name: r.Name})
			}
		}
	}

	return ids, usage
}
