package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/awsatlas/internal/analyzer"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// Build derives the dependency graph of one environment. Records of env are
// the scope; references that leave the scope become external nodes. The
// inventory supplies cross-environment lookups and event source mappings and
// may be nil.
func Build(env string, store *analyzer.Store, ids analyzer.IdentifierIndex, usage analyzer.SecurityGroupUsage, inv *inventory.Inventory) *Graph {
	b := newBuilder(env, store, ids, usage, inv)

	b.gatewayRoutes()
	b.loadBalancerTargets()
	b.functionDatastores()
	b.eventSources()
	b.securityGroupPeers()
	b.securityGroupMembers()
	b.declaredLinks()

	return b.graph()
}

// BuildAll builds one graph per environment in lexicographic order.
func BuildAll(store *analyzer.Store, ids analyzer.IdentifierIndex, usage analyzer.SecurityGroupUsage, inv *inventory.Inventory) []*Graph {
	envs := store.Environments()
	graphs := make([]*Graph, 0, len(envs))
	for _, env := range envs {
		graphs = append(graphs, Build(env, store, ids, usage, inv))
	}
	return graphs
}

type builder struct {
	env   string
	store *analyzer.Store
	ids   analyzer.IdentifierIndex
	usage analyzer.SecurityGroupUsage
	inv   *inventory.Inventory

	nodes map[string]Node
	edges map[Edge]struct{}

	// all collected records, across environments
	all    map[inventory.Kind][]inventory.Record
	byNode map[string]inventory.Record
	byID   map[string]inventory.Record
	byName map[inventory.Kind]map[string]inventory.Record

	// records of env only
	scoped map[inventory.Kind]map[string]inventory.Record
}

func newBuilder(env string, store *analyzer.Store, ids analyzer.IdentifierIndex, usage analyzer.SecurityGroupUsage, inv *inventory.Inventory) *builder {
	b := &builder{
		env:    env,
		store:  store,
		ids:    ids,
		usage:  usage,
		inv:    inv,
		nodes:  make(map[string]Node),
		edges:  make(map[Edge]struct{}),
		all:    make(map[inventory.Kind][]inventory.Record),
		byNode: make(map[string]inventory.Record),
		byID:   make(map[string]inventory.Record),
		byName: make(map[inventory.Kind]map[string]inventory.Record),
		scoped: make(map[inventory.Kind]map[string]inventory.Record),
	}

	for _, kind := range inventory.Kinds {
		var records []inventory.Record
		if inv != nil {
			records = inv.Records(kind)
		} else {
			for _, e := range store.Environments() {
				records = append(records, store.Records(e, kind)...)
			}
		}
		b.all[kind] = records
		names := make(map[string]inventory.Record, len(records))
		for _, r := range records {
			b.byNode[NodeID(r.Kind, r.ID)] = r
			if _, ok := b.byID[r.ID]; !ok {
				b.byID[r.ID] = r
			}
			if _, ok := names[r.Name]; !ok {
				names[r.Name] = r
			}
		}
		b.byName[kind] = names
	}

	for _, kind := range store.Kinds(env) {
		names := make(map[string]inventory.Record)
		for _, r := range store.Records(env, kind) {
			b.nodes[NodeID(r.Kind, r.ID)] = Node{
				ID:    NodeID(r.Kind, r.ID),
				Kind:  r.Kind,
				Label: r.DisplayLabel(),
			}
			if _, ok := names[r.Name]; !ok {
				names[r.Name] = r
			}
		}
		b.scoped[kind] = names
	}
	return b
}

func (b *builder) addEdge(from, to string, kind EdgeKind, label string, inferred bool) {
	if from == "" || to == "" {
		return
	}
	b.edges[Edge{From: from, To: to, Kind: kind, Label: label, Inferred: inferred}] = struct{}{}
}

// recordNode returns the node of r, adding it as external when r belongs to
// another environment.
func (b *builder) recordNode(r inventory.Record) string {
	id := NodeID(r.Kind, r.ID)
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = Node{ID: id, Kind: r.Kind, Label: r.DisplayLabel(), External: true}
	}
	return id
}

// externalNode returns a node for something that matches no collected record.
func (b *builder) externalNode(kind inventory.Kind, key, label string) string {
	id := NodeID(kind, key)
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = Node{ID: id, Kind: kind, Label: label, External: true}
	}
	return id
}

// unavailable reports whether kind was denied or failed. Such a kind
// contributes no nodes, not even external ones.
func (b *builder) unavailable(kind inventory.Kind) bool {
	if b.inv != nil {
		return b.inv.Result(kind).Unavailable()
	}
	return b.store.Status(kind).Unavailable()
}

// namedNode returns "" when kind is unavailable and name matches nothing,
// which makes addEdge drop the edge.
func (b *builder) namedNode(kind inventory.Kind, name string) string {
	if r, ok := b.byName[kind][name]; ok {
		return b.recordNode(r)
	}
	if b.unavailable(kind) {
		return ""
	}
	return b.externalNode(kind, name, kind.Label()+": "+name)
}

func (b *builder) gatewayRoutes() {
	for _, api := range b.store.Records(b.env, inventory.KindAPIGateways) {
		from := NodeID(api.Kind, api.ID)
		for _, route := range api.Routes {
			fn, ok := FunctionName(route.Target)
			if !ok {
				continue
			}
			b.addEdge(from, b.namedNode(inventory.KindFunctions, fn), EdgeRoutes, route.Key, false)
		}
	}
}

func (b *builder) loadBalancerTargets() {
	for _, lb := range b.store.Records(b.env, inventory.KindLoadBalancers) {
		from := NodeID(lb.Kind, lb.ID)
		for _, l := range lb.Listeners {
			label := fmt.Sprintf("%s:%d", l.Protocol, l.Port)
			for _, tg := range l.TargetGroups {
				tgNode := b.targetGroupNode(tg)
				b.addEdge(from, tgNode, EdgeForwards, label, false)
				for _, t := range tg.Targets {
					var port string
					if t.Port > 0 {
						port = strconv.Itoa(int(t.Port))
					}
					b.addEdge(tgNode, b.memberNode(t.ID), EdgeTargets, port, false)
				}
			}
		}
	}
}

func (b *builder) targetGroupNode(tg inventory.TargetGroup) string {
	key := tg.ARN
	if key == "" {
		key = tg.Name
	}
	id := NodeID(KindTargetGroup, key)
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = Node{ID: id, Kind: KindTargetGroup, Label: "Target Group: " + tg.Name}
	}
	return id
}

// memberNode resolves a registered target: a collected record when one has
// that id, otherwise an external node named through the identifier index.
func (b *builder) memberNode(id string) string {
	if r, ok := b.byNode[NodeID(inventory.KindInstances, id)]; ok {
		return b.recordNode(r)
	}
	if r, ok := b.byID[id]; ok {
		return b.recordNode(r)
	}
	kind := KindExternal
	if strings.HasPrefix(id, "i-") && !b.unavailable(inventory.KindInstances) {
		kind = inventory.KindInstances
	}
	return b.externalNode(kind, id, b.ids.Resolve(id))
}

func (b *builder) functionDatastores() {
	var datastores []inventory.Kind
	for _, k := range inventory.Kinds {
		if k.IsDatastore() {
			datastores = append(datastores, k)
		}
	}

	for _, fn := range b.store.Records(b.env, inventory.KindFunctions) {
		if len(fn.EnvVars) == 0 {
			continue
		}
		from := NodeID(fn.Kind, fn.ID)
		keys := make([]string, 0, len(fn.EnvVars))
		for k := range fn.EnvVars {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := fn.EnvVars[key]
			if value == "" {
				continue
			}
			for _, kind := range datastores {
				for _, ds := range b.all[kind] {
					if ds.Name == "" || !strings.Contains(value, ds.Name) {
						continue
					}
					b.addEdge(from, b.recordNode(ds), EdgeReadsWrites, key, false)
				}
			}
		}
	}
}

func (b *builder) eventSources() {
	if b.inv == nil {
		return
	}
	for _, m := range b.inv.EventSourceMappings {
		fnName, ok := FunctionName(m.FunctionARN)
		if !ok {
			continue
		}
		fn, ok := b.scoped[inventory.KindFunctions][fnName]
		if !ok {
			continue
		}
		kind, srcName, ok := SourceFromARN(m.EventSourceARN)
		if !ok {
			continue
		}
		src, ok := b.scoped[kind][srcName]
		if !ok {
			continue
		}
		b.addEdge(NodeID(src.Kind, src.ID), NodeID(fn.Kind, fn.ID), EdgeTriggers, "", false)
	}
}

func (b *builder) dependentNode(d analyzer.Dependent) string {
	if r, ok := b.byNode[NodeID(d.Kind, d.ID)]; ok {
		return b.recordNode(r)
	}
	return b.externalNode(d.Kind, d.ID, d.String())
}

func (b *builder) securityGroupPeers() {
	for _, sg := range b.store.Records(b.env, inventory.KindSecurityGroups) {
		dests := b.usage.Dependents(sg.ID)
		if len(dests) == 0 {
			continue
		}
		for _, rule := range sg.Ingress {
			label := RuleLabel(rule)
			for _, peer := range rule.PeerGroups {
				for _, src := range b.usage.Dependents(peer) {
					from := b.dependentNode(src)
					for _, dst := range dests {
						to := b.dependentNode(dst)
						if from == to {
							continue
						}
						b.addEdge(from, to, EdgeAllows, label, true)
					}
				}
			}
		}
	}
}

func (b *builder) securityGroupNode(id string) string {
	if r, ok := b.byNode[NodeID(inventory.KindSecurityGroups, id)]; ok {
		return b.recordNode(r)
	}
	if b.unavailable(inventory.KindSecurityGroups) {
		return ""
	}
	return b.externalNode(inventory.KindSecurityGroups, id, inventory.KindSecurityGroups.Label()+": "+b.ids.Resolve(id))
}

func (b *builder) securityGroupMembers() {
	for _, kind := range b.store.Kinds(b.env) {
		for _, r := range b.store.Records(b.env, kind) {
			to := NodeID(r.Kind, r.ID)
			for _, sg := range r.SecurityGroupIDs {
				if sg == "" {
					continue
				}
				b.addEdge(b.securityGroupNode(sg), to, EdgeProtects, "", false)
			}
		}
	}
}

func (b *builder) declaredLinks() {
	for _, kind := range b.store.Kinds(b.env) {
		for _, r := range b.store.Records(b.env, kind) {
			from := NodeID(r.Kind, r.ID)
			for _, l := range r.Links {
				if l.Name == "" {
					continue
				}
				b.addEdge(from, b.namedNode(l.Kind, l.Name), EdgeDelivers, l.Label, false)
			}
		}
	}
}

func (b *builder) graph() *Graph {
	g := &Graph{
		Environment: b.env,
		Nodes:       make([]Node, 0, len(b.nodes)),
		Edges:       make([]Edge, 0, len(b.edges)),
	}
	for _, n := range b.nodes {
		g.Nodes = append(g.Nodes, n)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })

	for e := range b.edges {
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		a, c := g.Edges[i], g.Edges[j]
		if a.From != c.From {
			return a.From < c.From
		}
		if a.To != c.To {
			return a.To < c.To
		}
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		if a.Label != c.Label {
			return a.Label < c.Label
		}
		return !a.Inferred && c.Inferred
	})
	return g
}
