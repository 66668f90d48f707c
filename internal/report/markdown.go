package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/awsatlas/internal/analyzer"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// WriteMarkdown renders the documentation page of one environment. Every
// kind goes through the same section renderer: records become a list,
// denied or failed kinds a muted notice, and kinds absent from env are skipped.
func WriteMarkdown(w io.Writer, env string, data Data) error {
	m := &markdownWriter{data: data, multiRegion: len(data.Regions) > 1}
	if data.Analysis != nil {
		m.store = data.Analysis.Store
		m.ids = data.Analysis.IDs
		m.usage = data.Analysis.Usage
	}
	if m.store == nil {
		m.store = &analyzer.Store{}
	}

	fmt.Fprintf(&m.b, "## ENVIRONMENT: `%s`\n\n", strings.ToUpper(env))
	m.header(env)
	for _, kind := range inventory.Kinds {
		m.section(env, kind)
	}

	_, err := io.WriteString(w, m.b.String())
	return err
}

type markdownWriter struct {
	b           strings.Builder
	data        Data
	store       *analyzer.Store
	ids         analyzer.IdentifierIndex
	usage       analyzer.SecurityGroupUsage
	multiRegion bool
}

func (m *markdownWriter) header(env string) {
	parts := []string{"Generated " + m.data.Timestamp.UTC().Format("2006-01-02 15:04 UTC")}
	if m.data.Account != "" {
		parts = append(parts, "account `"+m.data.Account+"`")
	}
	if len(m.data.Regions) > 0 {
		parts = append(parts, "regions "+strings.Join(m.data.Regions, ", "))
	}
	fmt.Fprintf(&m.b, "_%s. %d resources._\n", strings.Join(parts, ", "), m.store.Count(env))
}

func (m *markdownWriter) section(env string, kind inventory.Kind) {
	status := m.store.Status(kind)
	records := m.store.Records(env, kind)

	switch {
	case status.Unavailable():
		fmt.Fprintf(&m.b, "\n### %s\n\n_%s_\n", kind.Title(), Notice(status))
	case len(records) > 0:
		fmt.Fprintf(&m.b, "\n### %s\n\n", kind.Title())
		for _, r := range sortedRecords(records) {
			m.record(r, 0)
		}
	}
}

// Notice is the muted text shown instead of a section's records.
func Notice(r inventory.Result) string {
	if r.Status == inventory.StatusDenied {
		return inventory.NoAccessReason
	}
	if r.Reason == "" {
		return "(COLLECTION FAILED)"
	}
	return "(COLLECTION FAILED: " + r.Reason + ")"
}

func sortedRecords(records []inventory.Record) []inventory.Record {
	out := append([]inventory.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *markdownWriter) line(depth int, format string, args ...any) {
	m.b.WriteString(strings.Repeat("  ", depth))
	m.b.WriteString("* ")
	fmt.Fprintf(&m.b, format, args...)
	m.b.WriteByte('\n')
}

func (m *markdownWriter) record(r inventory.Record, depth int) {
	if r.ID != "" && r.ID != r.Name {
		m.line(depth, "**%s** (`%s`)", r.Name, r.ID)
	} else {
		m.line(depth, "**%s**", r.Name)
	}
	d := depth + 1

	if m.multiRegion && r.Region != "" && depth == 0 {
		m.line(d, "Region: `%s`", r.Region)
	}
	for _, a := range r.Attrs {
		m.line(d, "%s: `%s`", a.Key, a.Value)
	}
	if r.VpcID != "" {
		m.line(d, "VPC: %s", m.ref(r.VpcID))
	}
	if len(r.SubnetIDs) > 0 {
		m.line(d, "Subnets: %s", m.refs(r.SubnetIDs))
	}
	if len(r.SecurityGroupIDs) > 0 {
		m.line(d, "Security Groups: %s", m.refs(r.SecurityGroupIDs))
	}
	if r.Kind == inventory.KindSecurityGroups {
		m.rules(d, "Inbound Rules", "from", r.Ingress)
		m.rules(d, "Outbound Rules", "to", r.Egress)
		if users := m.usage.Labels(r.ID); len(users) > 0 {
			m.line(d, "**Used by:** %s", strings.Join(users, ", "))
		} else {
			m.line(d, "**Used by:** _nothing_")
		}
	}
	for _, l := range r.Listeners {
		m.listener(d, l)
	}
	if len(r.Routes) > 0 {
		m.line(d, "**Routes:**")
		for _, rt := range r.Routes {
			if rt.Target == "" {
				m.line(d+1, "`%s`", rt.Key)
				continue
			}
			m.line(d+1, "`%s` → `%s`", rt.Key, rt.Target)
		}
	}
	if len(r.EnvVars) > 0 {
		keys := make([]string, 0, len(r.EnvVars))
		for k := range r.EnvVars {
			keys = append(keys, "`"+k+"`")
		}
		sort.Strings(keys)
		m.line(d, "Environment Variables: %s", strings.Join(keys, ", "))
	}
	for _, l := range r.Links {
		label := l.Label
		if label == "" {
			label = "delivers to"
		}
		m.line(d, "%s → %s: %s", label, l.Kind.Label(), l.Name)
	}
	m.children(d, r.Children)
}

// children groups nested records by kind, keeping first-seen kind order.
func (m *markdownWriter) children(depth int, children []inventory.Record) {
	var kinds []inventory.Kind
	byKind := make(map[inventory.Kind][]inventory.Record)
	for _, c := range children {
		if _, ok := byKind[c.Kind]; !ok {
			kinds = append(kinds, c.Kind)
		}
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}
	for _, k := range kinds {
		m.line(depth, "**%s:**", k.Title())
		for _, c := range byKind[k] {
			m.record(c, depth+1)
		}
	}
}

func (m *markdownWriter) rules(depth int, title, direction string, rules []inventory.Rule) {
	var lines []string
	for _, r := range rules {
		if s := m.formatRule(r, direction); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return
	}
	m.line(depth, "**%s:**", title)
	for _, l := range lines {
		m.line(depth+1, "%s", l)
	}
}

// formatRule renders "Allows port 443 (TCP) from `10.0.0.0/8`, group `sg-1 (web)`".
// Rules without any source render as "".
func (m *markdownWriter) formatRule(r inventory.Rule, direction string) string {
	proto := strings.ToUpper(r.Protocol)
	if r.Protocol == "-1" || r.Protocol == "" {
		proto = "All"
	}

	var ports string
	switch {
	case r.Protocol == "-1" || r.FromPort == nil || *r.FromPort == -1:
		ports = "all ports"
	case r.ToPort == nil || *r.FromPort == *r.ToPort:
		ports = "port " + strconv.Itoa(int(*r.FromPort))
	default:
		ports = fmt.Sprintf("ports %d-%d", *r.FromPort, *r.ToPort)
	}

	var peers []string
	for _, c := range r.CIDRs {
		peers = append(peers, "`"+c+"`")
	}
	for _, g := range r.PeerGroups {
		peers = append(peers, "group `"+m.label(g)+"`")
	}
	for _, p := range r.PrefixList {
		peers = append(peers, "prefix list `"+p+"`")
	}
	if len(peers) == 0 {
		return ""
	}
	return fmt.Sprintf("Allows %s (%s) %s %s", ports, proto, direction, strings.Join(peers, ", "))
}

func (m *markdownWriter) listener(depth int, l inventory.Listener) {
	m.line(depth, "Listener `%s:%d`", l.Protocol, l.Port)
	for _, tg := range l.TargetGroups {
		if len(tg.Targets) == 0 {
			m.line(depth+1, "Target Group `%s`: _no targets_", tg.Name)
			continue
		}
		targets := make([]string, 0, len(tg.Targets))
		for _, t := range tg.Targets {
			s := "`" + m.label(t.ID) + "`"
			if t.Port > 0 {
				s += " port " + strconv.Itoa(int(t.Port))
			}
			if t.Health != "" {
				s += " " + t.Health
			}
			targets = append(targets, s)
		}
		m.line(depth+1, "Target Group `%s`: %s", tg.Name, strings.Join(targets, ", "))
	}
}

// label renders an id with its display name when the index knows one.
func (m *markdownWriter) label(id string) string {
	if name := m.ids.Resolve(id); name != id {
		return id + " (" + name + ")"
	}
	return id
}

func (m *markdownWriter) ref(id string) string {
	return "`" + m.label(id) + "`"
}

func (m *markdownWriter) refs(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.ref(id)
	}
	return strings.Join(out, ", ")
}
