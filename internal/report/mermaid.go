package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/awsatlas/internal/graph"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

type nodeStyle struct {
	class string
	def   string
}

var nodeStyles = map[inventory.Kind]nodeStyle{
	inventory.KindInstances:           {"ec2Style", "fill:#FF9900,stroke:#333,stroke-width:2px"},
	inventory.KindFunctions:           {"lambdaStyle", "fill:#7D3F98,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindS3Buckets:           {"s3Style", "fill:#5A92B3,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindSecurityGroups:      {"sgStyle", "fill:#D12C2C,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindAPIGateways:         {"apiStyle", "fill:#3B48CC,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindVPCs:                {"netStyle", "fill:#248814,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindLoadBalancers:       {"lbStyle", "fill:#8C4FFF,stroke:#333,stroke-width:2px,color:#fff"},
	graph.KindTargetGroup:             {"tgStyle", "fill:#C8B3FF,stroke:#333,stroke-width:1px"},
	inventory.KindRDSInstances:        {"dbStyle", "fill:#2E73B8,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindNeptuneClusters:     {"dbStyle", "fill:#2E73B8,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindDynamoDBTables:      {"dbStyle", "fill:#2E73B8,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindElastiCacheClusters: {"dbStyle", "fill:#2E73B8,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindUserPools:           {"idStyle", "fill:#DD344C,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindECRRepositories:     {"containerStyle", "fill:#ED7100,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindEKSClusters:         {"containerStyle", "fill:#ED7100,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindECSClusters:         {"containerStyle", "fill:#ED7100,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindSQSQueues:           {"msgStyle", "fill:#FF4F8B,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindKinesisStreams:      {"msgStyle", "fill:#FF4F8B,stroke:#333,stroke-width:2px,color:#fff"},
	inventory.KindFirehoseStreams:     {"msgStyle", "fill:#FF4F8B,stroke:#333,stroke-width:2px,color:#fff"},
}

var externalStyle = nodeStyle{"extStyle", "fill:#fff,stroke:#999,stroke-width:1px,stroke-dasharray:4 2"}

// WriteMermaid renders an environment graph as a left-to-right flowchart.
// Nodes of the environment sit in one subgraph; external nodes sit outside
// it. Inferred edges are dotted.
func WriteMermaid(w io.Writer, g *graph.Graph) error {
	var b strings.Builder
	b.WriteString("graph LR;\n")

	ids := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[n.ID] = "n" + strconv.Itoa(i+1)
	}

	used := make(map[string]string)
	var internal, external []graph.Node
	for _, n := range g.Nodes {
		st := styleOf(n)
		used[st.class] = st.def
		if n.External {
			external = append(external, n)
		} else {
			internal = append(internal, n)
		}
	}

	b.WriteString("\n  %% Styles\n")
	classes := make([]string, 0, len(used))
	for c := range used {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		fmt.Fprintf(&b, "  classDef %s %s;\n", c, used[c])
	}

	env := strings.ToUpper(g.Environment)
	fmt.Fprintf(&b, "\n  subgraph %s[\"%s\"]\n", subgraphID(g.Environment), escapeLabel(env))
	for _, n := range internal {
		fmt.Fprintf(&b, "    %s:::%s;\n", shape(ids[n.ID], n), styleOf(n).class)
	}
	b.WriteString("  end\n")
	for _, n := range external {
		fmt.Fprintf(&b, "  %s:::%s;\n", shape(ids[n.ID], n), styleOf(n).class)
	}

	if len(g.Edges) > 0 {
		b.WriteString("\n  %% Connections\n")
	}
	for _, e := range g.Edges {
		arrow := "-->"
		if e.Inferred {
			arrow = "-.->"
		}
		label := e.Label
		if label == "" {
			label = string(e.Kind)
		}
		fmt.Fprintf(&b, "  %s %s|\"%s\"| %s;\n", ids[e.From], arrow, escapeLabel(label), ids[e.To])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func styleOf(n graph.Node) nodeStyle {
	if n.External {
		return externalStyle
	}
	if st, ok := nodeStyles[n.Kind]; ok {
		return st
	}
	return externalStyle
}

func shape(id string, n graph.Node) string {
	label := escapeLabel(n.Label)
	switch {
	case n.Kind == inventory.KindAPIGateways:
		return id + `{{"` + label + `"}}`
	case n.Kind == inventory.KindFunctions:
		return id + `(["` + label + `"])`
	case n.Kind.IsDatastore() || n.Kind == inventory.KindRDSInstances ||
		n.Kind == inventory.KindNeptuneClusters || n.Kind == inventory.KindElastiCacheClusters:
		return id + `[("` + label + `")]`
	}
	return id + `["` + label + `"]`
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func subgraphID(env string) string {
	var b strings.Builder
	b.WriteString("env_")
	for _, r := range env {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
