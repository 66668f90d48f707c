package report

import (
	"fmt"
	"strings"
)

// Format is a published artifact type.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatMermaid  Format = "mermaid"
	FormatJSON     Format = "json"
)

// AllFormats is the default artifact set.
var AllFormats = []Format{FormatMarkdown, FormatMermaid, FormatJSON}

// Artifact file names within a dated report directory.
const (
	IndexFile     = "README.md"
	InventoryFile = "inventory.json"
)

// DocumentationFile returns the Markdown file name of env.
func DocumentationFile(env string) string { return env + "-documentation.md" }

// DiagramFile returns the Mermaid file name of env.
func DiagramFile(env string) string { return env + "-diagram.mmd" }

// FormatSet is a set of enabled formats.
type FormatSet map[Format]bool

// Has reports whether f is enabled.
func (s FormatSet) Has(f Format) bool { return s[f] }

// ParseFormats validates format names. An empty list enables every format.
func ParseFormats(names []string) (FormatSet, error) {
	set := make(FormatSet)
	if len(names) == 0 {
		for _, f := range AllFormats {
			set[f] = true
		}
		return set, nil
	}
	for _, n := range names {
		switch f := Format(strings.ToLower(strings.TrimSpace(n))); f {
		case FormatMarkdown, FormatMermaid, FormatJSON:
			set[f] = true
		case "md":
			set[FormatMarkdown] = true
		case "mmd":
			set[FormatMermaid] = true
		default:
			return nil, fmt.Errorf("unsupported format: %s (use markdown, mermaid, or json)", n)
		}
	}
	return set, nil
}
