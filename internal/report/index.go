package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/awsatlas/internal/analyzer"
)

// WriteIndex renders the README that links every environment's artifacts.
func WriteIndex(w io.Writer, data Data, formats FormatSet) error {
	var b strings.Builder
	b.WriteString("# AWS Infrastructure Report\n\n")
	fmt.Fprintf(&b, "_Generated on %s_\n\n", data.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))

	if data.Account != "" {
		fmt.Fprintf(&b, "* Account: `%s`\n", data.Account)
	}
	if len(data.Regions) > 0 {
		fmt.Fprintf(&b, "* Regions: %s\n", strings.Join(data.Regions, ", "))
	}

	var summary analyzer.Summary
	if data.Analysis != nil {
		summary = data.Analysis.Summary
	}
	fmt.Fprintf(&b, "* Resources: %d across %d environments (%d unclassified)\n", summary.TotalResources, summary.Environments, summary.Unclassified)

	b.WriteString("\n## Discovered Environments\n\n")
	envs := data.Environments()
	if len(envs) == 0 {
		b.WriteString("_No resources were found._\n")
	}
	for _, env := range envs {
		title := strings.ToUpper(env)
		if formats.Has(FormatMarkdown) {
			title = fmt.Sprintf("[%s](./%s)", title, DocumentationFile(env))
		}
		extra := []string{fmt.Sprintf("%d resources", summary.ByEnvironment[env])}
		if formats.Has(FormatMermaid) {
			extra = append(extra, fmt.Sprintf("[diagram](./%s)", DiagramFile(env)))
		}
		fmt.Fprintf(&b, "* %s (%s)\n", title, strings.Join(extra, ", "))
	}

	if data.Analysis != nil && data.Analysis.Store != nil {
		if unavailable := data.Analysis.Store.Unavailable(); len(unavailable) > 0 {
			b.WriteString("\n## Unavailable Resource Types\n\n")
			for _, r := range unavailable {
				fmt.Fprintf(&b, "* %s: _%s_\n", r.Kind.Title(), Notice(r))
			}
		}
	}

	if formats.Has(FormatJSON) {
		fmt.Fprintf(&b, "\nMachine-readable inventory: [%s](./%s)\n", InventoryFile, InventoryFile)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
