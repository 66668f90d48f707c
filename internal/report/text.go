package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TextReporter prints a short scan summary for the terminal.
type TextReporter struct {
	Writer io.Writer
	// Locations lists where artifacts were published, if any.
	Locations []string
}

// Generate writes the summary.
func (r *TextReporter) Generate(data Data) error {
	w := r.Writer
	fmt.Fprintf(w, "%s %s\n", data.Tool, data.Version)
	if data.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", data.RunID)
	}
	if data.Account != "" {
		fmt.Fprintf(w, "Account: %s\n", data.Account)
	}
	fmt.Fprintf(w, "Regions: %s\n\n", strings.Join(data.Regions, ", "))

	if data.Analysis == nil || data.Analysis.Store == nil || data.Analysis.Store.Empty() {
		fmt.Fprintln(w, "No resources found.")
	} else {
		store := data.Analysis.Store
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ENVIRONMENT\tRESOURCES\tKINDS")
		for _, env := range store.Environments() {
			kinds := store.Kinds(env)
			names := make([]string, len(kinds))
			for i, k := range kinds {
				names[i] = string(k)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", env, store.Count(env), strings.Join(names, ","))
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("flush summary: %w", err)
		}
		fmt.Fprintf(w, "\nTotal: %d resources in %d environments\n", store.Count(""), len(store.Environments()))
	}

	if data.Analysis != nil && data.Analysis.Store != nil {
		if unavailable := data.Analysis.Store.Unavailable(); len(unavailable) > 0 {
			fmt.Fprintln(w, "\nUnavailable:")
			for _, res := range unavailable {
				fmt.Fprintf(w, "  %s %s\n", res.Kind, Notice(res))
			}
		}
		if errs := data.Analysis.Errors; len(errs) > 0 {
			fmt.Fprintf(w, "\n%d collection errors (run with --verbose for details)\n", len(errs))
		}
	}

	if len(r.Locations) > 0 {
		fmt.Fprintln(w, "\nPublished:")
		for _, loc := range r.Locations {
			fmt.Fprintf(w, "  %s\n", loc)
		}
	}
	return nil
}
