package analyzer

import (
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// Analyze categorizes the inventory, builds the correlation indices and
// computes aggregated summary statistics.
func Analyze(inv *inventory.Inventory, cfg AnalyzerConfig) (*AnalysisResult, error) {
	store, err := Categorize(inv)
	if err != nil {
		return nil, err
	}
	ids, usage := BuildIndices(inv)

	return &AnalysisResult{
		Store:   store,
		IDs:     ids,
		Usage:   usage,
		Summary: Summarize(store, cfg.RegionsScanned),
		Errors:  cfg.Errors,
	}, nil
}

// Summarize counts records by environment and kind.
func Summarize(store *Store, regions int) Summary {
	summary := Summary{
		RegionsScanned: regions,
		ByEnvironment:  make(map[string]int),
		ByKind:         make(map[string]int),
	}

	for _, env := range store.Environments() {
		for _, kind := range store.Kinds(env) {
			n := len(store.Records(env, kind))
			summary.TotalResources += n
			summary.ByEnvironment[env] += n
			summary.ByKind[string(kind)] += n
		}
	}
	summary.Environments = len(summary.ByEnvironment)
	summary.Unclassified = summary.ByEnvironment[inventory.NoCategory]

	for _, r := range store.Unavailable() {
		if summary.UnavailableKinds == nil {
			summary.UnavailableKinds = make(map[string]string)
		}
		summary.UnavailableKinds[string(r.Kind)] = r.Reason
	}
	return summary
}
