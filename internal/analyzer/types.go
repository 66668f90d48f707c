package analyzer

// Summary holds aggregated statistics about a collected inventory.
type Summary struct {
	TotalResources   int               `json:"total_resources"`
	Environments     int               `json:"environments"`
	ByEnvironment    map[string]int    `json:"by_environment"`
	ByKind           map[string]int    `json:"by_kind"`
	Unclassified     int               `json:"unclassified"`
	UnavailableKinds map[string]string `json:"unavailable_kinds,omitempty"`
	RegionsScanned   int               `json:"regions_scanned"`
}

// AnalysisResult bundles the categorized store, the correlation indices and
// the summary computed from them.
type AnalysisResult struct {
	Store   *Store             `json:"-"`
	IDs     IdentifierIndex    `json:"-"`
	Usage   SecurityGroupUsage `json:"-"`
	Summary Summary            `json:"summary"`
	Errors  []string           `json:"errors,omitempty"`
}

// AnalyzerConfig controls analysis behavior.
type AnalyzerConfig struct {
	RegionsScanned int
	Errors         []string
}
