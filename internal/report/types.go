package report

import (
	"time"

	"github.com/ppiankov/awsatlas/internal/analyzer"
	"github.com/ppiankov/awsatlas/internal/graph"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// Data is everything a renderer needs from one run.
type Data struct {
	Tool      string
	Version   string
	RunID     string
	Timestamp time.Time
	Account   string
	Regions   []string

	Inventory *inventory.Inventory
	Analysis  *analyzer.AnalysisResult
	Graphs    []*graph.Graph
}

// Reporter renders a whole run to its writer.
type Reporter interface {
	Generate(data Data) error
}

// Graph returns the graph of env, or nil.
func (d Data) Graph(env string) *graph.Graph {
	for _, g := range d.Graphs {
		if g.Environment == env {
			return g
		}
	}
	return nil
}

// Environments returns the categorized environments in lexicographic order.
func (d Data) Environments() []string {
	if d.Analysis == nil || d.Analysis.Store == nil {
		return nil
	}
	return d.Analysis.Store.Environments()
}
