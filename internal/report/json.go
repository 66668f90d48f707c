package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ppiankov/awsatlas/internal/analyzer"
	"github.com/ppiankov/awsatlas/internal/graph"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// JSONReporter writes the machine-readable inventory.
type JSONReporter struct {
	Writer io.Writer
}

type jsonDocument struct {
	Tool                string                          `json:"tool"`
	Version             string                          `json:"version"`
	RunID               string                          `json:"run_id,omitempty"`
	GeneratedAt         time.Time                       `json:"generated_at"`
	Account             string                          `json:"account,omitempty"`
	Regions             []string                        `json:"regions"`
	Summary             analyzer.Summary                `json:"summary"`
	Statuses            []inventory.Result              `json:"statuses"`
	Environments        []jsonEnvironment               `json:"environments"`
	SecurityGroupUsage  map[string][]analyzer.Dependent `json:"security_group_usage,omitempty"`
	EventSourceMappings []inventory.EventSourceMapping  `json:"event_source_mappings,omitempty"`
	Errors              []string                        `json:"errors,omitempty"`
}

type jsonEnvironment struct {
	Name      string        `json:"name"`
	Resources []jsonSection `json:"resources"`
	Graph     *graph.Graph  `json:"graph,omitempty"`
}

type jsonSection struct {
	Kind    inventory.Kind `json:"kind"`
	Records []jsonRecord   `json:"records"`
}

// jsonRecord adds flattened tags. Environment variable values are never
// written out.
type jsonRecord struct {
	inventory.Record
	Tags       map[string]string `json:"tags,omitempty"`
	EnvVarKeys []string          `json:"env_var_keys,omitempty"`
}

func newJSONRecord(r inventory.Record) jsonRecord {
	out := jsonRecord{Record: r, Tags: inventory.TagsToMap(r.Tags)}
	for k := range r.EnvVars {
		out.EnvVarKeys = append(out.EnvVarKeys, k)
	}
	sort.Strings(out.EnvVarKeys)
	return out
}

// Generate writes the inventory document.
func (r *JSONReporter) Generate(data Data) error {
	doc := jsonDocument{
		Tool:         data.Tool,
		Version:      data.Version,
		RunID:        data.RunID,
		GeneratedAt:  data.Timestamp,
		Account:      data.Account,
		Regions:      data.Regions,
		Environments: []jsonEnvironment{},
	}
	if data.Inventory != nil {
		doc.Statuses = data.Inventory.Statuses()
		doc.EventSourceMappings = data.Inventory.EventSourceMappings
	}

	if a := data.Analysis; a != nil {
		doc.Summary = a.Summary
		doc.Errors = a.Errors
		for _, id := range a.Usage.Groups() {
			if doc.SecurityGroupUsage == nil {
				doc.SecurityGroupUsage = make(map[string][]analyzer.Dependent)
			}
			doc.SecurityGroupUsage[id] = a.Usage.Dependents(id)
		}
		if a.Store != nil {
			for _, env := range a.Store.Environments() {
				e := jsonEnvironment{Name: env, Graph: data.Graph(env)}
				for _, kind := range a.Store.Kinds(env) {
					records := sortedRecords(a.Store.Records(env, kind))
					sec := jsonSection{Kind: kind, Records: make([]jsonRecord, 0, len(records))}
					for _, rec := range records {
						sec.Records = append(sec.Records, newJSONRecord(rec))
					}
					e.Resources = append(e.Resources, sec)
				}
				doc.Environments = append(doc.Environments, e)
			}
		}
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}
