package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/ppiankov/awsatlas/internal/storage"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "reports"

// Artifact is one rendered file.
type Artifact struct {
	Name string
	Data []byte
}

// PublishOptions controls where artifacts land.
type PublishOptions struct {
	Prefix  string
	Formats FormatSet
	// Date names the dated directory. Zero uses the data timestamp.
	Date time.Time
}

// Render produces every artifact for the enabled formats: per environment
// documentation and diagrams first, then the JSON inventory, then the index.
func Render(data Data, formats FormatSet) ([]Artifact, error) {
	var out []Artifact
	for _, env := range data.Environments() {
		if formats.Has(FormatMarkdown) {
			var buf bytes.Buffer
			if err := WriteMarkdown(&buf, env, data); err != nil {
				return nil, fmt.Errorf("render %s documentation: %w", env, err)
			}
			out = append(out, Artifact{Name: DocumentationFile(env), Data: buf.Bytes()})
		}
		if formats.Has(FormatMermaid) {
			g := data.Graph(env)
			if g == nil {
				continue
			}
			var buf bytes.Buffer
			if err := WriteMermaid(&buf, g); err != nil {
				return nil, fmt.Errorf("render %s diagram: %w", env, err)
			}
			out = append(out, Artifact{Name: DiagramFile(env), Data: buf.Bytes()})
		}
	}

	if formats.Has(FormatJSON) {
		var buf bytes.Buffer
		if err := (&JSONReporter{Writer: &buf}).Generate(data); err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: InventoryFile, Data: buf.Bytes()})
	}

	var buf bytes.Buffer
	if err := WriteIndex(&buf, data, formats); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	out = append(out, Artifact{Name: IndexFile, Data: buf.Bytes()})
	return out, nil
}

// Key returns the storage key of name under prefix and date.
func Key(prefix string, date time.Time, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return path.Join(prefix, date.UTC().Format("2006-01-02"), name)
}

// Publish renders and stores every artifact, the index last so it never
// links to a file that was not written. It returns the stored locations.
func Publish(ctx context.Context, store storage.BlobStore, data Data, opts PublishOptions) ([]string, error) {
	formats := opts.Formats
	if formats == nil {
		formats, _ = ParseFormats(nil)
	}
	date := opts.Date
	if date.IsZero() {
		date = data.Timestamp
	}

	artifacts, err := Render(data, formats)
	if err != nil {
		return nil, err
	}

	locations := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return locations, err
		}
		key := Key(opts.Prefix, date, a.Name)
		if err := store.Put(ctx, key, a.Data); err != nil {
			return locations, fmt.Errorf("publish %s: %w", a.Name, err)
		}
		loc := store.Location(key)
		slog.Debug("Published artifact", "location", loc, "bytes", len(a.Data))
		locations = append(locations, loc)
	}
	return locations, nil
}
