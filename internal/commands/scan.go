package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/ppiankov/awsatlas/internal/analyzer"
	"github.com/ppiankov/awsatlas/internal/aws"
	"github.com/ppiankov/awsatlas/internal/graph"
	"github.com/ppiankov/awsatlas/internal/report"
	"github.com/ppiankov/awsatlas/internal/storage"
	"github.com/spf13/cobra"
)

const (
	defaultOutputDir   = "."
	defaultConcurrency = 4
	defaultTimeout     = 10 * time.Minute
)

var scanFlags struct {
	regions      []string
	allRegions   bool
	outputDir    string
	bucket       string
	prefix       string
	formats      []string
	activityDays int
	concurrency  int
	noProgress   bool
	timeout      time.Duration
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inventory AWS resources and publish documentation",
	Long: `Collect AWS resources across regions, group them by environment, and
publish per-environment Markdown documentation, Mermaid diagrams, a JSON
inventory, and an index README to a local directory or an S3 bucket.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&scanFlags.regions, "regions", nil, "Comma-separated region filter")
	scanCmd.Flags().BoolVar(&scanFlags.allRegions, "all-regions", false, "Scan all enabled regions")
	scanCmd.Flags().StringVarP(&scanFlags.outputDir, "output-dir", "o", defaultOutputDir, "Directory to write reports into")
	scanCmd.Flags().StringVar(&scanFlags.bucket, "bucket", "", "S3 bucket to publish reports to (overrides --output-dir)")
	scanCmd.Flags().StringVar(&scanFlags.prefix, "prefix", report.DefaultPrefix, "Key prefix for published reports")
	scanCmd.Flags().StringSliceVar(&scanFlags.formats, "formats", nil, "Artifacts to publish: markdown, mermaid, json (default: all)")
	scanCmd.Flags().IntVar(&scanFlags.activityDays, "activity-days", 0, "Add CloudWatch activity sums over this many days (0 disables)")
	scanCmd.Flags().IntVar(&scanFlags.concurrency, "concurrency", defaultConcurrency, "Regions scanned in parallel")
	scanCmd.Flags().BoolVar(&scanFlags.noProgress, "no-progress", false, "Disable progress output")
	scanCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", defaultTimeout, "Scan timeout")
}

func runScan(cmd *cobra.Command, _ []string) error {
	// Apply config file defaults where flags were not explicitly set
	applyConfigDefaults()

	ctx := cmd.Context()
	if scanFlags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scanFlags.timeout)
		defer cancel()
	}

	formats, err := report.ParseFormats(scanFlags.formats)
	if err != nil {
		return err
	}
	exclude, err := buildExclude(cfg.Exclude)
	if err != nil {
		return err
	}

	// Resolve profile from flag or config
	prof := profile
	if prof == "" {
		prof = cfg.Profile
	}

	client, err := aws.NewClient(ctx, prof, "")
	if err != nil {
		return enhanceError("initialize AWS client", err)
	}
	if verbose {
		client.EnableCallLogging()
	}

	regions, err := resolveRegions(ctx, client)
	if err != nil {
		return enhanceError("resolve regions", err)
	}
	slog.Info("Scanning regions", "count", len(regions), "regions", regions)

	account, err := client.AccountID(ctx)
	if err != nil {
		slog.Warn("Could not determine account id", "error", err)
	}

	scanner := aws.NewMultiRegionScanner(client, regions, scanFlags.concurrency, aws.ScanConfig{
		ActivityDays: scanFlags.activityDays,
		Exclude:      exclude,
	})
	if showProgress(os.Stderr) {
		scanner.SetProgressFn(progressPrinter(os.Stderr))
	}

	result, err := scanner.ScanAll(ctx)
	if err != nil {
		return enhanceError("scan resources", err)
	}
	inv := result.Inventory
	inv.Account = account
	slog.Info("Scan complete", "resources", result.ResourcesScanned, "errors", len(result.Errors))

	analysis, err := analyzer.Analyze(inv, analyzer.AnalyzerConfig{
		RegionsScanned: result.RegionsScanned,
		Errors:         result.Errors,
	})
	if err != nil {
		return fmt.Errorf("analyze inventory: %w", err)
	}

	data := report.Data{
		Tool:      "awsatlas",
		Version:   version,
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Account:   account,
		Regions:   regions,
		Inventory: inv,
		Analysis:  analysis,
		Graphs:    graph.BuildAll(analysis.Store, analysis.IDs, analysis.Usage, inv),
	}

	store := selectStore(client)
	locations, err := report.Publish(ctx, store, data, report.PublishOptions{
		Prefix:  scanFlags.prefix,
		Formats: formats,
	})
	if err != nil {
		return enhanceError("publish report", err)
	}

	summary := &report.TextReporter{Writer: cmd.OutOrStdout(), Locations: locations}
	return summary.Generate(data)
}

func resolveRegions(ctx context.Context, client *aws.Client) ([]string, error) {
	if len(scanFlags.regions) > 0 {
		return scanFlags.regions, nil
	}

	// Check config file
	if len(cfg.Regions) > 0 {
		return cfg.Regions, nil
	}

	if scanFlags.allRegions {
		return client.ListEnabledRegions(ctx)
	}

	// Fall back to default region from AWS config
	region := client.Region()
	if region == "" {
		return nil, fmt.Errorf("no region specified; use --regions, --all-regions, or set AWS_REGION")
	}
	return []string{region}, nil
}

func applyConfigDefaults() {
	if !scanFlags.allRegions && cfg.AllRegions {
		scanFlags.allRegions = true
	}
	if scanFlags.outputDir == defaultOutputDir && cfg.OutputDir != "" {
		scanFlags.outputDir = cfg.OutputDir
	}
	if scanFlags.bucket == "" && cfg.Bucket != "" {
		scanFlags.bucket = cfg.Bucket
	}
	if scanFlags.prefix == report.DefaultPrefix && cfg.Prefix != "" {
		scanFlags.prefix = cfg.Prefix
	}
	if len(scanFlags.formats) == 0 && len(cfg.Formats) > 0 {
		scanFlags.formats = cfg.Formats
	}
	if scanFlags.activityDays == 0 && cfg.ActivityDays > 0 {
		scanFlags.activityDays = cfg.ActivityDays
	}
	if scanFlags.concurrency == defaultConcurrency && cfg.Concurrency > 0 {
		scanFlags.concurrency = cfg.Concurrency
	}
	if scanFlags.timeout == defaultTimeout && cfg.TimeoutDuration() > 0 {
		scanFlags.timeout = cfg.TimeoutDuration()
	}
}

func selectStore(client *aws.Client) storage.BlobStore {
	if scanFlags.bucket != "" {
		return storage.NewS3Store(client.Config(), scanFlags.bucket)
	}
	return storage.NewLocalStore(scanFlags.outputDir)
}

// showProgress reports whether progress lines should go to f. They are
// suppressed by --no-progress and when f is not a terminal.
func showProgress(f *os.File) bool {
	if scanFlags.noProgress {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func progressPrinter(w io.Writer) func(aws.ScanProgress) {
	return func(p aws.ScanProgress) {
		fmt.Fprintf(w, "[%s] %s: %s\n", p.Region, p.Collector, p.Message)
	}
}
