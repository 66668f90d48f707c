package commands

import (
	"github.com/ppiankov/awsatlas/internal/config"
	"github.com/ppiankov/awsatlas/internal/logging"
	"github.com/spf13/cobra"
	"log/slog"
)

var (
	verbose bool
	profile string
	version string
	commit  string
	date    string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "awsatlas",
	Short: "awsatlas — AWS infrastructure documentation generator",
	Long: `awsatlas inventories an AWS account and documents it per environment.
It collects compute, networking, data, messaging, and identity resources,
groups them into environments by tag or name, and publishes Markdown pages,
Mermaid dependency diagrams, and a JSON inventory to a directory or S3 bucket.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)
		loaded, err := config.Load(".")
		if err != nil {
			slog.Warn("Failed to load config file", "error", err)
		} else {
			cfg = loaded
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with injected build info.
func Execute(v, c, d string) error {
	version = v
	commit = c
	date = d
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging and AWS call tracing")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS profile name")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
