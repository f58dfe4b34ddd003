package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/tool-catalog/pkg/toolcatalog/admin"
	"github.com/tendant/tool-catalog/pkg/toolcatalog/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := NewRootCommand(openFromEnv)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// opener connects to the configured catalog and blob store. The returned
// func releases them.
type opener func(ctx context.Context, verbose bool) (admin.AdminService, func() error, error)

// openFromEnv builds the stores from the same environment the server reads
func openFromEnv(ctx context.Context, verbose bool) (admin.AdminService, func() error, error) {
	serverConfig, err := config.LoadServerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !verbose {
		serverConfig.LogLevel = "warn"
	}
	logger := serverConfig.NewLogger(os.Stderr)
	logger.Debug("opening stores", "database", serverConfig.DatabaseType, "storage", serverConfig.Storage.Type)

	components, err := serverConfig.Build(ctx, logger, nil)
	if err != nil {
		return nil, nil, err
	}
	return admin.New(components.Catalog, components.BlobStore), components.Close, nil
}

func NewRootCommand(open opener) *cobra.Command {
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "toolcatalog-admin",
		Short: "Tool catalog admin CLI",
		Long: `Tool catalog admin CLI

Inspects the catalog and blob store configured through DATABASE_URL and
STORAGE_URL (or CONFIG_FILE). A .env file in the current directory is
loaded first; variables already set in the environment win.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	run := func(cmd *cobra.Command, fn func(ctx context.Context, svc admin.AdminService, out *printer) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, closeFn, err := open(ctx, verbose)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, svc, &printer{w: cmd.OutOrStdout(), json: jsonOutput})
	}

	rootCmd.AddCommand(NewListCommand(run))
	rootCmd.AddCommand(NewStatsCommand(run))
	rootCmd.AddCommand(NewVerifyCommand(run))

	return rootCmd
}
