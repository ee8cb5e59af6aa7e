// Package cmd is the maintenance CLI. Each command connects to the
// configured database, runs one routine and prints its report as JSON.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"adminpanel/internal/config"
	"adminpanel/internal/database"
	"adminpanel/internal/store"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Inspect and repair admin panel data",
	Long: `maintenance runs one-off data operations against the admin panel
database: backfilling order totals, reconciling customer order mirrors,
inspecting a single order and migrating phone-keyed customers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing them")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore connects using the environment configuration. The returned
// func disconnects the client.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	return store.NewMongo(client.Database(cfg.DBName)), closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
