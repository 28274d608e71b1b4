package commands

import (
	"context"
	"fmt"
	"os"

	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/config"
	"reviews-backend/internal/reviews"
	"reviews-backend/internal/store"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg config.Config
	tel telemetry.API = telemetry.SlogAPI{}
)

var rootCmd = &cobra.Command{
	Use:   "reviews-cli",
	Short: "reviews-cli scrapes, parses and merges review records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		loaded, err := config.Find(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "The configuration file, json5 or yaml.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// archive pushes records to the configured store, doing nothing when no
// store is configured.
func archive(ctx context.Context, source string, records []reviews.Record) error {
	if !cfg.Store.Enabled() {
		return nil
	}
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	clock, err := cfg.Clock()
	if err != nil {
		return err
	}
	_, err = store.NewStore(db).Push(ctx, store.PushRequest{
		Source:  source,
		Time:    clock.Now(),
		Records: records,
	})
	return err
}
