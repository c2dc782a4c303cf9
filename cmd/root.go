package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "peaksync",
	Short: "Reconcile surveyed peaks against OpenStreetMap",
	Long: `Matches an authoritative survey list of mountain peaks against the natural=peak
nodes of an OpenStreetMap extract and writes a JOSM-ready change file that
creates missing peaks and fills in missing elevations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
