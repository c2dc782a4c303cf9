package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/source"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load both datasets and print counts",
	Long:  "Loads the survey and the map peaks with the configured readers and prints what was found, without matching or writing anything.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		data, err := loadDatasets(ctx, cfg, source.New(cfg.Fetch))
		if err != nil {
			return err
		}

		stats := osmdata.Summarize(data.nodes)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Survey: %s\n", data.surveyPath)
		fmt.Fprintf(out, "  peaks:                %d\n", len(data.peaks))
		fmt.Fprintf(out, "Map:    %s\n", data.mapPath)
		fmt.Fprintf(out, "  peak nodes:           %d\n", stats.Nodes)
		fmt.Fprintf(out, "  without coordinates:  %d\n", stats.Nodes-stats.WithPosition)
		fmt.Fprintf(out, "  with ele:             %d\n", stats.WithElevation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
