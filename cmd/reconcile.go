package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/config"
	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/osmxml"
	"github.com/sells-group/peaksync/internal/projection"
	"github.com/sells-group/peaksync/internal/reconcile"
	"github.com/sells-group/peaksync/internal/report"
	"github.com/sells-group/peaksync/internal/source"
	"github.com/sells-group/peaksync/internal/spatial"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match survey peaks against the map and write a change file",
	Long: `Loads the survey list and the map peaks, indexes the map peaks by projected
position and classifies every survey record:

  create  no same-named peak within match.radius; a new node is written
  update  exactly one same-named peak nearby; it is moved to the surveyed
          position and gains an ele tag if it has none
  skip    several same-named peaks nearby, left for manual review

The change file is written only if the whole run succeeds.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if out, _ := cmd.Flags().GetString("output"); out != "" {
			cfg.Output.Path = out
		}
		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		refresh, _ := cmd.Flags().GetBool("refresh")

		res := source.New(cfg.Fetch)
		res.Refresh = refresh

		summary, err := runReconcile(ctx, cfg, res, dryRun)
		if err != nil {
			return err
		}

		d := summary.Decisions
		fmt.Fprintf(cmd.OutOrStdout(), "%d survey peaks: %d created, %d updated, %d skipped (%d ambiguous, %d in place)\n",
			d.Total, d.Created, d.Updated, d.Skipped, d.Ambiguous, d.InPlace)
		if !dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.Output.Path)
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringP("output", "o", "", "change file path (default: output.path)")
	reconcileCmd.Flags().Bool("dry-run", false, "resolve and report without writing the change file")
	reconcileCmd.Flags().Bool("refresh", false, "re-download remote sources even if cached")
	rootCmd.AddCommand(reconcileCmd)
}

// runReconcile executes one reconcile run and returns its summary. Outputs
// are only written once every decision has been made.
func runReconcile(ctx context.Context, c *config.Config, res *source.Resolver, dryRun bool) (*report.Summary, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := zap.L().With(zap.String("component", "reconcile"), zap.String("command", "reconcile"), zap.String("run_id", runID))

	proj, err := projection.New(c.Projection.Zone, c.Projection.South)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: projection")
	}
	match, err := reconcile.MatcherFor(c.Match.NameCompare)
	if err != nil {
		return nil, err
	}

	data, err := loadDatasets(ctx, c, res)
	if err != nil {
		return nil, err
	}

	idx, err := spatial.FromNodes(proj, data.nodes)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: build index")
	}

	resolver, err := reconcile.NewResolver(idx, proj, reconcile.Options{
		Radius:      c.Match.Radius,
		MinDistance: c.Match.MinDistance,
		Match:       match,
	})
	if err != nil {
		return nil, err
	}

	decisions := resolver.ResolveAll(data.peaks)
	stats := reconcile.Tally(decisions)

	summary := &report.Summary{
		RunID:     runID,
		StartedAt: started.UTC(),
		DryRun:    dryRun,
		Inputs:    report.Inputs{Survey: data.surveyPath, Map: data.mapPath},
		Policy: report.Policy{
			Zone:        c.Projection.Zone,
			South:       c.Projection.South,
			Radius:      c.Match.Radius,
			NameCompare: c.Match.NameCompare,
			MinDistance: c.Match.MinDistance,
		},
		Survey:    len(data.peaks),
		Map:       report.NewMapCounts(osmdata.Summarize(data.nodes)),
		Decisions: stats,
	}

	if !dryRun {
		err := report.WriteAtomic(c.Output.Path, func(w io.Writer) error {
			_, err := osmxml.Write(w, c.Output.Generator, slices.Values(decisions))
			return err
		})
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: write change file")
		}
		summary.Output = c.Output.Path
	}

	if c.Output.ReportPath != "" {
		err := report.WriteAtomic(c.Output.ReportPath, func(w io.Writer) error {
			return report.WriteGeoJSON(w, decisions)
		})
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: write report")
		}
	}

	summary.DurationMs = time.Since(started).Milliseconds()
	if c.Output.SummaryPath != "" {
		err := report.WriteAtomic(c.Output.SummaryPath, func(w io.Writer) error {
			return report.WriteSummary(w, *summary)
		})
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: write summary")
		}
	}

	log.Info("reconcile: complete", append(stats.Fields(),
		zap.Bool("dry_run", dryRun),
		zap.Int64("duration_ms", summary.DurationMs),
	)...)

	return summary, nil
}
