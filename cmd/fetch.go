package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/peaksync/internal/config"
	"github.com/sells-group/peaksync/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download remote survey and map sources",
	Long: `Downloads the configured survey and map locations into fetch.temp_dir so later
runs can reuse them. Both downloads run concurrently. Local paths are
checked and reported unchanged.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		res := source.New(cfg.Fetch)
		res.Refresh, _ = cmd.Flags().GetBool("refresh")

		type target struct {
			label    string
			location string
			exts     []string
		}
		targets := []target{
			{label: "survey", location: cfg.Survey.Location, exts: source.SurveyExts},
		}
		if cfg.Map.Format != config.MapFormatPostGIS {
			targets = append(targets, target{label: "map", location: cfg.Map.Location, exts: source.MapExts})
		}

		paths := make([]string, len(targets))
		g, gctx := errgroup.WithContext(ctx)
		for i, t := range targets {
			if t.location == "" {
				continue
			}
			g.Go(func() error {
				p, err := res.Resolve(gctx, t.location, t.exts)
				if err != nil {
					return eris.Wrapf(err, "fetch %s", t.label)
				}
				paths[i] = p
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, t := range targets {
			if paths[i] != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", t.label+":", paths[i])
			}
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("refresh", false, "re-download files already in fetch.temp_dir")
	rootCmd.AddCommand(fetchCmd)
}
