package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/config"
	"github.com/sells-group/peaksync/internal/db"
	"github.com/sells-group/peaksync/internal/osmdata"
	"github.com/sells-group/peaksync/internal/source"
	"github.com/sells-group/peaksync/internal/survey"
)

// datasets is everything a run reads before matching starts.
type datasets struct {
	surveyPath string
	mapPath    string
	peaks      []survey.Peak
	nodes      []*osmdata.Node
}

// loadDatasets resolves and fully loads both inputs. Any failure aborts the
// run before output is produced.
func loadDatasets(ctx context.Context, c *config.Config, res *source.Resolver) (*datasets, error) {
	d := &datasets{}

	var err error
	d.surveyPath, err = res.Resolve(ctx, c.Survey.Location, source.SurveyExts)
	if err != nil {
		return nil, eris.Wrap(err, "load survey")
	}
	d.peaks, err = survey.LoadFile(ctx, d.surveyPath, survey.Options{
		Format:    c.Survey.Format,
		Delimiter: firstRune(c.Survey.Delimiter),
		Sheet:     c.Survey.Sheet,
	})
	if err != nil {
		return nil, eris.Wrap(err, "load survey")
	}

	d.mapPath, d.nodes, err = loadMap(ctx, c, res)
	if err != nil {
		return nil, eris.Wrap(err, "load map")
	}

	return d, nil
}

func loadMap(ctx context.Context, c *config.Config, res *source.Resolver) (string, []*osmdata.Node, error) {
	if c.Map.Format == config.MapFormatPostGIS {
		pool, err := db.Connect(ctx, c.Map.DatabaseURL)
		if err != nil {
			return "", nil, err
		}
		defer pool.Close()

		nodes, err := osmdata.LoadPostGIS(ctx, pool, c.Map.Table)
		if err != nil {
			return "", nil, err
		}
		if err := osmdata.Validate(nodes); err != nil {
			return "", nil, err
		}
		zap.L().Info("osmdata: loaded map peaks",
			zap.String("component", "osmdata"),
			zap.String("table", c.Map.Table),
			zap.Int("peaks", len(nodes)),
		)
		return "postgis:" + c.Map.Table, nodes, nil
	}

	path, err := res.Resolve(ctx, c.Map.Location, source.MapExts)
	if err != nil {
		return "", nil, err
	}
	nodes, err := osmdata.LoadFile(ctx, path, c.Map.Format)
	if err != nil {
		return "", nil, err
	}
	return path, nodes, nil
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
