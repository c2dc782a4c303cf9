package osmdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/db"
)

// osm2pgsql --extra-attributes stores element metadata in the tags hstore
// under these keys. They are lifted out of the tag set.
const (
	metaVersion   = "osm_version"
	metaPrefix    = "osm_"
	peakCondition = `tags -> 'natural' = 'peak'`
)

// LoadPostGIS reads peak nodes from an osm2pgsql point table imported with
// --hstore-all --extra-attributes. Tags come back key-sorted because hstore
// keeps no order; rows with a NULL geometry load without a position.
func LoadPostGIS(ctx context.Context, pool db.Pool, table string) ([]*Node, error) {
	query := fmt.Sprintf(`
		SELECT osm_id,
			hstore_to_json(tags)::text,
			ST_AsEWKB(ST_Transform(way, 4326))
		FROM %s
		WHERE osm_id > 0 AND %s
		ORDER BY osm_id`, db.SanitizeTable(table), peakCondition)

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "osmdata: query %s", table)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		var (
			id       int64
			tagsJSON string
			wkb      []byte
		)
		if err := rows.Scan(&id, &tagsJSON, &wkb); err != nil {
			return nil, eris.Wrap(err, "osmdata: scan point row")
		}

		n, err := nodeFromRow(id, tagsJSON, wkb)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "osmdata: iterate point rows")
	}

	zap.L().Debug("osmdata: loaded postgis peaks",
		zap.String("component", "osmdata"),
		zap.String("table", table),
		zap.Int("peaks", len(nodes)),
	)

	return nodes, nil
}

func nodeFromRow(id int64, tagsJSON string, wkb []byte) (*Node, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(tagsJSON), &raw); err != nil {
		return nil, eris.Wrapf(err, "osmdata: decode tags for node %d", id)
	}

	version := 0
	if v, ok := raw[metaVersion]; ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, eris.Wrapf(err, "osmdata: parse version for node %d", id)
		}
		version = parsed
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if strings.HasPrefix(k, metaPrefix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make(Tags, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, Tag{Key: k, Value: raw[k]})
	}

	n := &Node{ID: id, Version: version, Tags: tags}
	if len(wkb) == 0 {
		return n, nil
	}

	g, err := ewkb.Unmarshal(wkb)
	if err != nil {
		return nil, eris.Wrapf(err, "osmdata: decode geometry for node %d", id)
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return nil, eris.Errorf("osmdata: node %d geometry is %T, want point", id, g)
	}
	n.Position = pt
	return n, nil
}
