// Package osmxml writes reconcile decisions as an OSM 0.6 change document
// that JOSM can open and upload.
package osmxml

import (
	"encoding/xml"
	"io"
	"iter"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/peaksync/internal/reconcile"
)

// Version is the OSM API version written on the root element.
const Version = "0.6"

const actionModify = "modify"

type xmlTag struct {
	XMLName xml.Name `xml:"tag"`
	Key     string   `xml:"k,attr"`
	Value   string   `xml:"v,attr"`
}

type xmlNode struct {
	XMLName xml.Name `xml:"node"`
	ID      int64    `xml:"id,attr"`
	Action  string   `xml:"action,attr,omitempty"`
	Version int      `xml:"version,attr,omitempty"`
	Lat     string   `xml:"lat,attr"`
	Lon     string   `xml:"lon,attr"`
	Tags    []xmlTag `xml:"tag"`
}

// Result counts what was written.
type Result struct {
	Created int
	Updated int
	Omitted int
}

// Write emits one node element per Create or Update decision, in sequence
// order. Skip decisions produce no element.
func Write(w io.Writer, generator string, decisions iter.Seq[reconcile.Decision]) (Result, error) {
	var res Result

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return res, eris.Wrap(err, "osmxml: write header")
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "osm"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: Version}},
	}
	if generator != "" {
		root.Attr = append(root.Attr, xml.Attr{Name: xml.Name{Local: "generator"}, Value: generator})
	}
	if err := enc.EncodeToken(root); err != nil {
		return res, eris.Wrap(err, "osmxml: open root")
	}

	for d := range decisions {
		node, ok := toXML(d)
		if !ok {
			res.Omitted++
			zap.L().Debug("osmxml: omitting skipped peak",
				zap.String("component", "osmxml"),
				zap.String("name", d.Peak.Name),
				zap.String("reason", d.Reason),
			)
			continue
		}
		if err := enc.Encode(node); err != nil {
			return res, eris.Wrapf(err, "osmxml: encode node %d", d.ID)
		}
		if d.Kind == reconcile.Create {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return res, eris.Wrap(err, "osmxml: close root")
	}
	if err := enc.Flush(); err != nil {
		return res, eris.Wrap(err, "osmxml: flush")
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return res, eris.Wrap(err, "osmxml: write trailer")
	}
	return res, nil
}

func toXML(d reconcile.Decision) (xmlNode, bool) {
	var n xmlNode
	switch d.Kind {
	case reconcile.Create:
		n.ID = d.ID
	case reconcile.Update:
		n.ID = d.ID
		n.Action = actionModify
		n.Version = d.Version
	default:
		return n, false
	}

	n.Lat = formatCoord(d.Peak.Lat)
	n.Lon = formatCoord(d.Peak.Lon)
	n.Tags = make([]xmlTag, len(d.Tags))
	for i, t := range d.Tags {
		n.Tags[i] = xmlTag{Key: t.Key, Value: t.Value}
	}
	return n, true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
