package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one parsed row and the 1-based line it started on.
type Record struct {
	Line   int
	Fields []string
}

// CSVOptions configures the streaming delimited-text parser.
type CSVOptions struct {
	Delimiter       rune // default ','
	Comment         rune // comment character (0 = none)
	FieldsPerRecord int  // 0 = set by first row, -1 = variable
	SkipRows        int  // leading rows to drop, e.g. a header
	LazyQuotes      bool
	TrimSpace       bool
}

// StreamCSV reads delimited text and sends records to a channel.
// Errors are sent on the error channel. Both channels are closed when
// processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	rowCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.Comment = opts.Comment
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = opts.FieldsPerRecord

		for row := 0; ; row++ {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			fields, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if row < opts.SkipRows {
				continue
			}

			if opts.TrimSpace {
				for i, field := range fields {
					fields[i] = strings.TrimSpace(field)
				}
			}

			line, _ := reader.FieldPos(0)
			select {
			case rowCh <- Record{Line: line, Fields: fields}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// CollectCSV drains the channels returned by StreamCSV.
func CollectCSV(rowCh <-chan Record, errCh <-chan error) ([]Record, error) {
	var rows []Record
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}
