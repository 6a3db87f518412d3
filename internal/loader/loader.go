// Package loader reads smart-meter CSV exports into an in-memory dataset.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/energy-insights/internal/log"
)

// DefaultTimestampColumn is the column parsed as timestamps unless overridden.
const DefaultTimestampColumn = "timestamp"

// Options controls how a usage file is read.
type Options struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// TimestampColumn names the column parsed as date/time (case-insensitive).
	TimestampColumn string
	// Location, if set, is used for naive timestamps and zoned ones are
	// converted into it. Nil keeps naive timestamps as written (UTC).
	Location *time.Location
}

// DefaultOptions returns the options used by the no-argument run.
func DefaultOptions() Options {
	return Options{TimestampColumn: DefaultTimestampColumn}
}

// Load reads the file at path. Every failure is one of *NotFoundError,
// *ParseError or *UnexpectedError and no dataset is returned with it.
func Load(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, &UnexpectedError{Err: fmt.Errorf("open csv: %w", err)}
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	ds, err := Read(f, delim, opt)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(path)
	ds.Path = path
	log.Debugw("loaded usage dataset", "path", path, "rows", len(ds.Records), "columns", len(ds.Columns))
	return ds, nil
}

// Read parses delimited text from r. It is the body of Load, exposed for
// callers that already hold the content.
func Read(r io.Reader, delim rune, opt Options) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // short rows are padded; long rows are rejected below
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &UnexpectedError{Err: errors.New("No columns to parse from file")}
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &ParseError{Err: err}
		}
		return nil, &UnexpectedError{Err: fmt.Errorf("read header: %w", err)}
	}
	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}
	ds := &Dataset{Columns: columns}

	tsName := opt.TimestampColumn
	if tsName == "" {
		tsName = DefaultTimestampColumn
	}
	tsIdx, ok := ds.ColumnIndex(tsName)
	if !ok {
		return nil, &UnexpectedError{Err: fmt.Errorf("Missing column provided to 'parse_dates': '%s'", tsName)}
	}
	ds.TimestampColumn = columns[tsIdx]

	ncol := len(columns)
	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &ParseError{Row: row + 1, Err: err}
			}
			return nil, &UnexpectedError{Err: fmt.Errorf("read row %d: %w", row+1, err)}
		}
		row++
		if len(rec) > ncol {
			return nil, &ParseError{Row: row, Err: fmt.Errorf("expected %d fields, saw %d", ncol, len(rec))}
		}
		fields := make([]string, ncol)
		copy(fields, rec)

		ts, ok := parseTimestamp(strings.TrimSpace(fields[tsIdx]), opt.Location)
		if !ok {
			return nil, &ParseError{Row: row, Err: fmt.Errorf("unparseable timestamp %q", fields[tsIdx])}
		}
		ds.Records = append(ds.Records, Record{Row: row, Timestamp: ts, Fields: fields})
	}
	return ds, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	base := loc
	if base == nil {
		base = time.UTC
	}
	for _, l := range timestampLayouts {
		if t, err := time.ParseInLocation(l, s, base); err == nil {
			if loc != nil {
				t = t.In(loc)
			}
			return t, true
		}
	}
	return time.Time{}, false
}
