package loader

import (
	"strings"
	"time"
)

// Dataset is a fully materialized usage table in file row order.
type Dataset struct {
	Name            string
	Path            string
	Columns         []string
	TimestampColumn string
	Records         []Record
}

// Record is one data row. Fields holds every cell as read, padded to the
// header width; Timestamp is the parsed timestamp cell.
type Record struct {
	Row       int // 1-based, header excluded
	Timestamp time.Time
	Fields    []string
}

// Hour returns the hour of day (0-23) of the record's timestamp.
func (r Record) Hour() int { return r.Timestamp.Hour() }

// Field returns the trimmed cell at idx, or "" when out of range.
func (r Record) Field(idx int) string {
	if idx < 0 || idx >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[idx])
}

// ColumnIndex finds a column by name, ignoring case and surrounding space.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, c := range d.Columns {
		if strings.ToLower(c) == want {
			return i, true
		}
	}
	return -1, false
}

// Len reports the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}
