package collector

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
)

// Export formats supported by Export.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Export flattens the retained history to w: one row per snapshot, one
// column per point plus the timestamp. Missing values render as empty
// CSV cells or JSON nulls.
func (c *Collector) Export(w io.Writer, format string) error {
	errFactory := errors.New()

	snapshots := c.ring.Snapshots()
	if len(snapshots) == 0 {
		return errFactory.New(ErrEmptyBuffer)
	}

	columns := columnUnion(snapshots)

	switch format {
	case FormatCSV:
		return exportCSV(w, snapshots, columns)
	case FormatJSON:
		return exportJSON(w, snapshots, columns)
	default:
		return errFactory.WithData(ErrInvalidFormat, format)
	}
}

// columnUnion returns the sorted union of point names across the whole
// history; hot reloads can change the per-snapshot point set mid-buffer.
func columnUnion(snapshots []*Snapshot) []string {
	seen := make(map[string]struct{})
	for _, s := range snapshots {
		for name := range s.Values {
			seen[name] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	return columns
}

func exportCSV(w io.Writer, snapshots []*Snapshot, columns []string) error {
	errFactory := errors.New()

	cw := csv.NewWriter(w)

	header := append([]string{"timestamp"}, columns...)
	if err := cw.Write(header); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	row := make([]string, len(header))
	for _, s := range snapshots {
		row[0] = s.Timestamp.Format(time.RFC3339Nano)
		for i, name := range columns {
			value, ok := s.Values[name]
			if !ok || IsMissing(value) {
				row[i+1] = ""
				continue
			}
			row[i+1] = strconv.FormatFloat(value, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return errFactory.Wrap(ErrExportFailed, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errFactory.Wrap(ErrExportFailed, err)
	}

	return nil
}

func exportJSON(w io.Writer, snapshots []*Snapshot, columns []string) error {
	records := make([]map[string]any, 0, len(snapshots))
	for _, s := range snapshots {
		record := make(map[string]any, len(columns)+1)
		record["timestamp"] = s.Timestamp.Format(time.RFC3339Nano)
		for _, name := range columns {
			value, ok := s.Values[name]
			if !ok || IsMissing(value) {
				record[name] = nil
				continue
			}
			record[name] = value
		}
		records = append(records, record)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(records); err != nil {
		return errors.New().Wrap(ErrExportFailed, err)
	}

	return nil
}
