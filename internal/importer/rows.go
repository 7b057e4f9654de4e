package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
)

// rowReader projects source tuples through a field mapping by column name.
type rowReader struct {
	index   map[string]int
	mapping mapping.Mapping
}

func newRowReader(columns []string, m mapping.Mapping) *rowReader {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return &rowReader{index: index, mapping: m}
}

// str returns the trimmed string value of the mapped source column, or ""
// when the field is unmapped or the source value is absent.
func (r *rowReader) str(row source.Row, field string) string {
	col, ok := r.mapping[field]
	if !ok {
		return ""
	}
	idx, ok := r.index[strings.ToLower(strings.TrimSpace(col))]
	if !ok || idx >= len(row) {
		return ""
	}
	return stringify(row[idx])
}

// date returns the mapped column parsed as a timestamp, nil when absent.
func (r *rowReader) date(row source.Row, field string) (*time.Time, error) {
	col, ok := r.mapping[field]
	if !ok {
		return nil, nil
	}
	idx, ok := r.index[strings.ToLower(strings.TrimSpace(col))]
	if !ok || idx >= len(row) {
		return nil, nil
	}
	return parseDate(row[idx])
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02-Jan-2006",
	"2006/01/02",
}

func parseDate(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		utc := v.UTC()
		return &utc, nil
	}

	raw := stringify(value)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("unparsable date %q", raw)
}
