// Package table provides the in-memory tabular model for ACS responses:
// chunk tables parsed from the API, the geography-keyed merge, county
// concatenation, and CSV output.
package table

import (
	"errors"
	"fmt"
)

// GeoColumns are the geography identifier columns the API appends to every
// block-group response, in join-key order.
var GeoColumns = [4]string{"state", "county", "tract", "block group"}

// NameColumn is the human-readable geography label returned with every request.
const NameColumn = "NAME"

// ErrRowWidth is returned when a data row's length differs from the header.
var ErrRowWidth = errors.New("row width differs from header")

// GeoKey identifies one block-group row. Within a single county and table
// group, every chunk must yield the same set of GeoKeys.
type GeoKey struct {
	State      string
	County     string
	Tract      string
	BlockGroup string
}

// String returns a compact form used in logs and error messages.
func (k GeoKey) String() string {
	return k.State + ":" + k.County + ":" + k.Tract + ":" + k.BlockGroup
}

// ChunkTable is a parsed tabular result: an ordered header plus string-valued
// rows of equal width. It is used both for single-chunk responses and for the
// merged/concatenated tables built from them.
type ChunkTable struct {
	Columns []string
	Rows    [][]string
}

// New builds a ChunkTable from a header and data rows, validating that every
// row matches the header width.
func New(columns []string, rows [][]string) (*ChunkTable, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, header has %d",
				ErrRowWidth, i, len(row), len(columns))
		}
	}
	return &ChunkTable{Columns: columns, Rows: rows}, nil
}

// RowCount returns the number of data rows.
func (t *ChunkTable) RowCount() int {
	return len(t.Rows)
}

// HasColumn reports whether the table contains the named column.
func (t *ChunkTable) HasColumn(name string) bool {
	_, ok := t.columnIndex(name)
	return ok
}

func (t *ChunkTable) columnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// geoIndices returns the positions of the four geography key columns, or the
// names of the ones that are missing.
func (t *ChunkTable) geoIndices() (idx [4]int, missing []string) {
	for i, name := range GeoColumns {
		pos, ok := t.columnIndex(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = pos
	}
	return idx, missing
}

// geoKey extracts the GeoKey of one row given precomputed column positions.
func (t *ChunkTable) geoKey(row int, idx [4]int) GeoKey {
	return GeoKey{
		State:      t.Rows[row][idx[0]],
		County:     t.Rows[row][idx[1]],
		Tract:      t.Rows[row][idx[2]],
		BlockGroup: t.Rows[row][idx[3]],
	}
}

// GeoKeys returns the GeoKey of every row in row order. It fails if any of
// the four key columns is absent.
func (t *ChunkTable) GeoKeys() ([]GeoKey, error) {
	idx, missing := t.geoIndices()
	if len(missing) > 0 {
		return nil, &MergeKeyMissingError{Columns: missing}
	}
	keys := make([]GeoKey, len(t.Rows))
	for i := range t.Rows {
		keys[i] = t.geoKey(i, idx)
	}
	return keys, nil
}

func isGeoColumn(name string) bool {
	for _, g := range GeoColumns {
		if name == g {
			return true
		}
	}
	return false
}
