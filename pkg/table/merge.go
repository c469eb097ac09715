package table

import (
	"errors"
	"fmt"
)

// Errors returned by merge and concatenation.
var (
	// ErrNoChunks is returned when MergeChunks is called with no input.
	ErrNoChunks = errors.New("no chunk tables to merge")

	// ErrColumnMismatch is returned when tables being concatenated do not
	// share an identical column layout.
	ErrColumnMismatch = errors.New("column layout mismatch")
)

// MergeChunks horizontally joins the chunk tables of one county into a single
// wide table. The first chunk is the base; every subsequent chunk is
// inner-joined on the GeoKey columns, contributing only columns not already
// present (its duplicate NAME and geography columns are dropped). All chunks
// must carry the four geography key columns and agree exactly on their GeoKey
// sets; any disagreement fails with MergeKeyMismatchError rather than
// silently dropping rows.
//
// Result column order: NAME, then data columns in request order, then the
// geography key columns last.
func MergeChunks(chunks []*ChunkTable) (*ChunkTable, error) {
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	baseIdx, missing := chunks[0].geoIndices()
	if len(missing) > 0 {
		return nil, &MergeKeyMissingError{Chunk: 0, Columns: missing}
	}

	merged := &ChunkTable{
		Columns: append([]string(nil), chunks[0].Columns...),
		Rows:    make([][]string, len(chunks[0].Rows)),
	}
	for i, row := range chunks[0].Rows {
		merged.Rows[i] = append([]string(nil), row...)
	}

	baseKeys := make([]GeoKey, len(chunks[0].Rows))
	baseSet := make(map[GeoKey]struct{}, len(baseKeys))
	for i := range chunks[0].Rows {
		baseKeys[i] = chunks[0].geoKey(i, baseIdx)
		baseSet[baseKeys[i]] = struct{}{}
	}

	for n, chunk := range chunks[1:] {
		chunkNum := n + 1

		idx, missing := chunk.geoIndices()
		if len(missing) > 0 {
			return nil, &MergeKeyMissingError{Chunk: chunkNum, Columns: missing}
		}

		byKey := make(map[GeoKey][]string, len(chunk.Rows))
		for i, row := range chunk.Rows {
			byKey[chunk.geoKey(i, idx)] = row
		}

		// Row-count equality is necessary but not sufficient; the key sets
		// must match exactly in both directions.
		var mismatch MergeKeyMismatchError
		mismatch.Chunk = chunkNum
		for _, k := range baseKeys {
			if _, ok := byKey[k]; !ok {
				mismatch.Missing = append(mismatch.Missing, k)
			}
		}
		for i := range chunk.Rows {
			k := chunk.geoKey(i, idx)
			if _, ok := baseSet[k]; !ok {
				mismatch.Extra = append(mismatch.Extra, k)
			}
		}
		if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 ||
			chunk.RowCount() != len(baseKeys) {
			return nil, &mismatch
		}

		// Columns the merged table has not seen yet, in this chunk's order.
		var newCols []int
		for i, name := range chunk.Columns {
			if !merged.HasColumn(name) {
				newCols = append(newCols, i)
				merged.Columns = append(merged.Columns, name)
			}
		}

		for i, k := range baseKeys {
			src := byKey[k]
			for _, ci := range newCols {
				merged.Rows[i] = append(merged.Rows[i], src[ci])
			}
		}
	}

	reorderGeoLast(merged)
	return merged, nil
}

// reorderGeoLast moves the geography key columns to the end of the table,
// keeping all other columns in their existing order.
func reorderGeoLast(t *ChunkTable) {
	order := make([]int, 0, len(t.Columns))
	for i, name := range t.Columns {
		if !isGeoColumn(name) {
			order = append(order, i)
		}
	}
	for _, name := range GeoColumns {
		if i, ok := t.columnIndex(name); ok {
			order = append(order, i)
		}
	}

	cols := make([]string, len(order))
	for j, i := range order {
		cols[j] = t.Columns[i]
	}
	t.Columns = cols

	for r, row := range t.Rows {
		out := make([]string, len(order))
		for j, i := range order {
			out[j] = row[i]
		}
		t.Rows[r] = out
	}
}

// Concat appends the rows of each table in order, producing one tall table.
// Every input must share the first table's exact column layout; duplicate
// GeoKeys across inputs are passed through unchanged.
func Concat(tables []*ChunkTable) (*ChunkTable, error) {
	if len(tables) == 0 {
		return nil, ErrNoChunks
	}

	out := &ChunkTable{Columns: append([]string(nil), tables[0].Columns...)}
	for n, t := range tables {
		if !sameColumns(t.Columns, out.Columns) {
			return nil, fmt.Errorf("%w: table %d has columns %v, expected %v",
				ErrColumnMismatch, n, t.Columns, out.Columns)
		}
		for _, row := range t.Rows {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
