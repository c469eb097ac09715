package table

import (
	"encoding/csv"
	"os"
)

// WriteCSV serializes the table to path as comma-separated text: one header
// line in column order, then one line per row with standard quoting. Any
// existing file at path is overwritten. Filesystem failures are wrapped in a
// WriteError.
func WriteCSV(t *ChunkTable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(t.Columns)
	if writeErr == nil {
		writeErr = w.WriteAll(t.Rows)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}

	closeErr := f.Close()
	if writeErr != nil {
		return &WriteError{Path: path, Err: writeErr}
	}
	if closeErr != nil {
		return &WriteError{Path: path, Err: closeErr}
	}
	return nil
}
