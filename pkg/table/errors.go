package table

import (
	"fmt"
	"strings"
)

// MergeKeyMissingError is returned when a chunk table lacks one or more of
// the geography key columns required for the merge.
type MergeKeyMissingError struct {
	Chunk   int
	Columns []string
}

// Error implements the error interface.
func (e *MergeKeyMissingError) Error() string {
	return fmt.Sprintf("chunk %d is missing geography key column(s): %s",
		e.Chunk, strings.Join(e.Columns, ", "))
}

// MergeKeyMismatchError is returned when chunk tables for the same county
// disagree on their GeoKey sets. Missing holds keys present in the base chunk
// but absent from the offending chunk; Extra holds the reverse.
type MergeKeyMismatchError struct {
	Chunk   int
	Missing []GeoKey
	Extra   []GeoKey
}

// Error implements the error interface. Only a handful of keys are listed to
// keep log lines bounded.
func (e *MergeKeyMismatchError) Error() string {
	const maxListed = 5
	var b strings.Builder
	fmt.Fprintf(&b, "chunk %d geography keys do not match base chunk", e.Chunk)
	if n := len(e.Missing); n > 0 {
		fmt.Fprintf(&b, "; %d missing (%s)", n, listKeys(e.Missing, maxListed))
	}
	if n := len(e.Extra); n > 0 {
		fmt.Fprintf(&b, "; %d extra (%s)", n, listKeys(e.Extra, maxListed))
	}
	return b.String()
}

func listKeys(keys []GeoKey, max int) string {
	shown := keys
	truncated := false
	if len(shown) > max {
		shown = shown[:max]
		truncated = true
	}
	parts := make([]string, len(shown))
	for i, k := range shown {
		parts[i] = k.String()
	}
	s := strings.Join(parts, ", ")
	if truncated {
		s += ", ..."
	}
	return s
}

// WriteError wraps a filesystem failure while writing an output file.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *WriteError) Unwrap() error {
	return e.Err
}
