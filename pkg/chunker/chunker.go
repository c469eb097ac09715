// Package chunker splits a table group's variable list into request-sized
// chunks that fit the API's per-call variable ceiling.
//
// The API caps the number of variables one request may carry. Every request
// must also include the NAME identifier variable, so one slot of the ceiling
// is reserved for it and maxVars counts data variables only. Chunking is
// deterministic: the same input always yields the same chunk sequence, which
// keeps output column order reproducible across runs.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// NameVariable is the geography label variable included in every chunk.
const NameVariable = "NAME"

// ErrInvalidChunkSize is returned when the configured chunk size is not
// positive.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Chunk is the ordered variable list of one API request, beginning with NAME.
type Chunk []string

// Query returns the chunk as the comma-joined value of the API's "get"
// parameter.
func (c Chunk) Query() string {
	return strings.Join(c, ",")
}

// Chunks splits vars into ordered chunks of at most maxVars data variables
// each, prepending NAME to every chunk. Every input variable appears in
// exactly one chunk, input order is preserved, and an empty input yields an
// empty sequence.
func Chunks(vars []string, maxVars int) ([]Chunk, error) {
	if maxVars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, maxVars)
	}

	var chunks []Chunk
	for i := 0; i < len(vars); i += maxVars {
		end := i + maxVars
		if end > len(vars) {
			end = len(vars)
		}
		c := make(Chunk, 0, end-i+1)
		c = append(c, NameVariable)
		c = append(c, vars[i:end]...)
		chunks = append(chunks, c)
	}
	return chunks, nil
}
