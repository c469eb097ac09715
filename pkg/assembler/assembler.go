// Package assembler drives the download pipeline: it chunks each table
// group's variables, fetches every chunk per county, merges and concatenates
// the results, and writes one CSV per table group.
package assembler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/atlregional/acsfetch/pkg/census"
	"github.com/atlregional/acsfetch/pkg/chunker"
	"github.com/atlregional/acsfetch/pkg/config"
	"github.com/atlregional/acsfetch/pkg/table"
)

// Prometheus metrics for assembly runs.
var (
	acsTablesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acs_tables_written_total",
		Help: "Table groups successfully written to disk",
	})

	acsTablesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acs_tables_failed_total",
		Help: "Table groups that failed and were skipped",
	})

	acsRowsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "acs_rows_written_total",
		Help: "Data rows written across all output files",
	})
)

// Assembler runs the fetch/merge/write pipeline for a fixed configuration.
type Assembler struct {
	cfg    config.Config
	client *census.Client
	logger zerolog.Logger
}

// Failure records one table group that could not be completed.
type Failure struct {
	Code  string
	Label string
	Err   error
}

// Summary is the end-of-run report.
type Summary struct {
	Written  []string
	Failures []Failure
}

// Failed reports whether any table group failed.
func (s *Summary) Failed() bool {
	return len(s.Failures) > 0
}

// New creates an Assembler. The configuration is copied and never mutated.
func New(cfg config.Config, client *census.Client) *Assembler {
	return &Assembler{
		cfg:    cfg,
		client: client,
		logger: log.With().Str("component", "assembler").Logger(),
	}
}

// Run downloads every configured table group. Table groups are independent:
// a failure in one is recorded in the Summary and the run continues with the
// next (no partial file is written for a failed group). Run itself returns an
// error only when the context is cancelled.
func (a *Assembler) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	for _, tg := range a.cfg.Tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		a.logger.Info().
			Str("table", tg.Code).
			Str("label", tg.Label).
			Msg("Downloading table group")

		assembled, err := a.assembleGroup(ctx, tg)
		if err == nil {
			path := a.cfg.OutputPath(tg)
			err = table.WriteCSV(assembled, path)
			if err == nil {
				acsTablesWrittenTotal.Inc()
				acsRowsWrittenTotal.Add(float64(assembled.RowCount()))
				summary.Written = append(summary.Written, path)
				a.logger.Info().
					Str("table", tg.Code).
					Str("path", path).
					Int("rows", assembled.RowCount()).
					Msg("Table group written")
				continue
			}
		}

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		acsTablesFailedTotal.Inc()
		summary.Failures = append(summary.Failures, Failure{
			Code:  tg.Code,
			Label: tg.Label,
			Err:   err,
		})
		a.logger.Error().
			Str("table", tg.Code).
			Err(err).
			Msg("Table group failed, skipping")
	}

	return summary, nil
}

// assembleGroup builds the full tall table for one table group: chunk the
// variables, fetch and merge per county, concatenate across counties.
func (a *Assembler) assembleGroup(ctx context.Context, tg config.TableGroup) (*table.ChunkTable, error) {
	vars := tg.Variables
	if len(vars) == 0 {
		fetched, err := a.client.GroupVariables(ctx, tg.Code)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tg.Code, err)
		}
		vars = fetched
	}

	chunks, err := chunker.Chunks(vars, a.cfg.MaxChunkVars)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tg.Code, err)
	}

	a.logger.Debug().
		Str("table", tg.Code).
		Int("variables", len(vars)).
		Int("chunks", len(chunks)).
		Msg("Chunked variables")

	county := make([]*table.ChunkTable, 0, len(a.cfg.Counties))
	for i, code := range a.cfg.Counties {
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return nil, err
			}
		}
		unit := census.GeographyUnit{State: a.cfg.State, County: code}

		merged, err := a.assembleCounty(ctx, tg, unit, chunks)
		if err != nil {
			return nil, fmt.Errorf("table %s county %s: %w", tg.Code, unit, err)
		}
		county = append(county, merged)
	}

	assembled, err := table.Concat(county)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tg.Code, err)
	}
	return assembled, nil
}

// assembleCounty fetches every chunk for one county sequentially and merges
// them into one wide table.
func (a *Assembler) assembleCounty(ctx context.Context, tg config.TableGroup, unit census.GeographyUnit, chunks []chunker.Chunk) (*table.ChunkTable, error) {
	tables := make([]*table.ChunkTable, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 {
			if err := a.pause(ctx); err != nil {
				return nil, err
			}
		}

		t, err := a.client.FetchBlockGroups(ctx, unit, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		tables = append(tables, t)
	}

	merged, err := table.MergeChunks(tables)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("table", tg.Code).
		Str("county", unit.String()).
		Int("rows", merged.RowCount()).
		Msg("Merged county")

	return merged, nil
}

// pause waits the configured delay between consecutive requests.
func (a *Assembler) pause(ctx context.Context) error {
	d := a.cfg.RequestPause.Std()
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
