package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pipeline is the one import path shared by every entity kind. The source
// system grew six importer variants differing only in tuning; here the kind
// is a parameter and bulk-vs-chunked reading is chosen by estimated row
// count.
//
// A run is single-threaded and run-to-completion: correctness leans on
// strictly sequential application of rows against indices snapshotted at run
// start. Cancellation is cooperative, checked between rows and chunks.
type Pipeline struct {
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	stores  Stores
	policy  *config.ImportPolicyHolder
	metrics *Metrics
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Stores  Stores
	Policy  *config.ImportPolicyHolder
	Metrics *Metrics
}

func New(p Params) *Pipeline {
	return &Pipeline{
		log:     p.Log.Named("importer"),
		clock:   p.Clock,
		genID:   p.GenID,
		stores:  p.Stores,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

// RunRequest describes one import run against an open source session.
type RunRequest struct {
	Source source.Source
	Table  string
	Kind   mapping.Kind
	// Mapping, when non-nil, bypasses inference entirely.
	Mapping            mapping.Mapping
	SkipDuplicates     bool
	RecordTransactions bool
}

// RunResult carries whichever of the two result shapes the kind produces,
// plus the mapping that was actually used so callers can display or persist
// it.
type RunResult struct {
	Kind     mapping.Kind    `json:"kind"`
	Table    string          `json:"table"`
	Mapping  mapping.Mapping `json:"mapping"`
	RowsRead int             `json:"rows_read"`
	Import   *ImportResult   `json:"import,omitempty"`
	Link     *LinkResult     `json:"link,omitempty"`
	Elapsed  time.Duration   `json:"elapsed"`
}

// Run executes one import. Connection and schema failures abort with an
// error; row-level failures accumulate inside the result.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	started := time.Now()
	pol := p.policy.Get()

	columns, err := req.Source.Columns(ctx, req.Table)
	if err != nil {
		p.metrics.RunFinished(req.Kind, "failed")
		return RunResult{}, fmt.Errorf("describe table %s: %w", req.Table, err)
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}

	fieldMap := req.Mapping
	if fieldMap == nil {
		fieldMap = mapping.Suggest(req.Kind, names, mapping.Options{
			ExclusiveColumns: pol.ExclusiveColumns,
		})
	}

	estimate, err := req.Source.EstimateRows(ctx, req.Table)
	if err != nil {
		p.metrics.RunFinished(req.Kind, "failed")
		return RunResult{}, fmt.Errorf("estimate rows of %s: %w", req.Table, err)
	}
	readOpts := source.ReadOptions{
		ChunkSize: pol.ChunkSize,
		Bulk:      estimate >= 0 && estimate <= int64(pol.BulkThreshold),
	}

	result := RunResult{Kind: req.Kind, Table: req.Table, Mapping: fieldMap}

	switch req.Kind {
	case mapping.KindCustomer, mapping.KindCylinder:
		im := newEntityImporter(req.Kind, fieldMap, ImportOptions{SkipDuplicates: req.SkipDuplicates},
			p.stores, p.genID, p.clock, pol.MaxErrors)
		if err := im.Begin(ctx); err != nil {
			p.metrics.RunFinished(req.Kind, "failed")
			return RunResult{}, err
		}
		err = req.Source.Read(ctx, req.Table, readOpts, func(cols []string, rows []source.Row) error {
			result.RowsRead += len(rows)
			p.metrics.RowsRead(req.Kind, len(rows))
			return im.ProcessChunk(ctx, cols, rows)
		})
		if err != nil {
			p.metrics.RunFinished(req.Kind, "failed")
			return RunResult{}, err
		}
		res := im.Result()
		result.Import = &res
		p.metrics.ImportFinished(req.Kind, res)

	case mapping.KindTransaction, mapping.KindRentalHistory:
		linker := newLinker(fieldMap, LinkPolicy{
			RetentionWindowDays: pol.RetentionWindowDays,
			BreakerSkipRatio:    pol.BreakerSkipRatio,
			BreakerMinRows:      pol.BreakerMinRows,
			MaxErrors:           pol.MaxErrors,
			RecordTransactions:  req.RecordTransactions,
			BackfillOnly:        req.Kind == mapping.KindRentalHistory,
		}, p.stores, p.genID, p.clock, p.log)
		if err := linker.Begin(ctx); err != nil {
			p.metrics.RunFinished(req.Kind, "failed")
			return RunResult{}, err
		}
		err = req.Source.Read(ctx, req.Table, readOpts, func(cols []string, rows []source.Row) error {
			result.RowsRead += len(rows)
			p.metrics.RowsRead(req.Kind, len(rows))
			return linker.ProcessChunk(ctx, cols, rows)
		})
		if err != nil && !errors.Is(err, errRunAborted) {
			p.metrics.RunFinished(req.Kind, "failed")
			return RunResult{}, err
		}
		res := linker.Result()
		result.Link = &res
		p.metrics.LinkFinished(req.Kind, res)

	default:
		return RunResult{}, fmt.Errorf("unknown entity kind %q", req.Kind)
	}

	result.Elapsed = time.Since(started)
	p.log.Info("import run finished",
		zap.String("kind", string(req.Kind)),
		zap.String("table", req.Table),
		zap.Int("rows_read", result.RowsRead),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
