package loader

import (
	"context"
	"errors"
	"fmt"

	loaderdomain "github.com/smallbiznis/sparkify/internal/loader/domain"
	"github.com/smallbiznis/sparkify/internal/observability/logger"
	"github.com/smallbiznis/sparkify/internal/observability/tracing"
	"github.com/smallbiznis/sparkify/internal/source"
	"github.com/smallbiznis/sparkify/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LoadTree loads every .json file under root, in walk order. A file that fails
// to parse or persist is logged and recorded in the summary, and the next file
// is loaded. Only cancellation or an unreadable root stops the walk.
func (l *Loader) LoadTree(ctx context.Context, root string, kind source.Kind) (loaderdomain.RunSummary, error) {
	ctx, span := tracing.Tracer().Start(ctx, "loader.load_tree", trace.WithAttributes(
		attribute.String("tree.root", root),
		attribute.String("source.kind", string(kind)),
	))
	defer span.End()

	summary := loaderdomain.RunSummary{RunID: correlation.ExtractRunID(ctx)}
	log := logger.WithContext(ctx, l.log).With(zap.String("root", root), zap.String("kind", string(kind)))

	files, err := source.Discover(root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}
	summary.FilesFound = len(files)
	fmt.Fprintf(l.console, "%d files found in %s\n", len(files), root)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		stats, err := l.LoadFile(ctx, path, kind)
		switch {
		case err == nil:
			summary.AddFile(stats)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return summary, err
		default:
			summary.FilesFailed++
			summary.RowsSkipped += stats.RowsSkipped
			summary.Err = errors.Join(summary.Err, err)
			log.Warn("file skipped",
				zap.String("path", path),
				zap.String("reason", loaderdomain.FailureReason(err)),
				zap.Error(err),
			)
		}
		fmt.Fprintf(l.console, "%d/%d files processed.\n", i+1, len(files))
	}

	span.SetAttributes(
		attribute.Int("files.found", summary.FilesFound),
		attribute.Int("files.failed", summary.FilesFailed),
	)
	log.Info("tree loaded",
		zap.Int("files_found", summary.FilesFound),
		zap.Int("files_processed", summary.FilesProcessed),
		zap.Int("files_failed", summary.FilesFailed),
		zap.Int64("rows_loaded", summary.RowsLoaded),
		zap.Int("rows_skipped", summary.RowsSkipped),
	)
	return summary, nil
}

// Run prepares the schema and loads the catalog tree, then the activity tree.
// Songs must be loaded first so that song plays can resolve against them.
func (l *Loader) Run(ctx context.Context, opts loaderdomain.RunOptions) (loaderdomain.RunSummary, error) {
	ctx, runID := correlation.EnsureRunID(ctx)
	ctx, span := tracing.Tracer().Start(ctx, "loader.run", trace.WithAttributes(
		attribute.Bool("schema.reset", opts.Reset),
	))
	defer span.End()

	summary := loaderdomain.RunSummary{RunID: runID}
	log := logger.WithContext(ctx, l.log)
	start := l.clock.Now()

	err := l.run(ctx, opts, &summary)
	l.metrics.RecordRunResult(err == nil && summary.FilesFailed == 0)
	l.metrics.Push(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("run aborted", zap.Error(err))
		return summary, err
	}

	log.Info("run finished",
		zap.Int("files_found", summary.FilesFound),
		zap.Int("files_processed", summary.FilesProcessed),
		zap.Int("files_failed", summary.FilesFailed),
		zap.Int64("rows_loaded", summary.RowsLoaded),
		zap.Int("rows_skipped", summary.RowsSkipped),
		zap.Int("songplays_resolved", summary.Resolved),
		zap.Int("songplays_unresolved", summary.Unresolved),
		zap.Duration("elapsed", l.clock.Now().Sub(start)),
	)
	return summary, nil
}

func (l *Loader) run(ctx context.Context, opts loaderdomain.RunOptions, summary *loaderdomain.RunSummary) error {
	if opts.Reset {
		if err := l.schema.Reset(ctx); err != nil {
			return err
		}
	} else if err := l.schema.Create(ctx); err != nil {
		return err
	}

	trees := []struct {
		root string
		kind source.Kind
	}{
		{root: l.cfg.SongDataDir, kind: source.KindCatalog},
		{root: l.cfg.LogDataDir, kind: source.KindActivity},
	}
	for _, tree := range trees {
		tsum, err := l.LoadTree(ctx, tree.root, tree.kind)
		summary.Merge(tsum)
		if err != nil {
			return err
		}
	}
	return nil
}
