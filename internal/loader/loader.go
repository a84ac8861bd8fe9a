package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/smallbiznis/sparkify/internal/clock"
	"github.com/smallbiznis/sparkify/internal/config"
	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	loaderdomain "github.com/smallbiznis/sparkify/internal/loader/domain"
	"github.com/smallbiznis/sparkify/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/sparkify/internal/observability/metrics"
	"github.com/smallbiznis/sparkify/internal/observability/tracing"
	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/internal/source"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Schema is the part of the schema manager a run needs.
type Schema interface {
	Create(ctx context.Context) error
	Reset(ctx context.Context) error
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     config.Config
	Clock      clock.Clock
	Schema     Schema
	Extractor  dimensiondomain.Extractor
	Dimensions dimensiondomain.Repository
	Resolver   songplaydomain.Resolver
	Songplays  songplaydomain.Repository
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Console    io.Writer           `name:"console" optional:"true"`
}

// Loader moves source files into the warehouse one file at a time.
type Loader struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	clock      clock.Clock
	schema     Schema
	extractor  dimensiondomain.Extractor
	dimensions dimensiondomain.Repository
	resolver   songplaydomain.Resolver
	songplays  songplaydomain.Repository
	metrics    *obsmetrics.Metrics
	console    io.Writer
}

func New(p Params) (*Loader, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Schema == nil || p.Extractor == nil || p.Dimensions == nil || p.Resolver == nil || p.Songplays == nil {
		return nil, loaderdomain.ErrInvalidConfig
	}
	console := p.Console
	if console == nil {
		console = os.Stdout
	}
	return &Loader{
		db:         p.DB,
		log:        p.Log.Named("loader").With(zap.String("component", "loader")),
		cfg:        p.Config,
		clock:      p.Clock,
		schema:     p.Schema,
		extractor:  p.Extractor,
		dimensions: p.Dimensions,
		resolver:   p.Resolver,
		songplays:  p.Songplays,
		metrics:    p.Metrics,
		console:    console,
	}, nil
}

// LoadFile parses one file and writes everything derived from it in a single
// transaction. On error nothing from the file is kept.
func (l *Loader) LoadFile(ctx context.Context, path string, kind source.Kind) (loaderdomain.FileStats, error) {
	ctx, span := tracing.Tracer().Start(ctx, "loader.load_file", trace.WithAttributes(
		attribute.String("file.path", path),
		attribute.String("source.kind", string(kind)),
	))
	defer span.End()

	start := l.clock.Now()
	var (
		stats loaderdomain.FileStats
		err   error
	)
	switch kind {
	case source.KindCatalog:
		stats, err = l.loadCatalog(ctx, path)
	case source.KindActivity:
		stats, err = l.loadActivity(ctx, path)
	default:
		err = fmt.Errorf("%w: %q", loaderdomain.ErrUnknownKind, kind)
	}
	elapsed := l.clock.Now().Sub(start)

	l.metrics.RecordSkippedRows(string(kind), stats.RowsSkipped)
	if err != nil {
		reason := loaderdomain.FailureReason(err)
		l.metrics.RecordFile(string(kind), obsmetrics.FileStatusFailed, elapsed)
		l.metrics.RecordFileFailure(string(kind), reason)
		span.SetAttributes(attribute.String("failure.reason", reason))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return stats, err
	}

	l.metrics.RecordFile(string(kind), obsmetrics.FileStatusLoaded, elapsed)
	l.metrics.RecordRows("dim_song", int(stats.Songs))
	l.metrics.RecordRows("dim_artist", int(stats.Artists))
	l.metrics.RecordRows("dim_time", int(stats.TimeBuckets))
	l.metrics.RecordRows("dim_user", int(stats.Users))
	l.metrics.RecordRows("fact_songplay", int(stats.Songplays))
	l.metrics.RecordSongplays(stats.Resolved, stats.Unresolved)
	span.SetAttributes(
		attribute.Int64("rows.loaded", stats.RowsLoaded()),
		attribute.Int("rows.skipped", stats.RowsSkipped),
	)

	logger.WithContext(ctx, l.log).Debug("file loaded",
		zap.String("path", path),
		zap.String("kind", string(kind)),
		zap.Int64("rows_loaded", stats.RowsLoaded()),
		zap.Int("rows_skipped", stats.RowsSkipped),
		zap.Duration("elapsed", elapsed),
	)
	return stats, nil
}

func (l *Loader) loadCatalog(ctx context.Context, path string) (loaderdomain.FileStats, error) {
	stats := loaderdomain.FileStats{Path: path, Kind: source.KindCatalog}

	rows, skipped, err := l.extractor.CollectCatalog(ctx, source.ReadCatalog(path))
	stats.RowsRead = len(rows) + skipped
	stats.RowsSkipped = skipped
	if err != nil {
		return stats, err
	}

	song, artist, ok := l.extractor.ExtractSongArtist(rows)
	if !ok {
		return stats, nil
	}

	var songs, artists int64
	err = l.transaction(ctx, path, func(tx *gorm.DB) error {
		var err error
		if songs, err = l.dimensions.InsertSong(ctx, tx, &song); err != nil {
			return persistenceError(path, "insert dim_song", err)
		}
		if artists, err = l.dimensions.InsertArtist(ctx, tx, &artist); err != nil {
			return persistenceError(path, "insert dim_artist", err)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats.Songs = songs
	stats.Artists = artists
	return stats, nil
}

// loadActivity writes time buckets, then users, then facts. Fact resolution
// reads song and artist rows committed by earlier files.
func (l *Loader) loadActivity(ctx context.Context, path string) (loaderdomain.FileStats, error) {
	stats := loaderdomain.FileStats{Path: path, Kind: source.KindActivity}

	rows, skipped, err := l.extractor.CollectActivity(ctx, source.ReadActivity(path))
	stats.RowsRead = len(rows) + skipped
	stats.RowsSkipped = skipped
	if err != nil {
		return stats, err
	}

	buckets := l.extractor.ExtractTimeBuckets(rows)
	users := l.extractor.ExtractUsers(rows)

	var (
		written              loaderdomain.FileStats
		resolved, unresolved int
	)
	err = l.transaction(ctx, path, func(tx *gorm.DB) error {
		var err error
		if written.TimeBuckets, err = l.dimensions.InsertTimeBuckets(ctx, tx, buckets); err != nil {
			return persistenceError(path, "insert dim_time", err)
		}
		if written.Users, err = l.dimensions.UpsertUsers(ctx, tx, users); err != nil {
			return persistenceError(path, "upsert dim_user", err)
		}

		plays := make([]*songplaydomain.Songplay, 0, len(buckets))
		for _, rec := range rows {
			if !rec.IsSongPlay() {
				continue
			}
			play, ok, err := l.resolver.Resolve(ctx, tx, rec)
			if err != nil {
				return persistenceError(path, "resolve songplay", err)
			}
			if ok {
				resolved++
			} else {
				unresolved++
			}
			plays = append(plays, &play)
		}
		if err := l.songplays.InsertBatch(ctx, tx, plays); err != nil {
			return persistenceError(path, "insert fact_songplay", err)
		}
		written.Songplays = int64(len(plays))
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats.TimeBuckets = written.TimeBuckets
	stats.Users = written.Users
	stats.Songplays = written.Songplays
	stats.Resolved = resolved
	stats.Unresolved = unresolved
	return stats, nil
}

func (l *Loader) transaction(ctx context.Context, path string, fn func(tx *gorm.DB) error) error {
	err := l.db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	var persistErr *loaderdomain.PersistenceError
	if errors.As(err, &persistErr) {
		return err
	}
	return persistenceError(path, "commit", err)
}

func persistenceError(path, op string, err error) error {
	return &loaderdomain.PersistenceError{Path: path, Op: op, Err: err}
}
