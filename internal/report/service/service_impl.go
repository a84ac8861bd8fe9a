package service

import (
	"context"
	"fmt"
	"slices"

	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	reportdomain "github.com/smallbiznis/sparkify/internal/report/domain"
	"github.com/smallbiznis/sparkify/internal/schema"
	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	users       repository.Repository[dimensiondomain.User]
	songs       repository.Repository[dimensiondomain.Song]
	artists     repository.Repository[dimensiondomain.Artist]
	timeBuckets repository.Repository[dimensiondomain.TimeBucket]
	songplays   repository.Repository[songplaydomain.Songplay]
}

func New(p Params) reportdomain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:          p.DB,
		log:         log.Named("report.service"),
		users:       repository.ProvideStore[dimensiondomain.User](p.DB),
		songs:       repository.ProvideStore[dimensiondomain.Song](p.DB),
		artists:     repository.ProvideStore[dimensiondomain.Artist](p.DB),
		timeBuckets: repository.ProvideStore[dimensiondomain.TimeBucket](p.DB),
		songplays:   repository.ProvideStore[songplaydomain.Songplay](p.DB),
	}
}

// Counts returns the row count of every warehouse table in schema order.
func (s *Service) Counts(ctx context.Context) ([]reportdomain.TableCount, error) {
	counters := map[string]func(context.Context) (int64, error){
		"dim_user":      func(ctx context.Context) (int64, error) { return s.users.Count(ctx, nil) },
		"dim_song":      func(ctx context.Context) (int64, error) { return s.songs.Count(ctx, nil) },
		"dim_artist":    func(ctx context.Context) (int64, error) { return s.artists.Count(ctx, nil) },
		"dim_time":      func(ctx context.Context) (int64, error) { return s.timeBuckets.Count(ctx, nil) },
		"fact_songplay": func(ctx context.Context) (int64, error) { return s.songplays.Count(ctx, nil) },
	}

	counts := make([]reportdomain.TableCount, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		n, err := counters[table](ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts = append(counts, reportdomain.TableCount{Table: table, Rows: n})
	}
	return counts, nil
}

// Sample returns up to limit rows of a table as column maps.
func (s *Service) Sample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if !slices.Contains(schema.Tables, table) {
		return nil, fmt.Errorf("%w: %q", reportdomain.ErrUnknownTable, table)
	}
	if limit <= 0 {
		limit = reportdomain.DefaultLimit
	}

	var rows []map[string]any
	if err := s.db.WithContext(ctx).Table(table).Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	return rows, nil
}

// TopSongs ranks resolved songs by number of plays.
func (s *Service) TopSongs(ctx context.Context, limit int) ([]reportdomain.SongPlays, error) {
	if limit <= 0 {
		limit = reportdomain.DefaultLimit
	}

	var rows []reportdomain.SongPlays
	err := s.db.WithContext(ctx).Raw(
		`SELECT s.song_id, s.title, a.name AS artist_name, COUNT(*) AS plays
		 FROM fact_songplay f
		 JOIN dim_song s ON f.song_id = s.song_id
		 JOIN dim_artist a ON f.artist_id = a.artist_id
		 GROUP BY s.song_id, s.title, a.name
		 ORDER BY plays DESC, s.song_id
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top songs: %w", err)
	}
	return rows, nil
}

func (s *Service) RecentSongplays(ctx context.Context, limit int) ([]*songplaydomain.Songplay, error) {
	if limit <= 0 {
		limit = reportdomain.DefaultLimit
	}
	return s.songplays.Find(ctx, nil,
		repository.WithOrder("start_time DESC"),
		repository.WithLimit(limit),
	)
}
