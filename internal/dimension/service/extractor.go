package service

import (
	"context"
	"errors"
	"iter"

	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	"github.com/smallbiznis/sparkify/internal/observability/logger"
	"github.com/smallbiznis/sparkify/internal/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func New(p Params) dimensiondomain.Extractor {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{log: log.Named("dimension.extractor")}
}

func (s *Service) CollectCatalog(ctx context.Context, rows iter.Seq2[source.CatalogRecord, error]) ([]source.CatalogRecord, int, error) {
	return collect(ctx, logger.WithContext(ctx, s.log), rows)
}

func (s *Service) CollectActivity(ctx context.Context, rows iter.Seq2[source.ActivityRecord, error]) ([]source.ActivityRecord, int, error) {
	return collect(ctx, logger.WithContext(ctx, s.log), rows)
}

// collect drains rows, skipping rows with missing fields. Any other error,
// including a *source.FileParseError, aborts the file.
func collect[T any](ctx context.Context, log *zap.Logger, rows iter.Seq2[T, error]) ([]T, int, error) {
	var (
		out     []T
		skipped int
	)
	for rec, err := range rows {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, skipped, ctxErr
		}
		if err != nil {
			var fieldErr *source.FieldMissingError
			if !errors.As(err, &fieldErr) {
				return nil, skipped, err
			}
			skipped++
			log.Warn("skipping row",
				zap.String("path", fieldErr.Path),
				zap.Int("line", fieldErr.Line),
				zap.String("field", fieldErr.Field),
				zap.Error(err),
			)
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

// ExtractSongArtist builds the single song and artist a catalog file describes.
// Only the first row is used. Zero years and non-positive durations are absent.
func (s *Service) ExtractSongArtist(rows []source.CatalogRecord) (dimensiondomain.Song, dimensiondomain.Artist, bool) {
	if len(rows) == 0 {
		return dimensiondomain.Song{}, dimensiondomain.Artist{}, false
	}
	if len(rows) > 1 {
		s.log.Warn("catalog file holds more than one record, using the first", zap.Int("records", len(rows)))
	}

	rec := rows[0]
	song := dimensiondomain.Song{
		SongID:   rec.SongID,
		Title:    rec.Title,
		ArtistID: rec.ArtistID,
		Year:     positiveInt(rec.Year),
		Duration: positiveFloat(rec.Duration),
	}
	artist := dimensiondomain.Artist{
		ArtistID:  rec.ArtistID,
		Name:      rec.ArtistName,
		Location:  rec.ArtistLocation,
		Latitude:  rec.ArtistLatitude,
		Longitude: rec.ArtistLongitude,
	}
	return song, artist, true
}

// ExtractTimeBuckets returns one bucket per song play, duplicates included.
func (s *Service) ExtractTimeBuckets(rows []source.ActivityRecord) []dimensiondomain.TimeBucket {
	buckets := make([]dimensiondomain.TimeBucket, 0, len(rows))
	for _, rec := range rows {
		if !rec.IsSongPlay() {
			continue
		}
		buckets = append(buckets, dimensiondomain.NewTimeBucket(rec.StartTime()))
	}
	return buckets
}

// ExtractUsers keeps the last song play of each user, in order of first appearance.
func (s *Service) ExtractUsers(rows []source.ActivityRecord) []dimensiondomain.User {
	index := make(map[int64]int)
	users := make([]dimensiondomain.User, 0)
	for _, rec := range rows {
		if !rec.IsSongPlay() || rec.UserID == nil || rec.Level == nil {
			continue
		}
		user := dimensiondomain.User{
			UserID:    *rec.UserID,
			Level:     *rec.Level,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Gender:    rec.Gender,
		}
		if i, ok := index[user.UserID]; ok {
			users[i] = user
			continue
		}
		index[user.UserID] = len(users)
		users = append(users, user)
	}
	return users
}

func positiveInt(v *int64) *int64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func positiveFloat(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
