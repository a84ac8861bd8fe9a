package repository

import (
	"context"

	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	plays repository.Repository[songplaydomain.Songplay]
}

func Provide(db *gorm.DB) songplaydomain.Repository {
	return &repo{plays: repository.ProvideStore[songplaydomain.Songplay](db)}
}

// No ORDER BY: when several pairs share the natural key any one of them is accepted.
func (r *repo) FindSongArtist(ctx context.Context, db *gorm.DB, title, artist string, duration float64) (*songplaydomain.SongArtist, error) {
	var rows []songplaydomain.SongArtist
	err := db.WithContext(ctx).Raw(
		`SELECT s.song_id, a.artist_id
		 FROM dim_song s
		 JOIN dim_artist a ON s.artist_id = a.artist_id
		 WHERE s.title = ? AND a.name = ? AND s.duration = ?
		 LIMIT 1`,
		title,
		artist,
		duration,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, plays []*songplaydomain.Songplay) error {
	return r.plays.WithTrx(db).BatchCreate(ctx, plays)
}
