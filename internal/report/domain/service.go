package domain

import (
	"context"
	"errors"

	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
)

// Service answers read-only questions about the loaded warehouse.
type Service interface {
	Counts(ctx context.Context) ([]TableCount, error)
	Sample(ctx context.Context, table string, limit int) ([]map[string]any, error)
	TopSongs(ctx context.Context, limit int) ([]SongPlays, error)
	RecentSongplays(ctx context.Context, limit int) ([]*songplaydomain.Songplay, error)
}

type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

type SongPlays struct {
	SongID     string `json:"song_id" gorm:"column:song_id"`
	Title      string `json:"title" gorm:"column:title"`
	ArtistName string `json:"artist_name" gorm:"column:artist_name"`
	Plays      int64  `json:"plays" gorm:"column:plays"`
}

const DefaultLimit = 5

var ErrUnknownTable = errors.New("unknown_table")
