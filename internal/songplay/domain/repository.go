package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindSongArtist returns any song/artist pair matching the natural key, or nil.
	FindSongArtist(ctx context.Context, db *gorm.DB, title, artist string, duration float64) (*SongArtist, error)
	InsertBatch(ctx context.Context, db *gorm.DB, plays []*Songplay) error
}
