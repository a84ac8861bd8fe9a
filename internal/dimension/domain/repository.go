package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository writes dimension rows. Every call returns the number of rows
// actually inserted or updated; existing keys are never an error.
type Repository interface {
	InsertSong(ctx context.Context, db *gorm.DB, song *Song) (int64, error)
	InsertArtist(ctx context.Context, db *gorm.DB, artist *Artist) (int64, error)
	InsertTimeBuckets(ctx context.Context, db *gorm.DB, buckets []TimeBucket) (int64, error)
	UpsertUsers(ctx context.Context, db *gorm.DB, users []User) (int64, error)
}
