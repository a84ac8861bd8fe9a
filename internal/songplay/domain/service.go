package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/sparkify/internal/source"
	"gorm.io/gorm"
)

// Resolver assembles one fact row per song play event.
type Resolver interface {
	Resolve(ctx context.Context, db *gorm.DB, rec source.ActivityRecord) (Songplay, bool, error)
}

var (
	ErrNotSongPlay    = errors.New("not_song_play")
	ErrMissingUser    = errors.New("missing_user")
	ErrMissingLevel   = errors.New("missing_level")
	ErrMissingSession = errors.New("missing_session")
)
