package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/internal/source"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  songplaydomain.Repository
}

type Service struct {
	log   *zap.Logger
	repo  songplaydomain.Repository
	genID *snowflake.Node
}

func New(p Params) songplaydomain.Resolver {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:   log.Named("songplay.resolver"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

// Resolve builds the fact row for a song play and looks up its song and
// artist by title, artist name and duration. An event that matches nothing
// still yields a row, with both references left NULL.
func (s *Service) Resolve(ctx context.Context, db *gorm.DB, rec source.ActivityRecord) (songplaydomain.Songplay, bool, error) {
	if !rec.IsSongPlay() {
		return songplaydomain.Songplay{}, false, songplaydomain.ErrNotSongPlay
	}
	switch {
	case rec.UserID == nil:
		return songplaydomain.Songplay{}, false, songplaydomain.ErrMissingUser
	case rec.SessionID == nil:
		return songplaydomain.Songplay{}, false, songplaydomain.ErrMissingSession
	case rec.Level == nil:
		return songplaydomain.Songplay{}, false, songplaydomain.ErrMissingLevel
	}

	play := songplaydomain.Songplay{
		SongplayID: s.genID.Generate(),
		UserID:     *rec.UserID,
		SessionID:  *rec.SessionID,
		StartTime:  rec.StartTime(),
		Level:      *rec.Level,
		Location:   rec.Location,
		UserAgent:  rec.UserAgent,
	}

	if rec.Song == nil || rec.Artist == nil || rec.Length == nil {
		return play, false, nil
	}

	match, err := s.repo.FindSongArtist(ctx, db, *rec.Song, *rec.Artist, *rec.Length)
	if err != nil {
		return songplaydomain.Songplay{}, false, fmt.Errorf("find song for %q by %q: %w", *rec.Song, *rec.Artist, err)
	}
	if match == nil {
		return play, false, nil
	}

	songID, artistID := match.SongID, match.ArtistID
	play.SongID = &songID
	play.ArtistID = &artistID
	return play, true, nil
}
