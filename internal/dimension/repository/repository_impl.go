package repository

import (
	"context"

	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

type repo struct{}

func Provide() dimensiondomain.Repository {
	return &repo{}
}

func (r *repo) InsertSong(ctx context.Context, db *gorm.DB, song *dimensiondomain.Song) (int64, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "song_id"}}, DoNothing: true}).
		Create(song)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertArtist(ctx context.Context, db *gorm.DB, artist *dimensiondomain.Artist) (int64, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "artist_id"}}, DoNothing: true}).
		Create(artist)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertTimeBuckets(ctx context.Context, db *gorm.DB, buckets []dimensiondomain.TimeBucket) (int64, error) {
	if len(buckets) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "start_time"}}, DoNothing: true}).
		CreateInBatches(&buckets, batchSize)
	return res.RowsAffected, res.Error
}

func (r *repo) UpsertUsers(ctx context.Context, db *gorm.DB, users []dimensiondomain.User) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "level"}},
			DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "gender"}),
		}).
		CreateInBatches(&users, batchSize)
	return res.RowsAffected, res.Error
}
