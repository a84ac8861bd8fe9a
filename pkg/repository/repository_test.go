package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/sparkify/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type track struct {
	ID     int64  `gorm:"primaryKey;autoIncrement:false"`
	Title  string `gorm:"not null"`
	Artist string
}

func (track) TableName() string { return "tracks" }

func setupStore(t *testing.T) (*gorm.DB, Repository[track]) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&track{}))
	return conn, ProvideStore[track](conn)
}

func TestBatchCreateAndCount(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.BatchCreate(ctx, nil))
	require.NoError(t, store.BatchCreate(ctx, []*track{
		{ID: 1, Title: "Intro", Artist: "A"},
		{ID: 2, Title: "Outro", Artist: "A"},
		{ID: 3, Title: "Interlude", Artist: "B"},
	}))

	total, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	byArtist, err := store.Count(ctx, &track{Artist: "A"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byArtist)
}

func TestFindHonoursOptions(t *testing.T) {
	_, store := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.BatchCreate(ctx, []*track{
		{ID: 1, Title: "c"}, {ID: 2, Title: "a"}, {ID: 3, Title: "b"},
	}))

	rows, err := store.Find(ctx, nil, WithOrder("title ASC"), WithLimit(2))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Title)
	assert.Equal(t, "b", rows[1].Title)
}

func TestWithTrxRollsBack(t *testing.T) {
	conn, store := setupStore(t)
	ctx := context.Background()

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := store.WithTrx(tx).BatchCreate(ctx, []*track{{ID: 9, Title: "ghost"}}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	total, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}
