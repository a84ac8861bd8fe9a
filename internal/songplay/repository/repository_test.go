package repository

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/sparkify/internal/config"
	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	"github.com/smallbiznis/sparkify/internal/schema"
	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, schema.New(conn, config.DialectSQLite, nil).Create(context.Background()))
	return conn
}

func TestFindSongArtistAmbiguousKey(t *testing.T) {
	conn := setupDB(t)
	require.NoError(t, conn.Create(&[]dimensiondomain.Artist{
		{ArtistID: "AR1", Name: "A"},
		{ArtistID: "AR2", Name: "A"},
	}).Error)
	require.NoError(t, conn.Create(&[]dimensiondomain.Song{
		{SongID: "SO1", Title: "T", ArtistID: "AR1", Duration: ptr(200.5)},
		{SongID: "SO2", Title: "T", ArtistID: "AR2", Duration: ptr(200.5)},
	}).Error)

	match, err := Provide(conn).FindSongArtist(context.Background(), conn, "T", "A", 200.5)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Contains(t, []string{"SO1", "SO2"}, match.SongID)
}

func TestFindSongArtistNoMatch(t *testing.T) {
	conn := setupDB(t)

	match, err := Provide(conn).FindSongArtist(context.Background(), conn, "T", "A", 200.5)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestInsertBatchAppends(t *testing.T) {
	conn := setupDB(t)
	r := Provide(conn)
	ctx := context.Background()

	start := time.UnixMilli(1541106106796).UTC()
	plays := []*songplaydomain.Songplay{
		{SongplayID: 1, UserID: 8, SessionID: 139, StartTime: start, Level: "free", SongID: ptr("SO1"), ArtistID: ptr("AR1")},
		{SongplayID: 2, UserID: 8, SessionID: 139, StartTime: start, Level: "free"},
	}
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return r.InsertBatch(ctx, tx, plays)
	}))
	require.NoError(t, r.InsertBatch(ctx, conn, nil))

	var stored []songplaydomain.Songplay
	require.NoError(t, conn.Order("songplay_id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].Resolved())
	assert.False(t, stored[1].Resolved())
	assert.True(t, stored[0].StartTime.Equal(start))
}
