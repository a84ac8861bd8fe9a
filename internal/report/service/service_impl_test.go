package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/sparkify/internal/config"
	dimensiondomain "github.com/smallbiznis/sparkify/internal/dimension/domain"
	reportdomain "github.com/smallbiznis/sparkify/internal/report/domain"
	"github.com/smallbiznis/sparkify/internal/schema"
	songplaydomain "github.com/smallbiznis/sparkify/internal/songplay/domain"
	"github.com/smallbiznis/sparkify/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptr[T any](v T) *T { return &v }

func seeded(t *testing.T) reportdomain.Service {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, schema.New(conn, config.DialectSQLite, nil).Create(context.Background()))

	require.NoError(t, conn.Create(&[]dimensiondomain.Artist{
		{ArtistID: "AR1", Name: "Artist Y"},
		{ArtistID: "AR2", Name: "Casual"},
	}).Error)
	require.NoError(t, conn.Create(&[]dimensiondomain.Song{
		{SongID: "SO1", Title: "Song X", ArtistID: "AR1", Duration: ptr(210.0)},
		{SongID: "SO2", Title: "I Didn't Mean To", ArtistID: "AR2", Duration: ptr(218.93179)},
	}).Error)

	start := time.Date(2018, 11, 1, 21, 0, 0, 0, time.UTC)
	plays := []songplaydomain.Songplay{
		{SongplayID: 1, UserID: 8, SessionID: 1, StartTime: start, Level: "free", SongID: ptr("SO1"), ArtistID: ptr("AR1")},
		{SongplayID: 2, UserID: 8, SessionID: 1, StartTime: start.Add(time.Minute), Level: "free", SongID: ptr("SO1"), ArtistID: ptr("AR1")},
		{SongplayID: 3, UserID: 9, SessionID: 2, StartTime: start.Add(2 * time.Minute), Level: "paid", SongID: ptr("SO2"), ArtistID: ptr("AR2")},
		{SongplayID: 4, UserID: 9, SessionID: 2, StartTime: start.Add(3 * time.Minute), Level: "paid"},
	}
	require.NoError(t, conn.Create(&plays).Error)

	return New(Params{DB: conn, Log: zap.NewNop()})
}

func TestCounts(t *testing.T) {
	svc := seeded(t)

	counts, err := svc.Counts(context.Background())
	require.NoError(t, err)

	want := []reportdomain.TableCount{
		{Table: "dim_user", Rows: 0},
		{Table: "dim_song", Rows: 2},
		{Table: "dim_artist", Rows: 2},
		{Table: "dim_time", Rows: 0},
		{Table: "fact_songplay", Rows: 4},
	}
	assert.Equal(t, want, counts)
}

func TestSample(t *testing.T) {
	svc := seeded(t)

	rows, err := svc.Sample(context.Background(), "fact_songplay", 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Contains(t, rows[0], "songplay_id")

	rows, err = svc.Sample(context.Background(), "dim_song", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSampleRejectsUnknownTable(t *testing.T) {
	svc := seeded(t)

	_, err := svc.Sample(context.Background(), "users; DROP TABLE dim_song", 5)
	assert.ErrorIs(t, err, reportdomain.ErrUnknownTable)
}

func TestTopSongs(t *testing.T) {
	svc := seeded(t)

	top, err := svc.TopSongs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, reportdomain.SongPlays{SongID: "SO1", Title: "Song X", ArtistName: "Artist Y", Plays: 2}, top[0])
	assert.Equal(t, int64(1), top[1].Plays)
}

func TestRecentSongplays(t *testing.T) {
	svc := seeded(t)

	recent, err := svc.RecentSongplays(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), int64(recent[0].SongplayID))
	assert.Nil(t, recent[0].SongID)
	assert.Equal(t, int64(3), int64(recent[1].SongplayID))
}
