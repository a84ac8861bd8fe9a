package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smallbiznis/sparkify/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDialectSelectsDriver(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "postgres", cfg: Config{Type: config.DialectPostgres, Host: "localhost", Port: "5432"}, want: "postgres"},
		{name: "mysql", cfg: Config{Type: config.DialectMySQL, Host: "localhost", Port: "3306"}, want: "mysql"},
		{name: "sqlite", cfg: Config{Type: config.DialectSQLite, Name: "sparkifydb"}, want: "sqlite"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dialector, err := Dialect(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, dialector.Name())
		})
	}
}

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	require.Error(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: dim_song.song_id")))
	assert.True(t, IsDuplicateKeyErr(errors.New(`ERROR: duplicate key value violates unique constraint "dim_song_pkey"`)))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestIsCheckViolationErr(t *testing.T) {
	assert.True(t, IsCheckViolationErr(errors.New("CHECK constraint failed: duration > 0")))
	assert.True(t, IsCheckViolationErr(gorm.ErrCheckConstraintViolated))
	assert.False(t, IsCheckViolationErr(errors.New("UNIQUE constraint failed")))
}

func TestNewTestIsIsolated(t *testing.T) {
	first, err := NewTest()
	require.NoError(t, err)
	second, err := NewTest()
	require.NoError(t, err)

	require.NoError(t, first.Exec("CREATE TABLE scratch (id INTEGER)").Error)

	var count int64
	require.NoError(t, second.Raw("SELECT COUNT(*) FROM sqlite_master WHERE name = 'scratch'").Scan(&count).Error)
	assert.Zero(t, count)
}
