package schema

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/sparkify/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is the migration version that holds the full star schema.
const Version = 1

//go:embed migrations
var embeddedMigrations embed.FS

// ErrSchema marks DDL failures. No load can run without a valid schema.
var ErrSchema = errors.New("schema_error")

// Tables lists the managed tables in creation order.
var Tables = []string{"dim_user", "dim_song", "dim_artist", "dim_time", "fact_songplay"}

type Params struct {
	fx.In

	DB     *gorm.DB
	Config config.Config
	Log    *zap.Logger
}

// Manager owns the lifecycle of the five warehouse tables.
type Manager struct {
	db      *gorm.DB
	dialect string
	log     *zap.Logger
}

func NewManager(p Params) *Manager {
	return New(p.DB, p.Config.DBType, p.Log)
}

func New(db *gorm.DB, dialect string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		db:      db,
		dialect: dialect,
		log:     log.Named("schema"),
	}
}

// Create creates any missing tables. It is safe to call repeatedly.
func (m *Manager) Create(ctx context.Context) error {
	migrator, err := m.migrator(ctx)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: create tables: %v", ErrSchema, err)
	}
	m.log.Info("schema ready", zap.String("dialect", m.dialect))
	return nil
}

// Reset drops all five tables, including any data in them, and recreates them.
// The tracked version is forced first so the drop also runs against tables that
// were created outside of migration tracking.
func (m *Manager) Reset(ctx context.Context) error {
	migrator, err := m.migrator(ctx)
	if err != nil {
		return err
	}
	if err := migrator.Force(Version); err != nil {
		return fmt.Errorf("%w: force version: %v", ErrSchema, err)
	}
	if err := migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: drop tables: %v", ErrSchema, err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: create tables: %v", ErrSchema, err)
	}
	m.log.Warn("schema reset, all warehouse rows dropped", zap.String("dialect", m.dialect))
	return nil
}

// The migrator is never closed: closing it would close the shared *sql.DB.
func (m *Manager) migrator(ctx context.Context) (*migrate.Migrate, error) {
	if m.db == nil {
		return nil, fmt.Errorf("%w: database handle is required", ErrSchema)
	}
	sqlDB, err := m.db.WithContext(ctx).DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	sub, err := fs.Sub(embeddedMigrations, "migrations/"+m.dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: open migrations: %v", ErrSchema, err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: create migration source: %v", ErrSchema, err)
	}

	driver, err := m.driver(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("%w: create migration driver: %v", ErrSchema, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, m.dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("%w: create migrator: %v", ErrSchema, err)
	}
	return migrator, nil
}

func (m *Manager) driver(sqlDB *sql.DB) (database.Driver, error) {
	switch m.dialect {
	case config.DialectPostgres:
		return postgres.WithInstance(sqlDB, &postgres.Config{})
	case config.DialectMySQL:
		return mysql.WithInstance(sqlDB, &mysql.Config{})
	case config.DialectSQLite:
		return sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", m.dialect)
	}
}
