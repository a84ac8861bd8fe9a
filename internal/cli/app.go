package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/sparkify/internal/clock"
	"github.com/smallbiznis/sparkify/internal/config"
	"github.com/smallbiznis/sparkify/internal/dimension"
	"github.com/smallbiznis/sparkify/internal/loader"
	"github.com/smallbiznis/sparkify/internal/observability"
	"github.com/smallbiznis/sparkify/internal/report"
	"github.com/smallbiznis/sparkify/internal/schema"
	"github.com/smallbiznis/sparkify/internal/songplay"
	"github.com/smallbiznis/sparkify/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const stopTimeout = 15 * time.Second

var ErrResetNotConfirmed = errors.New("reset_not_confirmed")

// Overrides are command line values that take precedence over the loaded config.
type Overrides struct {
	SongDataDir string
	LogDataDir  string
	LogLevel    string
	DBType      string
	DBDSN       string
}

func (o Overrides) apply(cfg config.Config) (config.Config, error) {
	if o.SongDataDir != "" {
		cfg.SongDataDir = o.SongDataDir
	}
	if o.LogDataDir != "" {
		cfg.LogDataDir = o.LogDataDir
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.DBType != "" {
		dialect, err := config.NormalizeDialect(o.DBType)
		if err != nil {
			return cfg, err
		}
		cfg.DBType = dialect
	}
	if o.DBDSN != "" {
		cfg.DBDSN = o.DBDSN
	}
	return cfg, nil
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func newApp(overrides Overrides, console io.Writer, targets ...any) *fx.App {
	return fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		config.Module,
		fx.Decorate(overrides.apply),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		schema.Module,
		dimension.Module,
		songplay.Module,
		loader.Module,
		report.Module,
		fx.Provide(fx.Annotate(
			func() io.Writer { return console },
			fx.ResultTags(`name:"console"`),
		)),
		fx.Populate(targets...),
	)
}

// withApp starts the application graph, runs fn and always stops the graph,
// which closes the database connection and flushes logs.
func withApp(ctx context.Context, overrides Overrides, console io.Writer, fn func(ctx context.Context, cfg config.Config) error, targets ...any) (err error) {
	var cfg config.Config
	app := newApp(overrides, console, append(targets, &cfg)...)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if stopErr := app.Stop(stopCtx); stopErr != nil && err == nil {
			err = fmt.Errorf("stop: %w", stopErr)
		}
	}()

	return fn(ctx, cfg)
}

func confirmReset(confirmed bool, cfg config.Config) error {
	if confirmed || cfg.ConfirmReset {
		return nil
	}
	return fmt.Errorf("%w: pass --yes or set SPARKIFY_RESET_CONFIRM=true to drop all warehouse tables", ErrResetNotConfirmed)
}
