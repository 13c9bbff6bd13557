package whatsthat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/putto11262002/whatsthat/core"
	"github.com/putto11262002/whatsthat/pkg/api"
	"github.com/putto11262002/whatsthat/pkg/router"
	"github.com/putto11262002/whatsthat/pkg/server"
)

// App wires the local store, the session and the API client behind the shell.
type App struct {
	config *Config
	logger *slog.Logger
	db     *core.SQLiteDB

	kv      core.KVStore
	session *core.KVSession
	drafts  *core.DraftStore

	registry *prometheus.Registry
	client   *api.Client

	metricsServer *server.Server

	cleanupFuncs []func(context.Context)
}

func New(config *Config) (*App, error) {
	if config == nil {
		return nil, errors.New("nil config")
	}
	if err := config.Validate(); err != nil {
		if msg := FormatValidationErrors(err); msg != "" {
			return nil, fmt.Errorf("invalid config:\n%s", msg)
		}
		return nil, err
	}
	app := &App{config: config}

	logger, closeLog, err := NewLogger(config.Log.Level, config.Log.Sink)
	if err != nil {
		return nil, err
	}
	app.logger = logger
	app.AddCleanupFunc(func(ctx context.Context) {
		closeLog()
	})

	sqliteOptions := &core.SQLiteDBOption{
		Mode:        "rwc",
		JournalMode: "WAL",
		BusyTimeout: 5000,
	}
	app.db, err = core.NewSQLiteDB(config.Store.File, sqliteOptions)
	if err != nil {
		app.Close(context.Background())
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		app.Close(context.Background())
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	app.kv = core.NewSQLiteKV(app.db.DB)
	app.session = core.NewKVSession(app.kv)
	app.drafts = core.NewDraftStore(app.kv, app.logger)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector())
	app.client = api.NewClient(config.API.BaseURL, app.session,
		api.WithHTTPClient(&http.Client{Timeout: config.API.Timeout}),
		api.WithLogger(app.logger),
		api.WithMetrics(api.NewMetrics(app.registry)),
	)

	if config.Metrics.Addr != "" {
		r := router.New(router.WithLogger(app.logger))
		r.Router.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))
		app.metricsServer = &server.Server{
			Server: &http.Server{Addr: config.Metrics.Addr, Handler: r},
			Logger: app.logger,
		}
	}

	return app, nil
}

func (app *App) Client() *api.Client {
	return app.client
}

func (app *App) Logger() *slog.Logger {
	return app.logger
}

// Run serves metrics if configured and runs the shell on in and out until in is exhausted,
// the user quits or ctx is done.
func (app *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metricsDone := make(chan error, 1)
	if app.metricsServer != nil {
		go func() {
			metricsDone <- app.metricsServer.Start(ctx)
		}()
	} else {
		metricsDone <- nil
	}

	shell := NewShell(app.client, app.session, app.drafts, out,
		WithShellLogger(app.logger),
		WithPageLimit(app.config.Chat.PageLimit))
	err := shell.Run(ctx, in)
	cancel()
	if merr := <-metricsDone; merr != nil {
		app.logger.Error("metrics server", slog.Any("error", merr))
	}
	return err
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

// Close runs the clean up functions, most recently added first.
func (app *App) Close(ctx context.Context) {
	for _, f := range slices.Backward(app.cleanupFuncs) {
		f(ctx)
	}
	app.cleanupFuncs = nil
}
