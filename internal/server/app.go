// Package server wires configuration, storage, mail, rate limiting and the
// auth service together and runs the HTTP and gRPC health servers until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/auth"
	"github.com/dmitrijs2005/eventplanner/internal/server/config"
	"github.com/dmitrijs2005/eventplanner/internal/server/httpapi"
	"github.com/dmitrijs2005/eventplanner/internal/server/mail"
	"github.com/dmitrijs2005/eventplanner/internal/server/ratelimit"
	"github.com/dmitrijs2005/eventplanner/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventplanner/internal/server/services"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/eventplanner/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	closers    []io.Closer
	dispatcher *mail.Dispatcher
	http       *httpapi.Server
	grpc       *gs.GRPCServer
}

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

	newSESMailer = func(ctx context.Context, opts mail.SESOptions) (mail.Mailer, error) {
		return mail.NewSESMailer(ctx, opts)
	}

	newRedisClient = func(ctx context.Context, addr string) (ratelimit.RedisClient, error) {
		return ratelimit.NewRedisClient(ctx, addr)
	}
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogDriver, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	mailer, err := app.buildMailer(ctx)
	if err != nil {
		app.close()
		return nil, err
	}
	app.dispatcher = mail.NewDispatcher(mailer, logger.With("module", "mail"))

	limiter, err := app.buildLimiter(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	minter := auth.NewTokenMinter(
		c.AccessTokenSecret, c.RefreshTokenSecret,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration,
	)
	svc := services.NewAuthService(db, rm, c, minter, app.dispatcher, logger.With("module", "auth"))

	if c.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(svc, minter, limiter, logger, httpapi.RouterConfig{
		AllowedOrigins: c.AllowedOrigins,
		SecureCookies:  c.IsProduction(),
	})

	app.http = httpapi.NewServer(c.HTTPAddr, router, logger, c.ShutdownTimeout)
	if c.GRPCAddr != "" {
		app.grpc = gs.NewGRPCServer(c.GRPCAddr, logger, db, 0)
	}

	return app, nil
}

func (app *App) buildMailer(ctx context.Context) (mail.Mailer, error) {
	switch app.config.MailDriver {
	case "", mail.DriverLog:
		return mail.NewLogMailer(app.logger.With("module", "mail")), nil
	case mail.DriverSES:
		m, err := newSESMailer(ctx, mail.SESOptions{
			Region:          app.config.SESRegion,
			Endpoint:        app.config.SESEndpoint,
			AccessKeyID:     app.config.SESAccessKeyID,
			SecretAccessKey: app.config.SESSecretAccessKey,
			From:            app.config.MailFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("ses init error: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown mail driver %q", app.config.MailDriver)
}

func (app *App) buildLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	if app.config.RedisAddr == "" {
		app.logger.Warn(ctx, "REDIS_ADDR not set, rate limiting disabled")
		return ratelimit.Noop{}, nil
	}

	client, err := newRedisClient(ctx, app.config.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client)

	return ratelimit.NewRedisLimiter(client, app.config.RateLimitRequests, app.config.RateLimitWindow), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails.
// Pending mail is flushed before the database is closed.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.http.Run)
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runServer(ctx, cancelFunc, "grpc", app.grpc.Run)
		}()
	}

	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.dispatcher.Wait(flushCtx); err != nil {
		app.logger.Warn(ctx, "pending mail not delivered", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return app.close()
}

func (app *App) close() error {
	var errs []error
	for _, c := range app.closers {
		errs = append(errs, c.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return errors.Join(errs...)
}
