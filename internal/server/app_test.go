package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/dmitrijs2005/eventplanner/internal/server/config"
	"github.com/dmitrijs2005/eventplanner/internal/server/mail"
	"github.com/dmitrijs2005/eventplanner/internal/server/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	closed bool
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(1, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) TTL(ctx context.Context, key string) *redis.DurationCmd {
	return redis.NewDurationResult(time.Minute, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

type fakeMailer struct{}

func (fakeMailer) Send(context.Context, mail.Message) error { return nil }

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	if mutate != nil {
		mutate(c)
	}
	return &App{config: c, logger: logging.Nop{}}
}

func TestBuildMailer(t *testing.T) {
	t.Run("log driver", func(t *testing.T) {
		app := newTestApp(t, nil)
		m, err := app.buildMailer(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &mail.LogMailer{}, m)
	})

	t.Run("ses driver", func(t *testing.T) {
		orig := newSESMailer
		t.Cleanup(func() { newSESMailer = orig })

		var got mail.SESOptions
		newSESMailer = func(_ context.Context, opts mail.SESOptions) (mail.Mailer, error) {
			got = opts
			return fakeMailer{}, nil
		}

		app := newTestApp(t, func(c *config.Config) {
			c.MailDriver = mail.DriverSES
			c.SESRegion = "eu-west-1"
			c.SESEndpoint = "http://localhost:4566"
			c.MailFrom = "noreply@example.com"
		})
		m, err := app.buildMailer(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fakeMailer{}, m)
		assert.Equal(t, "eu-west-1", got.Region)
		assert.Equal(t, "http://localhost:4566", got.Endpoint)
		assert.Equal(t, "noreply@example.com", got.From)
	})

	t.Run("ses error", func(t *testing.T) {
		orig := newSESMailer
		t.Cleanup(func() { newSESMailer = orig })
		newSESMailer = func(context.Context, mail.SESOptions) (mail.Mailer, error) {
			return nil, errors.New("no credentials")
		}

		app := newTestApp(t, func(c *config.Config) { c.MailDriver = mail.DriverSES })
		_, err := app.buildMailer(context.Background())
		assert.ErrorContains(t, err, "ses init error")
	})

	t.Run("unknown driver", func(t *testing.T) {
		app := newTestApp(t, func(c *config.Config) { c.MailDriver = "smtp" })
		_, err := app.buildMailer(context.Background())
		assert.ErrorContains(t, err, "unknown mail driver")
	})
}

func TestBuildLimiter(t *testing.T) {
	t.Run("noop without redis", func(t *testing.T) {
		app := newTestApp(t, nil)
		l, err := app.buildLimiter(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ratelimit.Noop{}, l)
	})

	t.Run("redis", func(t *testing.T) {
		orig := newRedisClient
		t.Cleanup(func() { newRedisClient = orig })

		client := &fakeRedis{}
		newRedisClient = func(_ context.Context, addr string) (ratelimit.RedisClient, error) {
			assert.Equal(t, "localhost:6379", addr)
			return client, nil
		}

		app := newTestApp(t, func(c *config.Config) { c.RedisAddr = "localhost:6379" })
		l, err := app.buildLimiter(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &ratelimit.RedisLimiter{}, l)

		require.NoError(t, app.close())
		assert.True(t, client.closed)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		orig := newRedisClient
		t.Cleanup(func() { newRedisClient = orig })
		newRedisClient = func(context.Context, string) (ratelimit.RedisClient, error) {
			return nil, errors.New("dial tcp: refused")
		}

		app := newTestApp(t, func(c *config.Config) { c.RedisAddr = "localhost:6379" })
		_, err := app.buildLimiter(context.Background())
		assert.ErrorContains(t, err, "redis init error")
	})
}

func TestNewApp_MigrationFailureClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string) (*sql.DB, error) { return db, nil }

	// any goose statement is unexpected and fails
	mock.ExpectClose()

	c := &config.Config{}
	c.LoadDefaults()
	c.LogLevel = "error"

	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "migrations error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_BadLogLevel(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.LogLevel = "loud"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "logger init error")
}
