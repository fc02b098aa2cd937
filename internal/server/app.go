// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/rest"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const purgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	revocations refreshtokens.Repository
	server      *rest.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	secrets, err := auth.NewSecrets(c.AccessTokenSecret, c.RefreshTokenSecret, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	codec := auth.NewCodec(secrets)

	app := &App{config: c, logger: logger, db: db}

	revocations, rdb, err := newRevocationStore(ctx, c, rm, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("revocation store error: %w", err)
	}
	app.revocations = revocations
	app.redis = rdb

	// a nil Repository must stay an untyped nil for the service
	var store services.RevocationStore
	if revocations != nil {
		store = revocations
	}

	verifier, err := services.NewCredentialVerifier(db, rm, c.BcryptCost)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app.server = rest.NewHTTPServer(rest.Options{
		Address:        c.EndpointAddrHTTP,
		AllowedOrigins: c.AllowedOrigins,
		Codec:          codec,
		Auth:           services.NewAuthService(db, rm, verifier, codec, store, logger),
		Users:          services.NewUserService(db, rm, c.BcryptCost, logger),
		Notes:          services.NewNoteService(db, rm, logger),
		Health:         db.PingContext,
		Metrics:        rest.NewMetrics(reg),
		Logger:         logger,
	})

	return app, nil
}

// newRevocationStore picks the revocation list backend. The redis client is
// returned so the caller can close it.
func newRevocationStore(ctx context.Context, c *config.Config, rm repomanager.RepositoryManager, db *sql.DB) (refreshtokens.Repository, *redis.Client, error) {
	switch c.RevocationBackend {
	case config.RevocationPostgres:
		return rm.RefreshTokens(db), nil, nil
	case config.RevocationRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return refreshtokens.NewRedisStore(rdb), rdb, nil
	default:
		return nil, nil, nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeRevocations drops revocation records of tokens that have expired on
// their own. Redis expires keys itself, so this only does work for postgres.
func (app *App) purgeRevocations(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.revocations.DeleteExpired(ctx, time.Now())
			if err != nil {
				app.logger.Error(ctx, "error purging revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged revoked tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.revocations != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.purgeRevocations(ctx, purgeInterval)
		}()
	}

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
