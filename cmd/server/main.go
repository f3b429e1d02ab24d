// @title                       UAC API
// @version                     1.0.0
// @description                 User access control: registration, bearer-token login and role-gated administration.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/api"
	"github.com/baseuac/uac-api/internal/core/ports"
	"github.com/baseuac/uac-api/internal/core/service"
	mongostore "github.com/baseuac/uac-api/internal/infrastructure/db/mongo"
	"github.com/baseuac/uac-api/internal/infrastructure/db/postgres"
	redisstore "github.com/baseuac/uac-api/internal/infrastructure/db/redis"
	"github.com/baseuac/uac-api/internal/infrastructure/queue"
	"github.com/baseuac/uac-api/internal/pkg/config"
	"github.com/baseuac/uac-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// userStore is what both credential backends provide.
type userStore interface {
	ports.UserRepository
	ports.Pinger
}

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: cfg.AppName,
	})
	if envErr != nil {
		log.Debug().Msg(".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open user store")
	}
	defer closeStore()

	probes := map[string]ports.Pinger{cfg.StoreDriver: store}

	var replay ports.RegistrationReplayStore
	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, registration replay disabled")
	} else {
		defer rdb.Close()
		replayStore := redisstore.NewRegistrationReplayStore(rdb, cfg.Auth.RegistrationReplayTTL)
		replay = replayStore
		probes["redis"] = replayStore
	}

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	var lastLogin ports.LastLoginRecorder
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var dispatcher *queue.LastLoginDispatcher
	if cfg.Auth.LastLoginWorkers > 0 {
		dispatcher = queue.NewLastLoginDispatcher(cfg.Auth.LastLoginWorkers, store, log)
		dispatcher.Start(workerCtx)
		lastLogin = dispatcher
	}

	authService := service.NewAuthService(service.AuthServiceParams{
		Repo:      store,
		Hasher:    hasher,
		Tokens:    tokens,
		LastLogin: lastLogin,
		Replay:    replay,
		Log:       log,
	})
	roleService := service.NewRoleService(store, log)

	if cfg.Seed.Enabled {
		seeder := service.NewSeeder(store, hasher, log)
		created, err := seeder.Seed(ctx, service.DefaultSeedAccounts(cfg.Seed.AdminPassword, cfg.Seed.ManagerPassword))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed users")
		}
		log.Info().Int("created", created).Msg("seed accounts ensured")
	}

	e := api.NewRouter(api.Deps{
		AppName: cfg.AppName,
		Auth:    authService,
		Roles:   roleService,
		Probes:  probes,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	cancelWorkers()
	if dispatcher != nil {
		dispatcher.Wait()
	}
	log.Info().Msg("server stopped")
}

// openStore connects the configured credential backend and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (userStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
			log.Info().Msg("postgres migrations applied")
		}
		return postgres.NewUserRepository(pool), pool.Close, nil

	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			AppName:     cfg.AppName,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := mongostore.Disconnect(client); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
