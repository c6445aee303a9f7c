// Command raphaeld is Raphael's single process entrypoint: it loads
// configuration, opens the Row Store, wires every component (auth,
// drops, ingest, query, broadcast, retention), and serves the HTTP
// surface until an interrupt triggers a graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/raphael-dev/raphael/internal/api"
	"github.com/raphael-dev/raphael/internal/auth"
	"github.com/raphael-dev/raphael/internal/broadcast"
	"github.com/raphael-dev/raphael/internal/config"
	"github.com/raphael-dev/raphael/internal/drops"
	"github.com/raphael-dev/raphael/internal/ingest"
	"github.com/raphael-dev/raphael/internal/logger"
	"github.com/raphael-dev/raphael/internal/query"
	"github.com/raphael-dev/raphael/internal/retention"
	"github.com/raphael-dev/raphael/internal/rowstore"
	"github.com/raphael-dev/raphael/internal/secretbox"
)

func main() {
	cfg := config.Load()
	logger.Initialize(getEnv("RAPHAEL_LOG_LEVEL", "info"), getEnv("RAPHAEL_LOG_PRETTY", "false") == "true")
	log := logger.GetLogger()

	log.Info().Msg("starting raphaeld")

	log.Info().Str("path", cfg.DatabasePath).Msg("opening row store")
	db, err := rowstore.Open(rowstore.Config{
		Path:                   cfg.DatabasePath,
		Synchronous:            cfg.SQLSynchronous,
		BusyTimeoutMS:          cfg.SQLBusyTimeoutMS,
		WALAutocheckpointPages: cfg.SQLWALAutocheckpointPages,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open row store")
	}
	defer db.Close()

	log.Info().Msg("running migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	jwtSecret, err := resolveJWTSecret(db, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve jwt secret")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     jwtSecret,
		Issuer:        "raphael",
		TokenDuration: cfg.SessionTTL,
	})
	sessionStore := auth.NewSessionStore(cfg.SessionTTL)
	authSvc := auth.NewService(db, jwtManager, sessionStore, auth.Config{
		Enabled:         cfg.AuthEnabled,
		PasswordLoginOn: cfg.PasswordLoginOn,
		AdminEmail:      cfg.AdminEmail,
	})

	if seed, err := config.LoadSeedFile(cfg.ConfigFile); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("failed to load config seed file")
	} else if seed != nil {
		log.Info().Str("path", cfg.ConfigFile).Msg("seeding auth policy from config file")
		if err := authSvc.SeedAuthPolicy(seed.AllowedEmails, seed.AllowedDomains, seed.DefaultCanIngest, seed.DefaultCanQuery); err != nil {
			log.Fatal().Err(err).Msg("failed to seed auth policy")
		}
	}

	dropsReg := drops.NewRegistry(db)

	pruner := retention.New(db, retention.Config{
		BatchSize:    cfg.PruneBatchSize,
		MaxRuntimeMS: int64(cfg.PruneMaxRuntimeMS),
		CadenceSpec:  cfg.PruneIntervalCron,
	})
	if err := pruner.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start retention pruner")
	}
	defer pruner.Stop()
	dropsReg.SetPruner(pruner)

	hub := broadcast.NewHub(dropsReg)
	go hub.Run()

	pipeline := ingest.NewPipeline(db, hub, cfg.BroadcastMaxItems, cfg.BroadcastBatchSize)
	queryEngine := query.NewEngine(db)

	a := api.New(db, authSvc, dropsReg, pipeline, queryEngine, hub, cfg)
	router := a.Router()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,

		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownTimeout := 30 * time.Second
	if raw := os.Getenv("RAPHAEL_SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			shutdownTimeout = d
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	} else {
		log.Info().Msg("http server stopped gracefully")
	}

	log.Info().Msg("graceful shutdown completed")
}

// resolveJWTSecret honors an explicit RAPHAEL_JWT_SECRET first. With
// none set, a random secret is generated once, sealed with secretbox,
// and persisted as an app_setting so restarts reuse the same secret
// instead of invalidating every live session.
func resolveJWTSecret(db *rowstore.Database, cfg *config.Config) (string, error) {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret, nil
	}

	const settingKey = "auth.jwt_secret_sealed"

	box, err := secretbox.Load(os.Getenv("RAPHAEL_SECRETBOX_KEY"), filepath.Join(cfg.DataDir, "raphael.secret"))
	if err != nil {
		return "", fmt.Errorf("loading secretbox key: %w", err)
	}

	existing, err := db.AppSettingGet(settingKey)
	if err != nil {
		return "", err
	}
	if existing != nil {
		secret, err := box.Open(existing.Value)
		if err != nil {
			return "", fmt.Errorf("unsealing persisted jwt secret: %w", err)
		}
		return string(secret), nil
	}

	secret, err := auth.GenerateSessionID()
	if err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	sealed, err := box.Seal([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sealing jwt secret: %w", err)
	}
	if err := db.AppSettingSetIfAbsent(settingKey, sealed); err != nil {
		return "", err
	}
	return secret, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
