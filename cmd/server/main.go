// Package main is the entry point for the navstats statistics service.
// It opens the NAV database, optionally imports an externally supplied table from S3
// (and uploads database snapshots there), and serves statistics runs over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/navstats/internal/config"
	"github.com/aristath/navstats/internal/database"
	"github.com/aristath/navstats/internal/engine"
	"github.com/aristath/navstats/internal/modules/navdata"
	"github.com/aristath/navstats/internal/reliability"
	"github.com/aristath/navstats/internal/server"
	"github.com/aristath/navstats/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting navstats")

	db, err := database.New(database.Config{
		Path:    cfg.DBPath,
		Profile: database.ProfileStandard,
		Name:    "navdata",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open NAV database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate NAV database")
	}

	repo := navdata.NewRepository(db.Conn(), log)

	var snapshot *reliability.SnapshotService
	if cfg.S3 != nil {
		client, err := navdata.NewS3Client(context.Background(), navdata.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		if err := importTable(client, cfg.S3, repo, log); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3.Bucket).Msg("Failed to import NAV table from S3")
		}
		snapshot = reliability.NewSnapshotService(db, client, cfg.S3.Bucket, "snapshots/", cfg.DataDir, log)
	}

	cached, err := navdata.NewCachedSource(repo, cfg.CacheSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create series cache")
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid engine configuration")
	}
	eng, err := engine.New(engineCfg, engine.Sources{
		Series:    cached,
		HedgeCost: repo,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create statistics engine")
	}

	srv := server.New(server.Config{
		Log:      log,
		NavDB:    db,
		Engine:   eng,
		Entities: repo,
		Snapshot: snapshot,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// importTable loads the configured CSV table and upserts it into the repository
func importTable(client navdata.ObjectGetter, cfg *config.S3Config, repo *navdata.Repository, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	table, err := navdata.NewS3Loader(client, cfg.Bucket, log).Load(ctx, cfg.Key)
	if err != nil {
		return err
	}

	_, err = repo.Import(table)
	return err
}
