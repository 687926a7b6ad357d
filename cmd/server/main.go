// Package main is the entry point for the pathsim simulation server.
// It wires configuration, the runs database, the simulation services and the
// background maintenance jobs, then serves the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/config"
	"github.com/aristath/pathsim/internal/database"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/analytics"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/aristath/pathsim/internal/modules/simulation"
	"github.com/aristath/pathsim/internal/reliability"
	"github.com/aristath/pathsim/internal/scheduler"
	"github.com/aristath/pathsim/internal/server"
	"github.com/aristath/pathsim/pkg/logger"
)

func main() {
	// Load configuration first to get the log level.
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
		Pretty: true,
	})

	log.Info().Msg("Starting pathsim")

	// Runs database (WAL mode, standard profile).
	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "runs.db"),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer runsDB.Close()

	if err := runsDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate runs database")
	}

	// Core services. The project is small enough to wire by hand.
	bus := events.NewBus(log)
	simulator := abm.NewSimulator(cfg.SimWorkers)

	simulationSvc := simulation.NewService(cfg.SimWorkers, log)
	runsRepo := runs.NewRepository(runsDB.Conn(), log)
	runsSvc := runs.NewService(runsRepo, simulator, bus, log)
	analyticsSvc := analytics.NewService(runsSvc, log)

	databases := map[string]*database.DB{"runs": runsDB}
	backupSvc := reliability.NewBackupService(databases, cfg.DataDir, log)

	// Cloud backup is optional: enabled only when endpoint and credentials
	// are configured.
	var cloudBackup *reliability.CloudBackupService
	keepArchives := 0
	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewObjectStore(
			cfg.Backup.Endpoint,
			cfg.Backup.AccessKeyID,
			cfg.Backup.SecretAccessKey,
			cfg.Backup.Bucket,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize object store - cloud backup disabled")
		} else {
			cloudBackup = reliability.NewCloudBackupService(store, backupSvc, bus, cfg.DataDir, log)
			keepArchives = cfg.Backup.Keep
			log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Cloud backup enabled")
		}
	}

	srv := server.New(server.Config{
		Log:           log,
		Config:        cfg,
		RunsDB:        runsDB,
		EventBus:      bus,
		SimulationSvc: simulationSvc,
		RunsSvc:       runsSvc,
		AnalyticsSvc:  analyticsSvc,
		BackupService: backupSvc,
		CloudBackup:   cloudBackup,
	})

	// Background maintenance jobs.
	sched := scheduler.New(log)

	// Retention cleanup daily at 03:00.
	cleanupJob := scheduler.NewCleanupRunsJob(runsRepo, bus, cfg.RunRetentionDays, log)
	if err := sched.AddJob("0 0 3 * * *", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}

	// WAL checkpoint hourly.
	checkpointJob := scheduler.NewWALCheckpointJob(databases, log)
	if err := sched.AddJob("0 0 * * * *", checkpointJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register checkpoint job")
	}

	// Backups daily at 02:00.
	backupJob := scheduler.NewBackupJob(backupSvc, cloudBackup, keepArchives, log)
	if err := sched.AddJob("0 0 2 * * *", backupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register backup job")
	}

	sched.Start()
	defer sched.Stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal.
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
