// Package app wires together the supply engine's components: Store,
// Generator Adapter, Job Manager, Push Hub, Supply Controller, and
// Telemetry. It is the shared core used by cmd/trivia-server, grounded
// on the teacher's internal/app/app.go dependency-injection root.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/generator"
	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/jobmanager"
	"github.com/bobmcallan/trivia/internal/models"
	surrealstore "github.com/bobmcallan/trivia/internal/store/surrealdb"
	"github.com/bobmcallan/trivia/internal/supply"
	"github.com/bobmcallan/trivia/internal/telemetry"
)

// App holds every initialized component and the shared configuration.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Store      interfaces.Store
	Generator  interfaces.Generator
	JobManager *jobmanager.Manager
	Hub        *jobmanager.PushHub
	Supply     *supply.Controller
	Telemetry  *telemetry.Telemetry

	StartupTime time.Time
}

func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, the Store, the Generator Adapter,
// the Job Manager, the Push Hub, the Supply Controller, and Telemetry.
// configPath may be empty, in which case the default resolution logic is
// used, mirroring the teacher's NewApp.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("TRIVIA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "trivia-service.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/trivia-service.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := surrealstore.New(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var gen interfaces.Generator
	if config.Generator.APIKey != "" {
		gen, err = generator.New(ctx, config.Generator.APIKey,
			generator.WithLogger(logger),
			generator.WithModel(config.Generator.Model),
			generator.WithRateLimit(config.Generator.RateLimit),
			generator.WithTimeout(config.Generator.GetTimeout()),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize generator adapter")
		}
	} else {
		logger.Warn().Msg("Generator API key not configured - job generation will fail")
	}

	tel := telemetry.New(models.AlertThresholds{
		MaxActiveJobs:         config.Telemetry.MaxActiveJobs,
		MinSuccessRate:        config.Telemetry.MinSuccessRate,
		MinCompletionsForRate: config.Telemetry.MinCompletionsForRate,
		MaxDuplicateRatio:     config.Telemetry.MaxDuplicateRatio,
		MaxConcurrentStreams:  config.Telemetry.MaxConcurrentStreams,
	})

	hub := jobmanager.NewPushHub(logger)
	jobMgr := jobmanager.New(store, gen, hub, tel, logger, config.JobManager)

	supplyController := supply.New(store, jobMgr)

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Generator:   gen,
		JobManager:  jobMgr,
		Hub:         hub,
		Supply:      supplyController,
		Telemetry:   tel,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App. Shutdown order: stop the
// job manager (and with it the push hub), then close the store.
func (a *App) Close() {
	if a.JobManager != nil {
		a.JobManager.Stop()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

// StartJobManager launches the background job manager, if enabled.
func (a *App) StartJobManager() {
	if a.Config.JobManager.Enabled {
		a.JobManager.Start()
	}
}
