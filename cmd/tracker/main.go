package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/aggregator"
	"github.com/RoGogDBD/activity-tracker/internal/audit"
	"github.com/RoGogDBD/activity-tracker/internal/config"
	"github.com/RoGogDBD/activity-tracker/internal/input"
	"github.com/RoGogDBD/activity-tracker/internal/lifecycle"
	"github.com/RoGogDBD/activity-tracker/internal/monitor"
	"github.com/RoGogDBD/activity-tracker/internal/persistence"
	"github.com/RoGogDBD/activity-tracker/internal/repository"
	"github.com/RoGogDBD/activity-tracker/internal/state"
	"github.com/RoGogDBD/activity-tracker/internal/status"
	"github.com/RoGogDBD/activity-tracker/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("tracker failed to start: %v", err)
	}
}

func run() error {
	settings, err := config.Parse()
	if err != nil {
		return err
	}

	logger, err := config.Initialize(settings.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	version.PrintBuildInfo()

	registry := monitor.NewRegistry(logger)
	if err := registry.Init(discoverer(settings)); err != nil {
		// Без мониторов дистанция считается по PPI по умолчанию.
		logger.Warn("Monitor discovery failed", zap.Error(err))
	}

	primary, err := repository.NewSQLite(settings.LocalDBPath)
	if err != nil {
		return err
	}
	defer primary.Close()
	logger.Info("Local storage ready", zap.String("path", settings.LocalDBPath))

	var secondary repository.Store
	if settings.DatabaseDSN != "" {
		pg, err := repository.NewPostgres(context.Background(), settings.DatabaseDSN)
		if err != nil {
			logger.Warn("Remote storage unavailable, continuing without it", zap.Error(err))
		} else {
			secondary = pg
			defer pg.Close()
			logger.Info("Remote storage ready")
		}
	}

	auditMgr := buildAudit(settings)

	metrics := state.New()
	bridge := input.NewBridge(input.DefaultBuffer, logger)
	normalizer := monitor.NewNormalizer(registry, logger)

	agg := aggregator.New(bridge.Events(), metrics, normalizer, settings.ProcessingInterval(), logger)
	sched := persistence.NewScheduler(metrics, primary, secondary, settings.SavingInterval(), auditMgr, logger)

	coord := lifecycle.New(context.Background(), settings.ShutdownGrace(), logger)

	// Хук ОС блокируется внутри библиотеки и может не успеть
	// остановиться, поэтому он не учитывается при ожидании.
	listener := input.NewListener(bridge, logger)
	go listener.Run(coord.Context())

	coord.Go("aggregator", agg.Run)
	coord.Go("persistence", sched.Run)

	if settings.StatusAddress != "" {
		handler := status.NewHandler(metrics, bridge, primary, logger)
		router := status.NewRouter(handler, logger)
		coord.Go("status-server", func(ctx context.Context) error {
			return status.Serve(ctx, settings.StatusAddress, router, logger)
		})
	}

	logger.Info("Tracker started",
		zap.Duration("processing_interval", settings.ProcessingInterval()),
		zap.Duration("saving_interval", settings.SavingInterval()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	coord.Shutdown()
	if stragglers := coord.Wait(); len(stragglers) > 0 {
		logger.Warn("Some tasks did not stop in time", zap.Strings("tasks", stragglers))
	}
	if dropped := bridge.Dropped(); dropped > 0 {
		logger.Warn("Input events dropped during run", zap.Uint64("count", dropped))
	}
	logger.Info("Tracker stopped")
	return nil
}

// discoverer строит источник раскладки мониторов: из конфигурации,
// если она задана, иначе один экран по умолчанию.
func discoverer(settings *config.Settings) monitor.Discoverer {
	if len(settings.Monitors) == 0 {
		return monitor.StaticDiscoverer{monitor.Fallback()}
	}
	described := make(monitor.StaticDiscoverer, 0, len(settings.Monitors))
	for _, mc := range settings.Monitors {
		described = append(described, monitor.NewDescriptor(
			mc.Name, mc.OriginX, mc.OriginY, mc.WidthPx, mc.HeightPx, mc.WidthMm, mc.HeightMm))
	}
	return described
}

// buildAudit собирает менеджер аудита. Возвращает nil, если аудит не
// настроен.
func buildAudit(settings *config.Settings) *audit.Manager {
	if settings.AuditFile == "" && settings.AuditURL == "" {
		return nil
	}
	mgr := audit.NewManager()
	if settings.AuditFile != "" {
		mgr.Attach(audit.NewFileObserver(settings.AuditFile))
	}
	if settings.AuditURL != "" {
		mgr.Attach(audit.NewHTTPObserver(settings.AuditURL))
	}
	return mgr
}
