package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/audit"
	models "github.com/RoGogDBD/activity-tracker/internal/model"
	"github.com/RoGogDBD/activity-tracker/internal/repository"
	"github.com/RoGogDBD/activity-tracker/internal/state"
)

// Scheduler периодически снимает накопленный интервал со счётчиков и
// сохраняет его в хранилища. Первичное хранилище обязательно,
// вторичное опционально, каждое сохраняется независимой транзакцией.
type Scheduler struct {
	metrics   *state.Metrics
	primary   repository.Store
	secondary repository.Store
	interval  time.Duration
	audit     *audit.Manager
	log       *zap.Logger
}

// NewScheduler создает новый экземпляр Scheduler.
//
// secondary может быть nil, если удалённое хранилище не настроено.
// auditMgr может быть nil, если аудит не настроен.
func NewScheduler(metrics *state.Metrics, primary, secondary repository.Store, interval time.Duration, auditMgr *audit.Manager, log *zap.Logger) *Scheduler {
	return &Scheduler{
		metrics:   metrics,
		primary:   primary,
		secondary: secondary,
		interval:  interval,
		audit:     auditMgr,
		log:       log,
	}
}

// Run запускает цикл сохранения до отмены контекста. Перед первым
// тиком загружает накопленные итоги из первичного хранилища.
func (s *Scheduler) Run(ctx context.Context) error {
	s.seedTotals(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// seedTotals восстанавливает итоги из строки сводки, при её отсутствии
// пересчитывает их по таблице metrics. Любая ошибка здесь не мешает
// запуску: счёт просто начинается с нуля.
func (s *Scheduler) seedTotals(ctx context.Context) {
	sr, err := s.primary.LoadSummary(ctx)
	if err == nil {
		s.metrics.SeedTotals(sr.Totals())
		s.log.Info("Loaded persisted totals",
			zap.Int64("keypresses", sr.TotalKeypresses),
			zap.Int64("mouse_clicks", sr.TotalMouseClicks),
			zap.Int64("scroll_steps", sr.TotalScrollSteps),
			zap.Float64("mouse_travel_mi", sr.TotalMouseTravelMi))
		return
	}
	s.log.Warn("Failed to load summary, falling back to history", zap.Error(err))

	history, err := s.primary.SumHistory(ctx)
	if err != nil {
		s.log.Warn("Failed to aggregate history, starting totals from zero", zap.Error(err))
		return
	}
	s.metrics.SeedTotals(history)
	s.log.Info("Recovered totals from metrics history",
		zap.Uint64("keypresses", history.Keypresses))
}

// tick снимает интервал, добавляет его к итогам и сохраняет в оба
// хранилища. Сбой одного хранилища не затрагивает другое: транзакции
// независимы и не повторяются.
func (s *Scheduler) tick(ctx context.Context) {
	delta := s.metrics.SnapshotAndReset()
	s.metrics.MergeIntoTotals(delta)

	if delta.Empty() {
		return
	}

	s.persist(ctx, s.primary, delta)
	if s.secondary != nil {
		s.persist(ctx, s.secondary, delta)
	}
}

func (s *Scheduler) persist(ctx context.Context, store repository.Store, delta models.Delta) {
	err := s.persistTx(ctx, store, delta)
	if err != nil {
		s.log.Error("Failed to persist interval",
			zap.String("store", store.Name()),
			zap.Error(err))
	} else {
		s.log.Debug("Persisted interval",
			zap.String("store", store.Name()),
			zap.Uint64("keypresses", delta.Keypresses),
			zap.Uint64("mouse_clicks", delta.MouseClicks),
			zap.Uint64("scroll_steps", delta.ScrollSteps),
			zap.Float64("mouse_distance_in", delta.MouseDistanceIn))
	}
	s.notifyAudit(store.Name(), delta, err)
}

// persistTx выполняет одну транзакцию сохранения: строка истории и
// обновление сводки фиксируются вместе или не фиксируются вовсе.
func (s *Scheduler) persistTx(ctx context.Context, store repository.Store, delta models.Delta) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := tx.InsertMetricsRow(ctx, delta); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.ApplySummaryDelta(ctx, delta); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Scheduler) notifyAudit(storeName string, delta models.Delta, persistErr error) {
	if s.audit == nil || !s.audit.HasObservers() {
		return
	}

	event := models.AuditEvent{
		Timestamp:       time.Now().Unix(),
		Store:           storeName,
		Outcome:         models.AuditOutcomeOK,
		Keypresses:      delta.Keypresses,
		MouseClicks:     delta.MouseClicks,
		ScrollSteps:     delta.ScrollSteps,
		MouseDistanceIn: delta.MouseDistanceIn,
	}
	if persistErr != nil {
		event.Outcome = models.AuditOutcomeError
		event.Error = persistErr.Error()
	}
	s.audit.Notify(event)
}
