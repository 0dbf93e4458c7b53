package repository

import (
	"context"
	"errors"

	models "github.com/RoGogDBD/activity-tracker/internal/model"
)

// ErrNoSummary возвращается, когда строка metrics_summary (id=1) отсутствует.
var ErrNoSummary = errors.New("metrics summary row not found")

// Tx — одна транзакция сохранения интервала метрик.
//
// Вставка сырой строки и инкрементальное обновление сводки фиксируются
// или откатываются только вместе.
type Tx interface {
	// InsertMetricsRow добавляет строку в append-only таблицу metrics.
	InsertMetricsRow(ctx context.Context, d models.Delta) error
	// ApplySummaryDelta прибавляет дельту к строке metrics_summary (id=1)
	// и обновляет last_updated.
	ApplySummaryDelta(ctx context.Context, d models.Delta) error
	// Commit фиксирует транзакцию.
	Commit(ctx context.Context) error
	// Rollback откатывает транзакцию.
	Rollback(ctx context.Context) error
}

// Store определяет интерфейс одного хранилища метрик (локального или
// удалённого). Планировщик сохранения работает с любым числом хранилищ
// одинаково и независимо.
type Store interface {
	// Name возвращает имя хранилища для логов и аудита.
	Name() string
	// Begin открывает транзакцию сохранения одной дельты.
	Begin(ctx context.Context) (Tx, error)
	// LoadSummary читает строку сводки; ErrNoSummary, если её нет.
	LoadSummary(ctx context.Context) (models.SummaryRow, error)
	// SumHistory агрегирует всю таблицу metrics; запасной путь посева
	// стартовых сумм при недоступной сводке.
	SumHistory(ctx context.Context) (models.Delta, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
	// Close освобождает соединения.
	Close()
}
