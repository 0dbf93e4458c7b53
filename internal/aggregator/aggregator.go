package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/input"
	"github.com/RoGogDBD/activity-tracker/internal/monitor"
	"github.com/RoGogDBD/activity-tracker/internal/state"
)

// Aggregator применяет события ввода к общим счётчикам и на фиксированном
// периоде пересчитывает пройденную курсором дистанцию.
type Aggregator struct {
	events   <-chan input.Event
	metrics  *state.Metrics
	distance *monitor.Normalizer
	interval time.Duration
	log      *zap.Logger
}

// New создаёт агрегатор поверх канала событий.
func New(events <-chan input.Event, metrics *state.Metrics, distance *monitor.Normalizer, interval time.Duration, log *zap.Logger) *Aggregator {
	return &Aggregator{
		events:   events,
		metrics:  metrics,
		distance: distance,
		interval: interval,
		log:      log,
	}
}

// Run выполняет основной цикл до закрытия источника событий или отмены
// контекста. Уже применённые события сохраняются при отмене.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	x, y := a.metrics.Position()
	a.metrics.MarkCalculated(x, y)

	a.log.Debug("aggregator started", zap.Duration("interval", a.interval))
	for {
		// Накопившиеся события обрабатываются раньше тика дистанции.
		select {
		case ev, ok := <-a.events:
			if !ok {
				a.log.Debug("event source closed, aggregator exiting")
				return nil
			}
			a.apply(ev)
			continue
		default:
		}

		select {
		case ev, ok := <-a.events:
			if !ok {
				a.log.Debug("event source closed, aggregator exiting")
				return nil
			}
			a.apply(ev)
		case <-ticker.C:
			a.calculateDistance()
		case <-ctx.Done():
			a.log.Debug("aggregator received cancellation")
			return nil
		}
	}
}

// apply классифицирует событие и обновляет счётчики. Перемещение курсора
// только запоминает позицию, без побочного расчёта дистанции.
func (a *Aggregator) apply(ev input.Event) {
	switch ev.Kind {
	case input.KeyPress:
		a.metrics.RecordKeypress()
	case input.MouseClick:
		a.metrics.RecordClick()
	case input.Scroll:
		a.metrics.RecordScroll(ev.Amount)
	case input.MouseMove:
		a.metrics.RecordMove(ev.X, ev.Y)
	}
}

// calculateDistance сравнивает последнюю известную позицию с позицией на
// момент предыдущего тика и добавляет пройденный путь в интервальный
// аккумулятор.
func (a *Aggregator) calculateDistance() {
	x, y := a.metrics.Position()
	lastX, lastY := a.metrics.LastCalculated()
	if x == lastX && y == lastY {
		return
	}
	inches := a.distance.Distance(int(lastX), int(lastY), int(x), int(y))
	a.metrics.AddDistance(inches)
	a.metrics.MarkCalculated(x, y)
}
