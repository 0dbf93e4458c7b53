package state

import (
	"sync"
	"sync/atomic"

	models "github.com/RoGogDBD/activity-tracker/internal/model"
)

// Metrics хранит счётчики активности, разделяемые между агрегатором
// и планировщиком сохранения.
//
// Целочисленные счётчики атомарные: record-операции не блокируются и
// безопасны при любом числе конкурентных вызовов. Дистанция — единственное
// дробное поле — защищена собственным коротким мьютексом, который
// удерживается только на время сложения и никогда поверх I/O.
// Объединять всё под одним мьютексом нельзя: это выстроило бы
// высокочастотные обновления клавиш и кликов в очередь за расчётом
// дистанции.
type Metrics struct {
	intervalKeys    atomic.Uint64
	intervalClicks  atomic.Uint64
	intervalScrolls atomic.Uint64

	intervalDistMu sync.Mutex
	intervalDistIn float64

	totalKeys    atomic.Uint64
	totalClicks  atomic.Uint64
	totalScrolls atomic.Uint64

	totalDistMu sync.Mutex
	totalDistIn float64

	latestX, latestY     atomic.Int32
	lastCalcX, lastCalcY atomic.Int32
}

// New создаёт пустое состояние метрик.
func New() *Metrics {
	return &Metrics{}
}

// RecordKeypress учитывает одно нажатие клавиши.
func (m *Metrics) RecordKeypress() {
	m.intervalKeys.Add(1)
}

// RecordClick учитывает один клик мыши.
func (m *Metrics) RecordClick() {
	m.intervalClicks.Add(1)
}

// RecordScroll учитывает n шагов прокрутки.
func (m *Metrics) RecordScroll(n uint64) {
	m.intervalScrolls.Add(n)
}

// RecordMove запоминает последнюю позицию курсора. Дистанция здесь не
// считается: её периодически вычисляет агрегатор.
func (m *Metrics) RecordMove(x, y int32) {
	m.latestX.Store(x)
	m.latestY.Store(y)
}

// AddDistance прибавляет пройденные дюймы к интервальному аккумулятору.
func (m *Metrics) AddDistance(inches float64) {
	if inches <= 0 {
		return
	}
	m.intervalDistMu.Lock()
	m.intervalDistIn += inches
	m.intervalDistMu.Unlock()
}

// SnapshotAndReset атомарно снимает и обнуляет интервальные счётчики.
//
// Каждый целочисленный счётчик обменивается на ноль атомарно, поэтому
// конкурентный инкремент попадает ровно в один интервал — текущий или
// следующий, но никогда в оба и никогда в никакой.
func (m *Metrics) SnapshotAndReset() models.Delta {
	d := models.Delta{
		Keypresses:  m.intervalKeys.Swap(0),
		MouseClicks: m.intervalClicks.Swap(0),
		ScrollSteps: m.intervalScrolls.Swap(0),
	}
	m.intervalDistMu.Lock()
	d.MouseDistanceIn = m.intervalDistIn
	m.intervalDistIn = 0
	m.intervalDistMu.Unlock()
	return d
}

// IntervalSnapshot возвращает текущие интервальные счётчики, не сбрасывая
// их. Используется статусным маршрутом.
func (m *Metrics) IntervalSnapshot() models.Delta {
	d := models.Delta{
		Keypresses:  m.intervalKeys.Load(),
		MouseClicks: m.intervalClicks.Load(),
		ScrollSteps: m.intervalScrolls.Load(),
	}
	m.intervalDistMu.Lock()
	d.MouseDistanceIn = m.intervalDistIn
	m.intervalDistMu.Unlock()
	return d
}

// MergeIntoTotals прибавляет дельту завершённого интервала к суммам за всё
// время. Не зависит от блокировок интервальных счётчиков.
func (m *Metrics) MergeIntoTotals(d models.Delta) {
	m.totalKeys.Add(d.Keypresses)
	m.totalClicks.Add(d.MouseClicks)
	m.totalScrolls.Add(d.ScrollSteps)
	if d.MouseDistanceIn > 0 {
		m.totalDistMu.Lock()
		m.totalDistIn += d.MouseDistanceIn
		m.totalDistMu.Unlock()
	}
}

// SeedTotals устанавливает стартовые суммы, загруженные из хранилища.
// Вызывается один раз до начала тиков сохранения.
func (m *Metrics) SeedTotals(d models.Delta) {
	m.totalKeys.Store(d.Keypresses)
	m.totalClicks.Store(d.MouseClicks)
	m.totalScrolls.Store(d.ScrollSteps)
	m.totalDistMu.Lock()
	m.totalDistIn = d.MouseDistanceIn
	m.totalDistMu.Unlock()
}

// Totals возвращает текущие суммы за всё время.
func (m *Metrics) Totals() models.Delta {
	d := models.Delta{
		Keypresses:  m.totalKeys.Load(),
		MouseClicks: m.totalClicks.Load(),
		ScrollSteps: m.totalScrolls.Load(),
	}
	m.totalDistMu.Lock()
	d.MouseDistanceIn = m.totalDistIn
	m.totalDistMu.Unlock()
	return d
}

// Position возвращает последнюю известную позицию курсора.
func (m *Metrics) Position() (int32, int32) {
	return m.latestX.Load(), m.latestY.Load()
}

// LastCalculated возвращает позицию на момент последнего расчёта дистанции.
func (m *Metrics) LastCalculated() (int32, int32) {
	return m.lastCalcX.Load(), m.lastCalcY.Load()
}

// MarkCalculated сдвигает маркер последнего расчёта дистанции.
func (m *Metrics) MarkCalculated(x, y int32) {
	m.lastCalcX.Store(x)
	m.lastCalcY.Store(y)
}
