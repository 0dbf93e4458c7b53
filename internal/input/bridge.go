package input

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBuffer — ёмкость канала между потоком захвата и агрегатором.
const DefaultBuffer = 1024

// Bridge — ограниченный неблокирующий канал между потоком системного хука
// и агрегатором.
//
// Поток захвата не должен останавливаться никогда, поэтому при полном
// канале событие отбрасывается, а не блокирует отправителя. Close вызывает
// только публикующая сторона, когда событий больше не будет.
type Bridge struct {
	events  chan Event
	dropped atomic.Uint64
	once    sync.Once
	log     *zap.Logger
}

// NewBridge создаёт мост с каналом заданной ёмкости.
func NewBridge(size int, log *zap.Logger) *Bridge {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Bridge{
		events: make(chan Event, size),
		log:    log,
	}
}

// Publish отправляет событие без блокировки. Возвращает false, если канал
// полон и событие отброшено.
func (b *Bridge) Publish(ev Event) bool {
	select {
	case b.events <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Events возвращает приёмную сторону канала. Канал закрывается вызовом
// Close, что служит агрегатору сигналом конца потока.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Close закрывает канал событий. Повторные вызовы безопасны.
func (b *Bridge) Close() {
	b.once.Do(func() {
		close(b.events)
	})
}

// Dropped возвращает число событий, отброшенных из-за полного канала.
func (b *Bridge) Dropped() uint64 {
	return b.dropped.Load()
}
