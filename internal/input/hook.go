package input

import (
	"context"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// Кнопки мыши в нумерации libuiohook.
const (
	buttonLeft  = 1
	buttonRight = 2
)

// Listener перекачивает события системного хука клавиатуры и мыши в Bridge.
//
// Хук работает в собственном потоке ОС и не имеет надёжной кроссплатформенной
// отмены: остановка через hook.End() — best-effort, застрявший поток
// бросается при выходе процесса.
type Listener struct {
	bridge *Bridge
	log    *zap.Logger
}

// NewListener создаёт слушатель поверх моста.
func NewListener(bridge *Bridge, log *zap.Logger) *Listener {
	return &Listener{bridge: bridge, log: log}
}

// Run запускает хук и до отмены контекста публикует преобразованные
// события. По завершении закрывает мост.
func (l *Listener) Run(ctx context.Context) {
	events := hook.Start()
	defer hook.End()

	l.log.Info("input hook started")
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("input listener received cancellation")
			l.bridge.Close()
			return
		case ev, ok := <-events:
			if !ok {
				l.log.Warn("input hook channel closed unexpectedly")
				l.bridge.Close()
				return
			}
			if converted, ok := convert(ev); ok {
				l.bridge.Publish(converted)
			}
		}
	}
}

// convert переводит событие хука во внутреннее представление.
// События, не влияющие на метрики, отбрасываются.
func convert(ev hook.Event) (Event, bool) {
	switch ev.Kind {
	case hook.KeyDown:
		return Event{Kind: KeyPress}, true
	case hook.MouseDown:
		// Как и в остальных счётчиках, кликом считаются только левая и
		// правая кнопки.
		if ev.Button != buttonLeft && ev.Button != buttonRight {
			return Event{}, false
		}
		return Event{Kind: MouseClick}, true
	case hook.MouseMove, hook.MouseDrag:
		return Event{Kind: MouseMove, X: int32(ev.X), Y: int32(ev.Y)}, true
	case hook.MouseWheel:
		rotation := int64(ev.Rotation)
		if rotation < 0 {
			rotation = -rotation
		}
		if rotation == 0 {
			return Event{}, false
		}
		return Event{Kind: Scroll, Amount: uint64(rotation)}, true
	}
	return Event{}, false
}
