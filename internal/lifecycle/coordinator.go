package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State описывает фазу жизненного цикла приложения.
type State int32

const (
	// StateRunning — нормальная работа.
	StateRunning State = iota
	// StateShuttingDown — остановка запрошена, задачи завершаются.
	StateShuttingDown
	// StateStopped — ожидание задач закончено.
	StateStopped
)

type task struct {
	name string
	done chan struct{}
}

// Coordinator управляет совместной остановкой фоновых задач: один
// сигнал остановки, общий контекст и ограниченное ожидание завершения.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	grace  time.Duration
	log    *zap.Logger

	state atomic.Int32

	mu    sync.Mutex
	tasks []*task
}

// New создает новый экземпляр Coordinator.
//
// grace — максимальное время ожидания задач после запроса остановки.
func New(parent context.Context, grace time.Duration, log *zap.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		grace:  grace,
		log:    log,
	}
}

// Context возвращает контекст, отменяемый при запросе остановки.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// State возвращает текущую фазу жизненного цикла.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Go запускает именованную задачу в отдельной горутине и учитывает её
// при ожидании остановки.
func (c *Coordinator) Go(name string, fn func(ctx context.Context) error) {
	t := &task{name: name, done: make(chan struct{})}

	c.mu.Lock()
	c.tasks = append(c.tasks, t)
	c.mu.Unlock()

	go func() {
		defer close(t.done)
		if err := fn(c.ctx); err != nil {
			c.log.Error("Task finished with error",
				zap.String("task", name),
				zap.Error(err))
		}
	}()
}

// Shutdown запрашивает остановку. Повторные вызовы не имеют эффекта.
func (c *Coordinator) Shutdown() {
	if !c.state.CompareAndSwap(int32(StateRunning), int32(StateShuttingDown)) {
		return
	}
	c.log.Info("Shutdown requested")
	c.cancel()
}

// Wait ожидает завершения всех задач не дольше периода grace.
// Возвращает имена задач, не успевших завершиться.
func (c *Coordinator) Wait() []string {
	c.mu.Lock()
	tasks := make([]*task, len(c.tasks))
	copy(tasks, c.tasks)
	c.mu.Unlock()

	expired := make(chan struct{})
	timer := time.AfterFunc(c.grace, func() { close(expired) })
	defer timer.Stop()

	var stragglers []string
	for _, t := range tasks {
		select {
		case <-t.done:
			continue
		case <-expired:
		}
		// grace истёк, но задача могла успеть в последний момент
		select {
		case <-t.done:
		default:
			c.log.Warn("Task did not stop within grace period",
				zap.String("task", t.name),
				zap.Duration("grace", c.grace))
			stragglers = append(stragglers, t.name)
		}
	}

	c.state.Store(int32(StateStopped))
	return stragglers
}
