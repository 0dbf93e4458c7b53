package monitor

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// DefaultPPI используется, когда монитор не сообщает физический размер
// или точка не привязана ни к одному монитору.
const DefaultPPI = 96.0

const mmPerInch = 25.4

var (
	// ErrNotInitialized возвращается при запросе к реестру до обнаружения мониторов.
	ErrNotInitialized = errors.New("monitor registry is not initialized")
	// ErrNoMonitors возвращается, когда обнаружение не нашло ни одного монитора.
	ErrNoMonitors = errors.New("no monitors discovered")
)

// Descriptor описывает один монитор. Неизменяем после обнаружения.
//
// Поля:
//   - IDHash: хеш имени монитора
//   - OriginX, OriginY: левый верхний угол в виртуальных координатах экрана
//   - WidthPx, HeightPx: разрешение в пикселях
//   - WidthMm, HeightMm: физический размер в миллиметрах (0 — неизвестен)
//   - PPI: плотность пикселей, среднее по горизонтали и вертикали
type Descriptor struct {
	IDHash   uint64
	Name     string
	OriginX  int
	OriginY  int
	WidthPx  int
	HeightPx int
	WidthMm  int
	HeightMm int
	PPI      float64
}

// Contains сообщает, попадает ли точка в прямоугольник монитора.
func (d Descriptor) Contains(x, y int) bool {
	return x >= d.OriginX && x < d.OriginX+d.WidthPx &&
		y >= d.OriginY && y < d.OriginY+d.HeightPx
}

// NewDescriptor собирает дескриптор: хеширует имя и вычисляет PPI из
// физического размера.
func NewDescriptor(name string, originX, originY, widthPx, heightPx, widthMm, heightMm int) Descriptor {
	return Descriptor{
		IDHash:   xxhash.Sum64String(name),
		Name:     name,
		OriginX:  originX,
		OriginY:  originY,
		WidthPx:  widthPx,
		HeightPx: heightPx,
		WidthMm:  widthMm,
		HeightMm: heightMm,
		PPI:      computePPI(widthPx, heightPx, widthMm, heightMm),
	}
}

// computePPI возвращает среднюю плотность пикселей по двум осям.
// Нулевой физический размер означает DefaultPPI.
func computePPI(widthPx, heightPx, widthMm, heightMm int) float64 {
	if widthMm <= 0 || heightMm <= 0 {
		return DefaultPPI
	}
	widthIn := float64(widthMm) / mmPerInch
	heightIn := float64(heightMm) / mmPerInch
	ppiX := float64(widthPx) / widthIn
	ppiY := float64(heightPx) / heightIn
	return (ppiX + ppiY) / 2
}

// Fallback возвращает детерминированный дескриптор по умолчанию:
// один FullHD-монитор с PPI 96 в начале координат.
func Fallback() Descriptor {
	return NewDescriptor("fallback", 0, 0, 1920, 1080, 0, 0)
}

// Discoverer возвращает набор мониторов. Вызывается один раз при старте;
// обнаруженный набор замораживается на всё время жизни процесса.
type Discoverer interface {
	Discover() ([]Descriptor, error)
}

// StaticDiscoverer отдаёт заранее известный набор мониторов. Используется
// для конфигурации раскладки и подстановки фейковых дескрипторов в тестах.
type StaticDiscoverer []Descriptor

// Discover возвращает набор без изменений.
func (s StaticDiscoverer) Discover() ([]Descriptor, error) {
	return s, nil
}

// Registry хранит замороженный набор мониторов и отвечает на запрос
// "какому монитору принадлежит точка".
//
// После Init реестр только читается, поэтому блокировки не нужны:
// Init обязан завершиться до запуска конкурентных задач.
type Registry struct {
	monitors    []Descriptor
	initialized bool
	log         *zap.Logger
}

// NewRegistry создаёт пустой (неинициализированный) реестр.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

// Init выполняет одноразовое обнаружение мониторов.
// Пустой результат оставляет реестр инициализированным, но непригодным
// для поиска, и возвращает ErrNoMonitors.
func (r *Registry) Init(d Discoverer) error {
	monitors, err := d.Discover()
	if err != nil {
		return err
	}
	r.monitors = monitors
	r.initialized = true
	if len(monitors) == 0 {
		return ErrNoMonitors
	}
	for _, m := range monitors {
		r.log.Info("monitor discovered",
			zap.String("name", m.Name),
			zap.Int("width_px", m.WidthPx),
			zap.Int("height_px", m.HeightPx),
			zap.Int("origin_x", m.OriginX),
			zap.Int("origin_y", m.OriginY),
			zap.Float64("ppi", m.PPI),
		)
	}
	return nil
}

// Initialized сообщает, было ли выполнено обнаружение.
func (r *Registry) Initialized() bool {
	return r.initialized
}

// Monitors возвращает копию обнаруженного набора.
func (r *Registry) Monitors() []Descriptor {
	out := make([]Descriptor, len(r.monitors))
	copy(out, r.monitors)
	return out
}

// Locate возвращает дескриптор монитора, содержащего точку.
// Точка вне всех известных мониторов привязывается к первому обнаруженному
// с диагностикой в лог.
func (r *Registry) Locate(x, y int) (Descriptor, error) {
	if !r.initialized {
		return Descriptor{}, ErrNotInitialized
	}
	if len(r.monitors) == 0 {
		return Descriptor{}, ErrNoMonitors
	}
	for _, m := range r.monitors {
		if m.Contains(x, y) {
			return m, nil
		}
	}
	r.log.Warn("point outside known monitor bounds, using first monitor",
		zap.Int("x", x),
		zap.Int("y", y),
	)
	return r.monitors[0], nil
}
