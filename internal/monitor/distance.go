package monitor

import (
	"math"

	"go.uber.org/zap"
)

// Normalizer переводит перемещение курсора между двумя точками экрана в
// дюймы, опираясь на реестр мониторов.
type Normalizer struct {
	registry *Registry
	log      *zap.Logger
}

// NewNormalizer создаёт нормализатор поверх реестра.
func NewNormalizer(registry *Registry, log *zap.Logger) *Normalizer {
	return &Normalizer{registry: registry, log: log}
}

// Distance возвращает длину перемещения в дюймах.
//
// Совпадающие точки дают 0 без обращения к реестру. Если реестр не готов
// или точка не находится, расчёт деградирует до DefaultPPI с диагностикой.
// Перемещение через границу мониторов считается приближённо по PPI
// стартового монитора: такие перемещения редки и малы относительно
// накопленных сумм.
func (n *Normalizer) Distance(x1, y1, x2, y2 int) float64 {
	if x1 == x2 && y1 == y2 {
		return 0
	}

	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	pixels := math.Sqrt(dx*dx + dy*dy)

	m1, err := n.registry.Locate(x1, y1)
	if err != nil {
		n.log.Warn("failed to locate monitor for point, using default PPI", zap.Error(err))
		return pixels / DefaultPPI
	}
	m2, err := n.registry.Locate(x2, y2)
	if err != nil {
		n.log.Warn("failed to locate monitor for point, using default PPI", zap.Error(err))
		return pixels / DefaultPPI
	}

	if m1.IDHash != m2.IDHash {
		n.log.Warn("cross-monitor movement, using starting monitor PPI",
			zap.String("from", m1.Name),
			zap.String("to", m2.Name),
		)
	}

	ppi := m1.PPI
	if ppi <= 0 {
		ppi = DefaultPPI
	}
	return pixels / ppi
}
