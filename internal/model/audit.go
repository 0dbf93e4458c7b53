package models

// AuditEvent представляет результат одной попытки сохранения метрик
type AuditEvent struct {
	Timestamp       int64   `json:"ts"`
	Store           string  `json:"store"`
	Outcome         string  `json:"outcome"`
	Error           string  `json:"error,omitempty"`
	Keypresses      uint64  `json:"keypresses"`
	MouseClicks     uint64  `json:"mouse_clicks"`
	ScrollSteps     uint64  `json:"scroll_steps"`
	MouseDistanceIn float64 `json:"mouse_distance_in"`
}

// Возможные значения поля Outcome.
const (
	AuditOutcomeOK    = "ok"
	AuditOutcomeError = "error"
)

// AuditObserver интерфейс наблюдателя для аудита
type AuditObserver interface {
	OnAuditEvent(event AuditEvent) error
}

// AuditSubject интерфейс субъекта, генерирующего события аудита
type AuditSubject interface {
	Attach(observer AuditObserver)
	Detach(observer AuditObserver)
	Notify(event AuditEvent)
}
