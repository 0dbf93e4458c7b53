package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	models "github.com/RoGogDBD/activity-tracker/internal/model"
)

// FileObserver записывает события аудита сохранения в файл, по одной
// JSON-строке на событие.
//
// Поля:
//   - filePath: путь к файлу для записи событий
//   - mu: мьютекс для синхронизации доступа к файлу
type FileObserver struct {
	filePath string
	mu       sync.Mutex
}

// NewFileObserver создает новый экземпляр FileObserver.
//
// filePath — путь к файлу аудита.
//
// Возвращает указатель на FileObserver.
func NewFileObserver(filePath string) *FileObserver {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Failed to create audit directory: %v", err)
	}

	return &FileObserver{filePath: filePath}
}

// OnAuditEvent обрабатывает событие аудита, записывая его в файл.
//
// event — событие аудита для записи.
//
// Возвращает ошибку при неудаче записи.
func (f *FileObserver) OnAuditEvent(event models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	return nil
}

// HTTPObserver отправляет события аудита на удалённый сервер.
//
// Поля:
//   - url: адрес удалённого сервера
//   - client: HTTP-клиент для отправки запросов
type HTTPObserver struct {
	url    string
	client *http.Client
}

// NewHTTPObserver создает новый экземпляр HTTPObserver.
//
// url — адрес удалённого сервера.
//
// Возвращает указатель на HTTPObserver.
func NewHTTPObserver(url string) *HTTPObserver {
	return &HTTPObserver{
		url:    url,
		client: &http.Client{},
	}
}

// OnAuditEvent обрабатывает событие аудита, отправляя его на удалённый сервер.
//
// event — событие аудита для отправки.
//
// Возвращает ошибку при неудаче отправки.
func (h *HTTPObserver) OnAuditEvent(event models.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	resp, err := h.client.Post(h.url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to send audit event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("audit server returned status %d", resp.StatusCode)
	}

	return nil
}

// Manager управляет списком наблюдателей аудита и уведомляет их о событиях.
//
// Поля:
//   - observers: список наблюдателей (AuditObserver)
//   - mu: RW-мьютекс для синхронизации доступа к списку наблюдателей
type Manager struct {
	observers []models.AuditObserver
	mu        sync.RWMutex
}

// NewManager создает новый экземпляр Manager.
//
// Возвращает указатель на Manager.
func NewManager() *Manager {
	return &Manager{
		observers: make([]models.AuditObserver, 0),
	}
}

// Attach добавляет наблюдателя к списку.
//
// observer — наблюдатель, реализующий интерфейс AuditObserver.
func (m *Manager) Attach(observer models.AuditObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

// Detach удаляет наблюдателя из списка.
//
// observer — наблюдатель для удаления.
func (m *Manager) Detach(observer models.AuditObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, obs := range m.observers {
		if obs == observer {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			break
		}
	}
}

// Notify уведомляет всех подключённых наблюдателей о событии.
//
// event — событие аудита для рассылки.
func (m *Manager) Notify(event models.AuditEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, observer := range m.observers {
		if err := observer.OnAuditEvent(event); err != nil {
			log.Printf("Audit observer error: %v", err)
		}
	}
}

// HasObservers проверяет, есть ли подключённые наблюдатели.
//
// Возвращает true, если список наблюдателей не пуст.
func (m *Manager) HasObservers() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers) > 0
}
