package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// Значения по умолчанию.
const (
	DefaultProcessingIntervalMs = 250
	DefaultSavingIntervalMs     = 60000
	DefaultLocalDBPath          = "activity.db"
	DefaultLogLevel             = "info"
	DefaultShutdownGraceSec     = 5
)

// Константы для имен переменных окружения
const (
	EnvProcessingInterval = "PROCESSING_INTERVAL"
	EnvSavingInterval     = "SAVING_INTERVAL"
	EnvLocalDBPath        = "LOCAL_DB_PATH"
	EnvDatabaseDSN        = "DATABASE_DSN"
	EnvLogLevel           = "LOG_LEVEL"
	EnvStatusAddress      = "STATUS_ADDRESS"
	EnvAuditFile          = "AUDIT_FILE"
	EnvAuditURL           = "AUDIT_URL"
	EnvConfig             = "CONFIG"
)

// Константы для флагов командной строки
const (
	FlagProcessingInterval = "p"
	FlagSavingInterval     = "i"
	FlagLocalDBPath        = "f"
	FlagDatabaseDSN        = "d"
	FlagLogLevel           = "l"
	FlagStatusAddress      = "s"
	FlagShutdownGrace      = "g"
	FlagAuditFile          = "audit-file"
	FlagAuditURL           = "audit-url"
	FlagConfig             = "c"
)

// MonitorConfig описывает один монитор в JSON-конфигурации раскладки.
type MonitorConfig struct {
	Name     string `json:"name"`
	OriginX  int    `json:"origin_x"`
	OriginY  int    `json:"origin_y"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	WidthMm  int    `json:"width_mm"`
	HeightMm int    `json:"height_mm"`
}

// Settings — итоговая конфигурация процесса.
//
// Приоритет источников: переменные окружения > флаги > JSON-файл > значения
// по умолчанию.
type Settings struct {
	ProcessingIntervalMs int
	SavingIntervalMs     int
	LocalDBPath          string
	DatabaseDSN          string
	LogLevel             string
	StatusAddress        string
	AuditFile            string
	AuditURL             string
	ShutdownGraceSec     int
	Monitors             []MonitorConfig
}

// ProcessingInterval возвращает период обработки событий.
func (s *Settings) ProcessingInterval() time.Duration {
	return time.Duration(s.ProcessingIntervalMs) * time.Millisecond
}

// SavingInterval возвращает период сохранения метрик.
func (s *Settings) SavingInterval() time.Duration {
	return time.Duration(s.SavingIntervalMs) * time.Millisecond
}

// ShutdownGrace возвращает срок, отведённый задачам на остановку.
func (s *Settings) ShutdownGrace() time.Duration {
	return time.Duration(s.ShutdownGraceSec) * time.Second
}

// JSONConfig представляет файл конфигурации (флаг -c или CONFIG).
type JSONConfig struct {
	ProcessingIntervalMs *int            `json:"processing_interval_ms"` // PROCESSING_INTERVAL или флаг -p
	SavingIntervalMs     *int            `json:"saving_interval_ms"`     // SAVING_INTERVAL или флаг -i
	LocalDBPath          string          `json:"local_db_path"`          // LOCAL_DB_PATH или флаг -f
	DatabaseDSN          string          `json:"database_dsn"`           // DATABASE_DSN или флаг -d
	LogLevel             string          `json:"log_level"`              // LOG_LEVEL или флаг -l
	StatusAddress        string          `json:"status_address"`         // STATUS_ADDRESS или флаг -s
	AuditFile            string          `json:"audit_file"`             // AUDIT_FILE или флаг -audit-file
	AuditURL             string          `json:"audit_url"`              // AUDIT_URL или флаг -audit-url
	ShutdownGraceSec     *int            `json:"shutdown_grace_sec"`     // флаг -g
	Monitors             []MonitorConfig `json:"monitors"`               // только JSON
}

// Parse собирает конфигурацию из флагов, переменных окружения и
// необязательного JSON-файла. Ошибки конфигурации фатальны при старте.
func Parse() (*Settings, error) {
	processing := flag.Int(FlagProcessingInterval, DefaultProcessingIntervalMs, "Processing interval in milliseconds")
	saving := flag.Int(FlagSavingInterval, DefaultSavingIntervalMs, "Saving interval in milliseconds")
	dbPath := flag.String(FlagLocalDBPath, DefaultLocalDBPath, "Local SQLite database path")
	dsn := flag.String(FlagDatabaseDSN, "", "Remote PostgreSQL DSN (optional)")
	logLevel := flag.String(FlagLogLevel, DefaultLogLevel, "Log level")
	statusAddr := flag.String(FlagStatusAddress, "", "Status endpoint address host:port (empty disables)")
	grace := flag.Int(FlagShutdownGrace, DefaultShutdownGraceSec, "Shutdown grace period in seconds")
	auditFile := flag.String(FlagAuditFile, "", "Audit log file path (optional)")
	auditURL := flag.String(FlagAuditURL, "", "Audit webhook URL (optional)")
	configPath := flag.String(FlagConfig, "", "JSON config file path")
	flag.Parse()

	s := &Settings{
		ProcessingIntervalMs: DefaultProcessingIntervalMs,
		SavingIntervalMs:     DefaultSavingIntervalMs,
		LocalDBPath:          DefaultLocalDBPath,
		LogLevel:             DefaultLogLevel,
		ShutdownGraceSec:     DefaultShutdownGraceSec,
	}

	jsonPath := EnvString(EnvConfig)
	if jsonPath == "" {
		jsonPath = *configPath
	}
	if jsonPath != "" {
		if err := s.applyJSON(jsonPath); err != nil {
			return nil, err
		}
	}

	// Флаги перекрывают JSON, только если заданы явно.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case FlagProcessingInterval:
			s.ProcessingIntervalMs = *processing
		case FlagSavingInterval:
			s.SavingIntervalMs = *saving
		case FlagLocalDBPath:
			s.LocalDBPath = *dbPath
		case FlagDatabaseDSN:
			s.DatabaseDSN = *dsn
		case FlagLogLevel:
			s.LogLevel = *logLevel
		case FlagStatusAddress:
			s.StatusAddress = *statusAddr
		case FlagShutdownGrace:
			s.ShutdownGraceSec = *grace
		case FlagAuditFile:
			s.AuditFile = *auditFile
		case FlagAuditURL:
			s.AuditURL = *auditURL
		}
	})

	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyJSON накладывает значения из JSON-файла.
func (s *Settings) applyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if jc.ProcessingIntervalMs != nil {
		s.ProcessingIntervalMs = *jc.ProcessingIntervalMs
	}
	if jc.SavingIntervalMs != nil {
		s.SavingIntervalMs = *jc.SavingIntervalMs
	}
	if jc.LocalDBPath != "" {
		s.LocalDBPath = jc.LocalDBPath
	}
	if jc.DatabaseDSN != "" {
		s.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.LogLevel != "" {
		s.LogLevel = jc.LogLevel
	}
	if jc.StatusAddress != "" {
		s.StatusAddress = jc.StatusAddress
	}
	if jc.AuditFile != "" {
		s.AuditFile = jc.AuditFile
	}
	if jc.AuditURL != "" {
		s.AuditURL = jc.AuditURL
	}
	if jc.ShutdownGraceSec != nil {
		s.ShutdownGraceSec = *jc.ShutdownGraceSec
	}
	if len(jc.Monitors) > 0 {
		s.Monitors = jc.Monitors
	}
	return nil
}

// applyEnv накладывает переменные окружения поверх остальных источников.
func (s *Settings) applyEnv() error {
	if val, err := EnvInt(EnvProcessingInterval); err != nil {
		return err
	} else if val != 0 {
		s.ProcessingIntervalMs = val
	}
	if val, err := EnvInt(EnvSavingInterval); err != nil {
		return err
	} else if val != 0 {
		s.SavingIntervalMs = val
	}
	if val := EnvString(EnvLocalDBPath); val != "" {
		s.LocalDBPath = val
	}
	if val := EnvString(EnvDatabaseDSN); val != "" {
		s.DatabaseDSN = val
	}
	if val := EnvString(EnvLogLevel); val != "" {
		s.LogLevel = val
	}
	if val := EnvString(EnvStatusAddress); val != "" {
		s.StatusAddress = val
	}
	if val := EnvString(EnvAuditFile); val != "" {
		s.AuditFile = val
	}
	if val := EnvString(EnvAuditURL); val != "" {
		s.AuditURL = val
	}
	return nil
}

// validate отклоняет заведомо некорректную конфигурацию.
func (s *Settings) validate() error {
	if s.ProcessingIntervalMs <= 0 {
		return fmt.Errorf("processing interval must be positive, got %d", s.ProcessingIntervalMs)
	}
	if s.SavingIntervalMs <= 0 {
		return fmt.Errorf("saving interval must be positive, got %d", s.SavingIntervalMs)
	}
	if s.ShutdownGraceSec <= 0 {
		return fmt.Errorf("shutdown grace period must be positive, got %d", s.ShutdownGraceSec)
	}
	if s.LocalDBPath == "" {
		return fmt.Errorf("local database path must not be empty")
	}
	return nil
}
