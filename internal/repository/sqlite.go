package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	models "github.com/RoGogDBD/activity-tracker/internal/model"
)

// SQLite реализует Store поверх локального файла SQLite. Это первичное
// хранилище: ошибка открытия или миграции фатальна для запуска.
type SQLite struct {
	db *sql.DB
}

// NewSQLite открывает (при необходимости создавая) локальную базу и
// применяет миграции.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create local db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to configure local db: %w", err)
		}
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Name возвращает имя хранилища.
func (s *SQLite) Name() string { return "sqlite" }

// Begin открывает транзакцию сохранения.
func (s *SQLite) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sqlite transaction: %w", err)
	}
	return &sqliteTx{tx: tx}, nil
}

// LoadSummary читает строку сводки (id=1).
func (s *SQLite) LoadSummary(ctx context.Context) (models.SummaryRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT total_keypresses, total_mouse_clicks, total_scroll_steps,
		       total_mouse_travel_in, total_mouse_travel_mi, last_updated
		FROM metrics_summary
		WHERE id = 1`)

	var sr models.SummaryRow
	var lastUpdated sql.NullString
	err := row.Scan(
		&sr.TotalKeypresses,
		&sr.TotalMouseClicks,
		&sr.TotalScrollSteps,
		&sr.TotalMouseTravelIn,
		&sr.TotalMouseTravelMi,
		&lastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SummaryRow{}, ErrNoSummary
	}
	if err != nil {
		return models.SummaryRow{}, fmt.Errorf("failed to load metrics summary: %w", err)
	}
	if lastUpdated.Valid {
		sr.LastUpdated = parseSQLiteTime(lastUpdated.String)
	}
	return sr, nil
}

// parseSQLiteTime разбирает отметку времени SQLite. CURRENT_TIMESTAMP
// хранится как текст, формат зависит от того, кто записывал.
func parseSQLiteTime(raw string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// SumHistory агрегирует всю таблицу metrics.
func (s *SQLite) SumHistory(ctx context.Context) (models.Delta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(keypresses), 0),
		       COALESCE(SUM(mouse_clicks), 0),
		       COALESCE(SUM(scroll_steps), 0),
		       COALESCE(SUM(mouse_distance_in), 0)
		FROM metrics`)

	var keys, clicks, scrolls int64
	var distance float64
	if err := row.Scan(&keys, &clicks, &scrolls, &distance); err != nil {
		return models.Delta{}, fmt.Errorf("failed to aggregate metrics history: %w", err)
	}
	return models.Delta{
		Keypresses:      uint64(keys),
		MouseClicks:     uint64(clicks),
		ScrollSteps:     uint64(scrolls),
		MouseDistanceIn: distance,
	}, nil
}

// Ping проверяет доступность базы.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает базу.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) InsertMetricsRow(ctx context.Context, d models.Delta) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO metrics (keypresses, mouse_clicks, scroll_steps, mouse_distance_in, mouse_distance_mi)
		VALUES (?, ?, ?, ?, ?)`,
		int64(d.Keypresses), int64(d.MouseClicks), int64(d.ScrollSteps), d.MouseDistanceIn, d.Miles())
	if err != nil {
		return fmt.Errorf("failed to insert metrics row: %w", err)
	}
	return nil
}

func (t *sqliteTx) ApplySummaryDelta(ctx context.Context, d models.Delta) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE metrics_summary
		SET total_keypresses = total_keypresses + ?,
		    total_mouse_clicks = total_mouse_clicks + ?,
		    total_scroll_steps = total_scroll_steps + ?,
		    total_mouse_travel_in = total_mouse_travel_in + ?,
		    total_mouse_travel_mi = total_mouse_travel_mi + ?,
		    last_updated = CURRENT_TIMESTAMP
		WHERE id = 1`,
		int64(d.Keypresses), int64(d.MouseClicks), int64(d.ScrollSteps), d.MouseDistanceIn, d.Miles())
	if err != nil {
		return fmt.Errorf("failed to update metrics summary: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check summary update: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("metrics summary update affected %d rows, expected 1", affected)
	}
	return nil
}

func (t *sqliteTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}
