package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoGogDBD/activity-tracker/internal/config"
	models "github.com/RoGogDBD/activity-tracker/internal/model"
)

// Postgres реализует Store поверх удалённой базы PostgreSQL. Это
// вторичное хранилище: приложение работает и без него.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres подключается к удалённой базе с повторными попытками и
// применяет миграции. Повторы действуют только на этапе подключения,
// транзакции тиков никогда не повторяются.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	var pool *pgxpool.Pool
	err := config.RetryWithBackoff(ctx, func() error {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("failed to ping remote db: %w", err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := migratePostgres(dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Name возвращает имя хранилища.
func (p *Postgres) Name() string { return "postgres" }

// Begin открывает транзакцию сохранения.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin postgres transaction: %w", err)
	}
	return &postgresTx{tx: tx}, nil
}

// LoadSummary читает строку сводки (id=1).
func (p *Postgres) LoadSummary(ctx context.Context) (models.SummaryRow, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT total_keypresses, total_mouse_clicks, total_scroll_steps,
		       total_mouse_travel_in, total_mouse_travel_mi, last_updated
		FROM metrics_summary
		WHERE id = 1`)

	var sr models.SummaryRow
	err := row.Scan(
		&sr.TotalKeypresses,
		&sr.TotalMouseClicks,
		&sr.TotalScrollSteps,
		&sr.TotalMouseTravelIn,
		&sr.TotalMouseTravelMi,
		&sr.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SummaryRow{}, ErrNoSummary
	}
	if err != nil {
		return models.SummaryRow{}, fmt.Errorf("failed to load metrics summary: %w", err)
	}
	return sr, nil
}

// SumHistory агрегирует всю таблицу metrics.
func (p *Postgres) SumHistory(ctx context.Context) (models.Delta, error) {
	row := p.pool.QueryRow(ctx, `
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
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close закрывает пул соединений.
func (p *Postgres) Close() {
	p.pool.Close()
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) InsertMetricsRow(ctx context.Context, d models.Delta) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO metrics (keypresses, mouse_clicks, scroll_steps, mouse_distance_in, mouse_distance_mi)
		VALUES ($1, $2, $3, $4, $5)`,
		int64(d.Keypresses), int64(d.MouseClicks), int64(d.ScrollSteps), d.MouseDistanceIn, d.Miles())
	if err != nil {
		return fmt.Errorf("failed to insert metrics row: %w", err)
	}
	return nil
}

func (t *postgresTx) ApplySummaryDelta(ctx context.Context, d models.Delta) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE metrics_summary
		SET total_keypresses = total_keypresses + $1,
		    total_mouse_clicks = total_mouse_clicks + $2,
		    total_scroll_steps = total_scroll_steps + $3,
		    total_mouse_travel_in = total_mouse_travel_in + $4,
		    total_mouse_travel_mi = total_mouse_travel_mi + $5,
		    last_updated = CURRENT_TIMESTAMP
		WHERE id = 1`,
		int64(d.Keypresses), int64(d.MouseClicks), int64(d.ScrollSteps), d.MouseDistanceIn, d.Miles())
	if err != nil {
		return fmt.Errorf("failed to update metrics summary: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("metrics summary update affected %d rows, expected 1", tag.RowsAffected())
	}
	return nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
