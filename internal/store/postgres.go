package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an alert or user does not exist.
var ErrNotFound = errors.New("store: not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Alerts ---

// ConditionType identifies one of the six supported alert conditions.
type ConditionType string

const (
	PriceAbove         ConditionType = "price_above"
	PriceBelow         ConditionType = "price_below"
	RSIOversold        ConditionType = "rsi_oversold"
	RSIOverbought      ConditionType = "rsi_overbought"
	VolumeSpike        ConditionType = "volume_spike"
	MovingAverageCross ConditionType = "moving_average_cross"
)

// ConditionTypes lists every supported condition type.
var ConditionTypes = []ConditionType{
	PriceAbove, PriceBelow, RSIOversold, RSIOverbought, VolumeSpike, MovingAverageCross,
}

// Valid reports whether t is a known condition type.
func (t ConditionType) Valid() bool {
	for _, k := range ConditionTypes {
		if t == k {
			return true
		}
	}
	return false
}

// NeedsValue reports whether the condition type requires a numeric threshold.
func (t ConditionType) NeedsValue() bool {
	return t == PriceAbove || t == PriceBelow
}

// Condition is the rule half of an alert. Value is only meaningful for
// price_above/price_below; Timeframe is informational metadata the dashboard
// stores for technical conditions.
type Condition struct {
	Type      ConditionType `json:"type"`
	Value     *float64      `json:"value,omitempty"`
	Timeframe string        `json:"timeframe,omitempty"`
}

// Alert pairs a user-owned symbol with a condition to watch. AlertKind
// (buy/sell/price_target/technical) is display metadata and never consulted
// by the evaluator.
type Alert struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Symbol      string     `json:"symbol"`
	Company     string     `json:"company"`
	AlertKind   string     `json:"alert_kind"`
	Condition   Condition  `json:"condition"`
	Active      bool       `json:"active"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

const alertColumns = `id, user_id, symbol, company, alert_kind,
	condition_type, condition_value, condition_timeframe,
	active, triggered_at, created_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.UserID, &a.Symbol, &a.Company, &a.AlertKind,
		&a.Condition.Type, &a.Condition.Value, &a.Condition.Timeframe,
		&a.Active, &a.TriggeredAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAlert inserts a new active alert. The symbol is stored canonically
// upper-cased and the company name trimmed.
func (s *Store) CreateAlert(ctx context.Context, a *Alert) (*Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Condition.Timeframe == "" {
		a.Condition.Timeframe = "1D"
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO alerts (id, user_id, symbol, company, alert_kind,
			condition_type, condition_value, condition_timeframe, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING `+alertColumns,
		a.ID, a.UserID, strings.ToUpper(strings.TrimSpace(a.Symbol)),
		strings.TrimSpace(a.Company), a.AlertKind,
		a.Condition.Type, a.Condition.Value, a.Condition.Timeframe)
	return scanAlert(row)
}

// ListUserAlerts returns a user's alerts, newest first.
func (s *Store) ListUserAlerts(ctx context.Context, userID string) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListActiveAlerts returns every active alert across all users. This is the
// input of one monitoring cycle.
func (s *Store) ListActiveAlerts(ctx context.Context) ([]Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE active = true
		ORDER BY symbol, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func collectAlerts(rows pgx.Rows) ([]Alert, error) {
	var alerts []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// ToggleAlert flips an alert's active flag and returns the updated record.
func (s *Store) ToggleAlert(ctx context.Context, id, userID string) (*Alert, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE alerts SET active = NOT active
		WHERE id = $1 AND user_id = $2
		RETURNING `+alertColumns, id, userID)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// DeleteAlert removes an alert owned by the given user.
func (s *Store) DeleteAlert(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkTriggered advances an alert's cooldown timestamp. The timestamp only
// moves forward, so repeating the write after a retried cycle is safe.
func (s *Store) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE alerts
		SET triggered_at = GREATEST(COALESCE(triggered_at, 'epoch'::timestamptz), $2)
		WHERE id = $1`, id, at)
	return err
}

// CountActiveAlerts returns the number of active alerts.
func (s *Store) CountActiveAlerts(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE active = true`).Scan(&count)
	return count, err
}

// --- Users ---

// GetUserEmail resolves a user id to the account email. The users table is
// owned by the dashboard's auth layer; the monitor only reads it to address
// notifications.
func (s *Store) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}
