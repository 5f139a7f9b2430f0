package store

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    symbol TEXT NOT NULL,
    company TEXT NOT NULL,
    alert_kind TEXT NOT NULL DEFAULT 'price_target',
    condition_type TEXT NOT NULL,
    condition_value DOUBLE PRECISION,
    condition_timeframe TEXT NOT NULL DEFAULT '1D',
    active BOOLEAN NOT NULL DEFAULT true,
    triggered_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alerts_user_symbol ON alerts (user_id, symbol);
CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (active);
CREATE INDEX IF NOT EXISTS idx_alerts_condition_type ON alerts (condition_type);
`

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
