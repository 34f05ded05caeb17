package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are idempotent so startup can run them every time.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS requesters (
    id             BIGSERIAL PRIMARY KEY,
    party_id       BIGINT UNIQUE NOT NULL,
    handle         TEXT NOT NULL DEFAULT '',
    origin         TEXT NOT NULL DEFAULT '',
    destination    TEXT NOT NULL DEFAULT '',
    headcount      INTEGER NOT NULL DEFAULT 1,
    currency       TEXT NOT NULL DEFAULT '',
    amount_needed  NUMERIC(12,2) NOT NULL DEFAULT 0,
    pending_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
    funded_amount  NUMERIC(12,2) NOT NULL DEFAULT 0,
    message        TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'available',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS pledges (
    id            BIGSERIAL PRIMARY KEY,
    requester_id  BIGINT NOT NULL REFERENCES requesters(id) ON DELETE CASCADE,
    backer_id     BIGINT NOT NULL,
    backer_handle TEXT NOT NULL DEFAULT '',
    amount        NUMERIC(12,2) NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_requesters_status ON requesters(status)`,
	`CREATE INDEX IF NOT EXISTS idx_pledges_requester ON pledges(requester_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_pledges_backer ON pledges(backer_id, status)`,
}

// EnsureSchema creates the two tables and their indexes when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
