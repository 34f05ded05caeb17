package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safarbot/internal/domain"
)

// RequesterRepositoryPG implements domain.RequesterRepository using PostgreSQL.
type RequesterRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRequesterRepository creates a new requester repo.
func NewRequesterRepository(pool *pgxpool.Pool) *RequesterRepositoryPG {
	return &RequesterRepositoryPG{pool: pool}
}

const requesterColumns = `id, party_id, handle, origin, destination, headcount, currency,
       amount_needed, pending_amount, funded_amount, message, status, created_at`

func scanRequester(row pgx.Row, r *domain.Requester) error {
	return row.Scan(
		&r.ID, &r.PartyID, &r.Handle, &r.Origin, &r.Destination, &r.Headcount, &r.Currency,
		&r.AmountNeeded, &r.PendingAmount, &r.FundedAmount, &r.Message, &r.Status, &r.CreatedAt,
	)
}

// Create inserts a new requester record. The party_id unique constraint
// enforces one active requester per party.
func (s *RequesterRepositoryPG) Create(ctx context.Context, r *domain.Requester) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO requesters (party_id, handle, origin, destination, headcount, currency, amount_needed, message, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id;
`, r.PartyID, r.Handle, r.Origin, r.Destination, r.Headcount, r.Currency, r.AmountNeeded, r.Message, domain.StatusAvailable).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert requester: %w", err)
	}
	return id, nil
}

func (s *RequesterRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Requester, error) {
	var r domain.Requester
	err := scanRequester(s.pool.QueryRow(ctx, `
SELECT `+requesterColumns+`
FROM requesters
WHERE id = $1;
`, id), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	return &r, nil
}

func (s *RequesterRepositoryPG) GetByPartyID(ctx context.Context, partyID int64) (*domain.Requester, error) {
	var r domain.Requester
	err := scanRequester(s.pool.QueryRow(ctx, `
SELECT `+requesterColumns+`
FROM requesters
WHERE party_id = $1;
`, partyID), &r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get requester by party: %w", err)
	}
	return &r, nil
}

// Update overwrites the descriptive fields in full; the save-edit flow
// always writes the whole form, never a diff.
func (s *RequesterRepositoryPG) Update(ctx context.Context, r *domain.Requester) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE requesters
SET origin = $1, destination = $2, headcount = $3, currency = $4, amount_needed = $5, message = $6
WHERE id = $7;
`, r.Origin, r.Destination, r.Headcount, r.Currency, r.AmountNeeded, r.Message, r.ID)
	if err != nil {
		return fmt.Errorf("update requester: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RequesterRepositoryPG) UpdateHandle(ctx context.Context, partyID int64, handle string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE requesters SET handle = $1 WHERE party_id = $2;
`, handle, partyID)
	if err != nil {
		return fmt.Errorf("update handle: %w", err)
	}
	return nil
}

// Delete removes the requester row; pledge rows go with it via the
// ON DELETE CASCADE on pledges.requester_id.
func (s *RequesterRepositoryPG) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
DELETE FROM requesters WHERE id = $1;
`, id)
	if err != nil {
		return fmt.Errorf("delete requester: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpen returns one page of requesters still needing funds, cheapest
// remaining-per-head first, plus the total count for pagination. There
// is no snapshot guarantee across pages; concurrent pledges may shift
// rows between them.
func (s *RequesterRepositoryPG) ListOpen(ctx context.Context, dest domain.Destination, limit, offset int) ([]domain.Requester, int, error) {
	const open = `(amount_needed - funded_amount - pending_amount) > 0`

	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if dest == "" {
		if err = s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM requesters WHERE `+open+`;
`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count open requesters: %w", err)
		}
		rows, err = s.pool.Query(ctx, `
SELECT `+requesterColumns+`
FROM requesters
WHERE `+open+`
ORDER BY (amount_needed - funded_amount - pending_amount) / GREATEST(headcount, 1) ASC
LIMIT $1 OFFSET $2;
`, limit, offset)
	} else {
		if err = s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM requesters WHERE `+open+` AND destination = $1;
`, dest).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count open requesters: %w", err)
		}
		rows, err = s.pool.Query(ctx, `
SELECT `+requesterColumns+`
FROM requesters
WHERE `+open+` AND destination = $3
ORDER BY (amount_needed - funded_amount - pending_amount) / GREATEST(headcount, 1) ASC
LIMIT $1 OFFSET $2;
`, limit, offset, dest)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list open requesters: %w", err)
	}
	defer rows.Close()

	var items []domain.Requester
	for rows.Next() {
		var r domain.Requester
		if err := scanRequester(rows, &r); err != nil {
			return nil, 0, fmt.Errorf("scan requester: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ReconcileAggregates re-derives both aggregates from pledge rows in a
// single statement and rewrites only the rows that drifted.
func (s *RequesterRepositoryPG) ReconcileAggregates(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
WITH sums AS (
    SELECT r.id,
           COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'pending'), 0) AS pending,
           COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'funded'), 0)  AS funded
    FROM requesters r
    LEFT JOIN pledges p ON p.requester_id = r.id
    GROUP BY r.id
)
UPDATE requesters r
SET pending_amount = s.pending,
    funded_amount  = s.funded
FROM sums s
WHERE s.id = r.id
  AND (r.pending_amount <> s.pending OR r.funded_amount <> s.funded);
`)
	if err != nil {
		return 0, fmt.Errorf("reconcile aggregates: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var (
	_ domain.RequesterRepository = (*RequesterRepositoryPG)(nil)
	_ domain.AggregateReconciler = (*RequesterRepositoryPG)(nil)
)
