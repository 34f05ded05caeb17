package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"safarbot/internal/domain"
)

// PledgeRepositoryPG implements domain.PledgeRepository using
// PostgreSQL. Every mutation runs in one transaction so the pledge row
// and its requester's aggregates never diverge mid-flight.
type PledgeRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPledgeRepository creates a new pledge repo.
func NewPledgeRepository(pool *pgxpool.Pool) *PledgeRepositoryPG {
	return &PledgeRepositoryPG{pool: pool}
}

const pledgeColumns = `id, requester_id, backer_id, backer_handle, amount, status, created_at`

func scanPledge(row pgx.Row, p *domain.Pledge) error {
	return row.Scan(&p.ID, &p.RequesterID, &p.BackerID, &p.BackerHandle, &p.Amount, &p.Status, &p.CreatedAt)
}

// Create inserts a pending pledge and bumps the requester's pending
// amount in the same transaction.
func (s *PledgeRepositoryPG) Create(ctx context.Context, requesterID, backerID int64, backerHandle string, amount decimal.Decimal) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx, `
INSERT INTO pledges (requester_id, backer_id, backer_handle, amount, status)
VALUES ($1, $2, $3, $4, 'pending')
RETURNING id;
`, requesterID, backerID, backerHandle, amount).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert pledge: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE requesters SET pending_amount = pending_amount + $1 WHERE id = $2;
`, amount, requesterID); err != nil {
		return 0, fmt.Errorf("raise pending amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Confirm moves a pledge from pending to funded with a conditional
// single-statement update. When a concurrent actor already resolved the
// pledge the update matches no row and ErrNotPending comes back; the
// loser has no effect at all.
func (s *PledgeRepositoryPG) Confirm(ctx context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		requesterID int64
		amount      decimal.Decimal
	)
	err = tx.QueryRow(ctx, `
UPDATE pledges SET status = 'funded'
WHERE id = $1 AND status = 'pending'
RETURNING requester_id, amount;
`, pledgeID).Scan(&requesterID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("confirm pledge: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE requesters
SET pending_amount = GREATEST(pending_amount - $1, 0),
    funded_amount  = funded_amount + $1
WHERE id = $2;
`, amount, requesterID); err != nil {
		return 0, decimal.Zero, fmt.Errorf("move pending to funded: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return requesterID, amount, nil
}

// Cancel is the symmetric conditional transition to cancelled; only the
// pending amount comes down.
func (s *PledgeRepositoryPG) Cancel(ctx context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		requesterID int64
		amount      decimal.Decimal
	)
	err = tx.QueryRow(ctx, `
UPDATE pledges SET status = 'cancelled'
WHERE id = $1 AND status = 'pending'
RETURNING requester_id, amount;
`, pledgeID).Scan(&requesterID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("cancel pledge: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE requesters SET pending_amount = GREATEST(pending_amount - $1, 0) WHERE id = $2;
`, amount, requesterID); err != nil {
		return 0, decimal.Zero, fmt.Errorf("lower pending amount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return requesterID, amount, nil
}

// Adjust rewrites a pending pledge's amount. Unlike Confirm/Cancel it
// must read the prior amount to compute the delta, so it takes a row
// lock for its short critical section instead of a conditional update.
func (s *PledgeRepositoryPG) Adjust(ctx context.Context, pledgeID int64, newAmount decimal.Decimal) (int64, decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		requesterID int64
		oldAmount   decimal.Decimal
	)
	err = tx.QueryRow(ctx, `
SELECT requester_id, amount FROM pledges
WHERE id = $1 AND status = 'pending'
FOR UPDATE;
`, pledgeID).Scan(&requesterID, &oldAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("lock pledge: %w", err)
	}

	diff := newAmount.Sub(oldAmount)

	if _, err := tx.Exec(ctx, `
UPDATE pledges SET amount = $1 WHERE id = $2;
`, newAmount, pledgeID); err != nil {
		return 0, decimal.Zero, fmt.Errorf("rewrite amount: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE requesters SET pending_amount = GREATEST(pending_amount + $1, 0) WHERE id = $2;
`, diff, requesterID); err != nil {
		return 0, decimal.Zero, fmt.Errorf("apply pending delta: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return requesterID, oldAmount, nil
}

func (s *PledgeRepositoryPG) GetByID(ctx context.Context, pledgeID int64) (*domain.Pledge, error) {
	var p domain.Pledge
	err := scanPledge(s.pool.QueryRow(ctx, `
SELECT `+pledgeColumns+`
FROM pledges
WHERE id = $1;
`, pledgeID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pledge: %w", err)
	}
	return &p, nil
}

func (s *PledgeRepositoryPG) ListByBacker(ctx context.Context, backerID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.list(ctx, `backer_id`, backerID, status)
}

func (s *PledgeRepositoryPG) ListByRequester(ctx context.Context, requesterID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.list(ctx, `requester_id`, requesterID, status)
}

func (s *PledgeRepositoryPG) list(ctx context.Context, column string, id int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		rows, err = s.pool.Query(ctx, `
SELECT `+pledgeColumns+`
FROM pledges
WHERE `+column+` = $1
ORDER BY created_at DESC;
`, id)
	} else {
		rows, err = s.pool.Query(ctx, `
SELECT `+pledgeColumns+`
FROM pledges
WHERE `+column+` = $1 AND status = $2
ORDER BY created_at DESC;
`, id, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list pledges: %w", err)
	}
	defer rows.Close()

	var items []domain.Pledge
	for rows.Next() {
		var p domain.Pledge
		if err := scanPledge(rows, &p); err != nil {
			return nil, fmt.Errorf("scan pledge: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PledgeRepositoryPG) CountPendingByBacker(ctx context.Context, backerID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM pledges WHERE backer_id = $1 AND status = 'pending';
`, backerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending pledges: %w", err)
	}
	return n, nil
}

var _ domain.PledgeRepository = (*PledgeRepositoryPG)(nil)
