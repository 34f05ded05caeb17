package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// RequesterRepository persists requester records.
type RequesterRepository interface {
	Create(ctx context.Context, r *Requester) (int64, error)
	GetByID(ctx context.Context, id int64) (*Requester, error)
	GetByPartyID(ctx context.Context, partyID int64) (*Requester, error)
	// Update overwrites the descriptive fields (origin, destination,
	// headcount, currency, amount needed, message) in full. Aggregates
	// are never touched here.
	Update(ctx context.Context, r *Requester) error
	UpdateHandle(ctx context.Context, partyID int64, handle string) error
	Delete(ctx context.Context, id int64) error
	// ListOpen returns one page of requesters with remaining > 0,
	// ordered by remaining per head ascending, plus the total count.
	// An empty destination means no filter.
	ListOpen(ctx context.Context, dest Destination, limit, offset int) ([]Requester, int, error)
}

// PledgeRepository persists pledges together with the aggregate updates
// that accompany each lifecycle change. Every mutating method runs as
// one atomic unit: the pledge row and its requester's aggregates change
// together or not at all.
//
// Confirm and Cancel are conditional single-statement transitions: they
// match the row only while it is still pending, so a concurrent loser
// observes ErrNotPending instead of clobbering the winner.
type PledgeRepository interface {
	Create(ctx context.Context, requesterID, backerID int64, backerHandle string, amount decimal.Decimal) (int64, error)
	Confirm(ctx context.Context, pledgeID int64) (requesterID int64, amount decimal.Decimal, err error)
	Cancel(ctx context.Context, pledgeID int64) (requesterID int64, amount decimal.Decimal, err error)
	// Adjust rewrites a pending pledge's amount under a row lock and
	// applies the delta to the requester's pending amount.
	Adjust(ctx context.Context, pledgeID int64, newAmount decimal.Decimal) (requesterID int64, oldAmount decimal.Decimal, err error)
	GetByID(ctx context.Context, pledgeID int64) (*Pledge, error)
	// ListByBacker and ListByRequester filter by status when one is
	// given; an empty status returns every pledge, newest first.
	ListByBacker(ctx context.Context, backerID int64, status PledgeStatus) ([]Pledge, error)
	ListByRequester(ctx context.Context, requesterID int64, status PledgeStatus) ([]Pledge, error)
	CountPendingByBacker(ctx context.Context, backerID int64) (int, error)
}

// AggregateReconciler recomputes requester aggregates from pledge rows
// and repairs any that drifted, returning how many were fixed.
type AggregateReconciler interface {
	ReconcileAggregates(ctx context.Context) (int, error)
}
