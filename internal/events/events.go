package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind labels a pledge lifecycle event.
type Kind string

const (
	PledgeCreated   Kind = "pledge_created"
	PledgeConfirmed Kind = "pledge_confirmed"
	PledgeCancelled Kind = "pledge_cancelled"
	PledgeAdjusted  Kind = "pledge_adjusted"
)

// PledgeEvent is the envelope published after a committed ledger
// mutation. It is a side channel for downstream consumers; nothing in
// the ledger depends on delivery.
type PledgeEvent struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	PledgeID    int64           `json:"pledge_id"`
	RequesterID int64           `json:"requester_id"`
	BackerID    int64           `json:"backer_id"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewPledgeEvent builds an envelope with a fresh id and timestamp.
func NewPledgeEvent(kind Kind, pledgeID, requesterID, backerID int64, amount decimal.Decimal) PledgeEvent {
	return PledgeEvent{
		ID:          uuid.New().String(),
		Kind:        kind,
		PledgeID:    pledgeID,
		RequesterID: requesterID,
		BackerID:    backerID,
		Amount:      amount,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers events to an external sink. Delivery is
// best-effort: callers log failures and move on, never roll back.
type Publisher interface {
	Publish(ctx context.Context, event PledgeEvent) error
}

// Noop discards events; used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, PledgeEvent) error { return nil }

var _ Publisher = Noop{}
