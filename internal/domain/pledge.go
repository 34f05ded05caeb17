package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PledgeStatus is the lifecycle state of a pledge.
type PledgeStatus string

const (
	PledgePending   PledgeStatus = "pending"
	PledgeFunded    PledgeStatus = "funded"
	PledgeCancelled PledgeStatus = "cancelled"
)

// Pledge is one backer's commitment toward one requester. It is created
// pending and moves exactly once to funded or cancelled; only the
// amount may change while still pending. A pledge never changes its
// requester.
type Pledge struct {
	ID           int64
	RequesterID  int64
	BackerID     int64
	BackerHandle string
	Amount       decimal.Decimal
	Status       PledgeStatus
	CreatedAt    time.Time
}
