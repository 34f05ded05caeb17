package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"safarbot/internal/domain"
	"safarbot/internal/events"
)

// Service governs the pledge lifecycle. Each operation delegates to a
// single repository transaction; the service layers validation, the
// guarded deletion sequence, and best-effort event publishing on top.
// Operations never retry on failure — the caller decides what to
// resurface.
type Service struct {
	requesters domain.RequesterRepository
	pledges    domain.PledgeRepository
	publisher  events.Publisher
	log        zerolog.Logger
}

// NewService wires a ledger over the given repositories.
func NewService(requesters domain.RequesterRepository, pledges domain.PledgeRepository, publisher events.Publisher, log zerolog.Logger) *Service {
	return &Service{
		requesters: requesters,
		pledges:    pledges,
		publisher:  publisher,
		log:        log,
	}
}

// CreatePledge records a new pending pledge and raises the requester's
// pending amount atomically. The ledger accepts any positive amount:
// exceeding the remaining need, or pledging to one's own request, are
// guarded (softly) by the caller.
func (s *Service) CreatePledge(ctx context.Context, requesterID, backerID int64, backerHandle string, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, domain.ErrInvalidAmount
	}
	id, err := s.pledges.Create(ctx, requesterID, backerID, backerHandle, amount)
	if err != nil {
		return 0, fmt.Errorf("create pledge: %w", err)
	}
	s.publish(ctx, events.NewPledgeEvent(events.PledgeCreated, id, requesterID, backerID, amount))
	return id, nil
}

// Confirm moves a pending pledge to funded. When a concurrent actor got
// there first the repository reports ErrNotPending and nothing changed.
func (s *Service) Confirm(ctx context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	requesterID, amount, err := s.pledges.Confirm(ctx, pledgeID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	s.publishFor(ctx, events.PledgeConfirmed, pledgeID, requesterID, amount)
	return requesterID, amount, nil
}

// Cancel moves a pending pledge to cancelled, releasing its share of
// the requester's pending amount.
func (s *Service) Cancel(ctx context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	requesterID, amount, err := s.pledges.Cancel(ctx, pledgeID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	s.publishFor(ctx, events.PledgeCancelled, pledgeID, requesterID, amount)
	return requesterID, amount, nil
}

// Adjust rewrites a still-pending pledge's amount and shifts the
// requester's pending amount by the difference.
func (s *Service) Adjust(ctx context.Context, pledgeID int64, newAmount decimal.Decimal) (int64, decimal.Decimal, error) {
	if !newAmount.IsPositive() {
		return 0, decimal.Zero, domain.ErrInvalidAmount
	}
	requesterID, oldAmount, err := s.pledges.Adjust(ctx, pledgeID, newAmount)
	if err != nil {
		return 0, decimal.Zero, err
	}
	s.publishFor(ctx, events.PledgeAdjusted, pledgeID, requesterID, newAmount)
	return requesterID, oldAmount, nil
}

// DeleteRequester runs the guarded deletion sequence: refused outright
// while any funded pledge exists; otherwise every pending pledge is
// cancelled through the regular cancel path, then the record goes away
// (cascading its terminal pledges). This is compensating, not one
// transaction — a crash mid-way leaves a state from which re-invoking
// is safe, since cancelling already-cancelled pledges is a no-op and
// the funded check applies again.
//
// The pledges cancelled along the way come back so the caller can
// notify each affected backer.
func (s *Service) DeleteRequester(ctx context.Context, requesterID int64) ([]domain.Pledge, error) {
	funded, err := s.pledges.ListByRequester(ctx, requesterID, domain.PledgeFunded)
	if err != nil {
		return nil, fmt.Errorf("list funded pledges: %w", err)
	}
	if len(funded) > 0 {
		return nil, domain.ErrHasFundedPledges
	}

	pending, err := s.pledges.ListByRequester(ctx, requesterID, domain.PledgePending)
	if err != nil {
		return nil, fmt.Errorf("list pending pledges: %w", err)
	}

	cancelled := make([]domain.Pledge, 0, len(pending))
	for _, p := range pending {
		if _, _, err := s.Cancel(ctx, p.ID); err != nil {
			if errors.Is(err, domain.ErrNotPending) {
				// resolved concurrently; nothing to release
				continue
			}
			return cancelled, fmt.Errorf("cancel pledge %d: %w", p.ID, err)
		}
		cancelled = append(cancelled, p)
	}

	if err := s.requesters.Delete(ctx, requesterID); err != nil {
		return cancelled, fmt.Errorf("delete requester: %w", err)
	}
	return cancelled, nil
}

// ── Reads ──

func (s *Service) GetPledge(ctx context.Context, pledgeID int64) (*domain.Pledge, error) {
	return s.pledges.GetByID(ctx, pledgeID)
}

func (s *Service) ListByBacker(ctx context.Context, backerID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.pledges.ListByBacker(ctx, backerID, status)
}

func (s *Service) ListByRequester(ctx context.Context, requesterID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.pledges.ListByRequester(ctx, requesterID, status)
}

// CountPendingByBacker backs the advisory pending-pledge cap. The check
// is read-then-act and can be raced past; it is a UX guard, not an
// invariant.
func (s *Service) CountPendingByBacker(ctx context.Context, backerID int64) (int, error) {
	return s.pledges.CountPendingByBacker(ctx, backerID)
}

// publishFor looks the pledge back up to fill the backer id in the
// envelope. The lookup and publish are both best-effort.
func (s *Service) publishFor(ctx context.Context, kind events.Kind, pledgeID, requesterID int64, amount decimal.Decimal) {
	var backerID int64
	if p, err := s.pledges.GetByID(ctx, pledgeID); err == nil {
		backerID = p.BackerID
	}
	s.publish(ctx, events.NewPledgeEvent(kind, pledgeID, requesterID, backerID, amount))
}

func (s *Service) publish(ctx context.Context, ev events.PledgeEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("kind", string(ev.Kind)).Int64("pledge_id", ev.PledgeID).Msg("publish pledge event failed")
	}
}
