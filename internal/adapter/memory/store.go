package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"safarbot/internal/domain"
)

// Store is an in-memory implementation of the requester and pledge
// repositories. One mutex guards everything, which makes each operation
// as atomic as the single-transaction Postgres equivalents — including
// the conditional pending-only transitions. Used by tests and local
// runs without a database.
type Store struct {
	mu sync.Mutex

	requesters map[int64]*domain.Requester
	pledges    map[int64]*domain.Pledge

	// insertion order, for storage-natural tie-breaking and newest-first lists
	requesterOrder []int64
	pledgeOrder    []int64

	nextRequesterID int64
	nextPledgeID    int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		requesters: make(map[int64]*domain.Requester),
		pledges:    make(map[int64]*domain.Pledge),
	}
}

// ── Requesters ──

func (s *Store) Create(_ context.Context, r *domain.Requester) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requesters {
		if existing.PartyID == r.PartyID {
			return 0, domain.ErrAlreadyRegistered
		}
	}

	s.nextRequesterID++
	stored := *r
	stored.ID = s.nextRequesterID
	stored.Status = domain.StatusAvailable
	stored.PendingAmount = decimal.Zero
	stored.FundedAmount = decimal.Zero
	stored.CreatedAt = time.Now()
	s.requesters[stored.ID] = &stored
	s.requesterOrder = append(s.requesterOrder, stored.ID)
	return stored.ID, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Requester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requesters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *Store) GetByPartyID(_ context.Context, partyID int64) (*domain.Requester, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.requesterOrder {
		if r, ok := s.requesters[id]; ok && r.PartyID == partyID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) Update(_ context.Context, r *domain.Requester) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requesters[r.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Origin = r.Origin
	stored.Destination = r.Destination
	stored.Headcount = r.Headcount
	stored.Currency = r.Currency
	stored.AmountNeeded = r.AmountNeeded
	stored.Message = r.Message
	return nil
}

func (s *Store) UpdateHandle(_ context.Context, partyID int64, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requesters {
		if r.PartyID == partyID {
			r.Handle = handle
		}
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requesters[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.requesters, id)
	s.requesterOrder = removeID(s.requesterOrder, id)

	// cascade
	var keep []int64
	for _, pid := range s.pledgeOrder {
		if p := s.pledges[pid]; p != nil && p.RequesterID == id {
			delete(s.pledges, pid)
			continue
		}
		keep = append(keep, pid)
	}
	s.pledgeOrder = keep
	return nil
}

func (s *Store) ListOpen(_ context.Context, dest domain.Destination, limit, offset int) ([]domain.Requester, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var open []domain.Requester
	for _, id := range s.requesterOrder {
		r := s.requesters[id]
		if r == nil || !r.Remaining().IsPositive() {
			continue
		}
		if dest != "" && r.Destination != dest {
			continue
		}
		open = append(open, *r)
	}
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].PerHead().Cmp(open[j].PerHead()) < 0
	})

	total := len(open)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]domain.Requester, end-offset)
	copy(page, open[offset:end])
	return page, total, nil
}

// ── Pledges ──

func (s *Store) CreatePledge(_ context.Context, requesterID, backerID int64, backerHandle string, amount decimal.Decimal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requesters[requesterID]
	if !ok {
		return 0, domain.ErrNotFound
	}

	s.nextPledgeID++
	p := &domain.Pledge{
		ID:           s.nextPledgeID,
		RequesterID:  requesterID,
		BackerID:     backerID,
		BackerHandle: backerHandle,
		Amount:       amount,
		Status:       domain.PledgePending,
		CreatedAt:    time.Now(),
	}
	s.pledges[p.ID] = p
	s.pledgeOrder = append(s.pledgeOrder, p.ID)
	r.PendingAmount = r.PendingAmount.Add(amount)
	return p.ID, nil
}

func (s *Store) Confirm(_ context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pledges[pledgeID]
	if !ok || p.Status != domain.PledgePending {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	p.Status = domain.PledgeFunded

	r := s.requesters[p.RequesterID]
	r.PendingAmount = floorZero(r.PendingAmount.Sub(p.Amount))
	r.FundedAmount = r.FundedAmount.Add(p.Amount)
	return p.RequesterID, p.Amount, nil
}

func (s *Store) Cancel(_ context.Context, pledgeID int64) (int64, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pledges[pledgeID]
	if !ok || p.Status != domain.PledgePending {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	p.Status = domain.PledgeCancelled

	r := s.requesters[p.RequesterID]
	r.PendingAmount = floorZero(r.PendingAmount.Sub(p.Amount))
	return p.RequesterID, p.Amount, nil
}

func (s *Store) Adjust(_ context.Context, pledgeID int64, newAmount decimal.Decimal) (int64, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pledges[pledgeID]
	if !ok || p.Status != domain.PledgePending {
		return 0, decimal.Zero, domain.ErrNotPending
	}
	oldAmount := p.Amount
	diff := newAmount.Sub(oldAmount)
	p.Amount = newAmount

	r := s.requesters[p.RequesterID]
	r.PendingAmount = floorZero(r.PendingAmount.Add(diff))
	return p.RequesterID, oldAmount, nil
}

func (s *Store) GetPledgeByID(_ context.Context, pledgeID int64) (*domain.Pledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pledges[pledgeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *Store) ListByBacker(_ context.Context, backerID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.listPledges(func(p *domain.Pledge) bool { return p.BackerID == backerID }, status), nil
}

func (s *Store) ListByRequester(_ context.Context, requesterID int64, status domain.PledgeStatus) ([]domain.Pledge, error) {
	return s.listPledges(func(p *domain.Pledge) bool { return p.RequesterID == requesterID }, status), nil
}

func (s *Store) listPledges(match func(*domain.Pledge) bool, status domain.PledgeStatus) []domain.Pledge {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.Pledge
	// newest first
	for i := len(s.pledgeOrder) - 1; i >= 0; i-- {
		p := s.pledges[s.pledgeOrder[i]]
		if p == nil || !match(p) {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		items = append(items, *p)
	}
	return items
}

func (s *Store) CountPendingByBacker(_ context.Context, backerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, p := range s.pledges {
		if p.BackerID == backerID && p.Status == domain.PledgePending {
			n++
		}
	}
	return n, nil
}

// ReconcileAggregates recomputes both aggregates from pledge rows and
// reports how many requesters had drifted.
func (s *Store) ReconcileAggregates(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixed := 0
	for _, r := range s.requesters {
		pending, funded := decimal.Zero, decimal.Zero
		for _, p := range s.pledges {
			if p.RequesterID != r.ID {
				continue
			}
			switch p.Status {
			case domain.PledgePending:
				pending = pending.Add(p.Amount)
			case domain.PledgeFunded:
				funded = funded.Add(p.Amount)
			}
		}
		if !r.PendingAmount.Equal(pending) || !r.FundedAmount.Equal(funded) {
			r.PendingAmount = pending
			r.FundedAmount = funded
			fixed++
		}
	}
	return fixed, nil
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

var (
	_ domain.RequesterRepository = (*requesterView)(nil)
	_ domain.PledgeRepository    = (*pledgeView)(nil)
	_ domain.AggregateReconciler = (*Store)(nil)
)

// Requesters exposes the store as a domain.RequesterRepository.
func (s *Store) Requesters() domain.RequesterRepository { return &requesterView{s} }

// Pledges exposes the store as a domain.PledgeRepository.
func (s *Store) Pledges() domain.PledgeRepository { return &pledgeView{s} }

// The two views exist because the store's pledge methods would
// otherwise collide with the requester Create/GetByID names.

type requesterView struct{ *Store }

type pledgeView struct{ *Store }

func (v *pledgeView) Create(ctx context.Context, requesterID, backerID int64, backerHandle string, amount decimal.Decimal) (int64, error) {
	return v.CreatePledge(ctx, requesterID, backerID, backerHandle, amount)
}

func (v *pledgeView) GetByID(ctx context.Context, pledgeID int64) (*domain.Pledge, error) {
	return v.GetPledgeByID(ctx, pledgeID)
}
