package intake

import (
	"context"
	"errors"
	"fmt"

	"safarbot/internal/domain"
)

// Service drives the intake wizard against persistent storage: starting
// and resuming sessions, and turning a completed form into a requester
// row. An incomplete form never reaches storage.
type Service struct {
	sessions   *Sessions
	requesters domain.RequesterRepository
}

// NewService creates the wizard service with its own session store.
func NewService(requesters domain.RequesterRepository) *Service {
	return &Service{
		sessions:   NewSessions(),
		requesters: requesters,
	}
}

// Start begins a fresh wizard for a party. Refused while an active
// requester already exists for that party — one active record each;
// the caller redirects to status/edit instead.
func (s *Service) Start(ctx context.Context, partyID int64) (*Form, error) {
	_, err := s.requesters.GetByPartyID(ctx, partyID)
	if err == nil {
		return nil, domain.ErrAlreadyRegistered
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing requester: %w", err)
	}

	f := &Form{Step: StepDestination}
	s.sessions.Put(partyID, f)
	return f, nil
}

// BeginEdit loads the party's existing record into a session and
// resumes at the confirmation screen, from where single fields can be
// corrected and the whole record saved back.
func (s *Service) BeginEdit(ctx context.Context, partyID int64) (*Form, error) {
	r, err := s.requesters.GetByPartyID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	f := &Form{
		Step:        StepConfirm,
		EditingID:   r.ID,
		Destination: r.Destination,
		Origin:      r.Origin,
		Headcount:   r.Headcount,
		Currency:    r.Currency,
		Amount:      r.AmountNeeded,
		Message:     r.Message,
	}
	s.sessions.Put(partyID, f)
	return f, nil
}

// Form returns the party's in-flight wizard state, if any.
func (s *Service) Form(partyID int64) (*Form, bool) {
	return s.sessions.Get(partyID)
}

// Reset drops the party's wizard state.
func (s *Service) Reset(partyID int64) {
	s.sessions.Clear(partyID)
}

// Submit creates a new requester from a completed fresh wizard. Only a
// non-editing session may submit; anything incomplete fails without
// touching storage and the user is directed to restart.
func (s *Service) Submit(ctx context.Context, partyID int64, handle string) (int64, error) {
	f, ok := s.sessions.Get(partyID)
	if !ok || f.EditingID != 0 || !f.Complete() {
		return 0, domain.ErrIncompleteIntake
	}

	id, err := s.requesters.Create(ctx, &domain.Requester{
		PartyID:      partyID,
		Handle:       handle,
		Origin:       f.Origin,
		Destination:  f.Destination,
		Headcount:    f.Headcount,
		Currency:     f.Currency,
		AmountNeeded: f.Amount,
		Message:      f.Message,
	})
	if err != nil {
		return 0, fmt.Errorf("create requester: %w", err)
	}
	s.sessions.Clear(partyID)
	return id, nil
}

// SaveEdit overwrites the loaded record's mutable fields in place, full
// overwrite rather than diff. Only a session that loaded an existing
// record may save.
func (s *Service) SaveEdit(ctx context.Context, partyID int64) (int64, error) {
	f, ok := s.sessions.Get(partyID)
	if !ok || f.EditingID == 0 || !f.Complete() {
		return 0, domain.ErrIncompleteIntake
	}

	err := s.requesters.Update(ctx, &domain.Requester{
		ID:           f.EditingID,
		Origin:       f.Origin,
		Destination:  f.Destination,
		Headcount:    f.Headcount,
		Currency:     f.Currency,
		AmountNeeded: f.Amount,
		Message:      f.Message,
	})
	if err != nil {
		return 0, fmt.Errorf("update requester: %w", err)
	}
	id := f.EditingID
	s.sessions.Clear(partyID)
	return id, nil
}
