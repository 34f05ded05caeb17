package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNotPending        = errors.New("pledge not found or not pending")
	ErrHasFundedPledges  = errors.New("requester has funded pledges")
	ErrAlreadyRegistered = errors.New("party already has an active requester")
	ErrIncompleteIntake  = errors.New("intake incomplete")
	ErrInvalidAmount     = errors.New("amount must be positive")
)
