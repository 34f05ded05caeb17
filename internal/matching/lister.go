package matching

import (
	"context"
	"fmt"

	"safarbot/internal/domain"
)

// Page is one slice of the open-request listing.
type Page struct {
	Items      []domain.Requester
	Total      int
	Number     int // zero-based
	TotalPages int
}

// HasPrev and HasNext drive the pagination buttons.
func (p *Page) HasPrev() bool { return p.Number > 0 }
func (p *Page) HasNext() bool { return p.Number < p.TotalPages-1 }

// Lister surfaces open requests to backers, ranked by remaining amount
// per head ascending: the requests nearest completion and the cheapest
// per-person asks come first, which funds the most groups for a given
// amount of backer attention. Pages offer no snapshot consistency —
// concurrent pledges can shift rows between them, acceptable for a
// browsing aid.
type Lister struct {
	requesters domain.RequesterRepository
	pageSize   int
}

// NewLister creates a lister with a fixed page size.
func NewLister(requesters domain.RequesterRepository, pageSize int) *Lister {
	return &Lister{requesters: requesters, pageSize: pageSize}
}

// Page returns the requested page, optionally filtered to one
// destination (empty means all).
func (l *Lister) Page(ctx context.Context, dest domain.Destination, page int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	items, total, err := l.requesters.ListOpen(ctx, dest, l.pageSize, page*l.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list open requesters: %w", err)
	}
	totalPages := (total + l.pageSize - 1) / l.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	return &Page{Items: items, Total: total, Number: page, TotalPages: totalPages}, nil
}
