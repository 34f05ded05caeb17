package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Destination is one of the fixed set of cities a requester travels to.
type Destination string

const (
	DestLosAngeles Destination = "Los Angeles"
	DestToronto    Destination = "Toronto"
	DestMunich     Destination = "Munich"
)

// Destinations lists the selectable destinations in display order.
var Destinations = []Destination{DestLosAngeles, DestToronto, DestMunich}

// Valid reports whether d is a known destination.
func (d Destination) Valid() bool {
	for _, known := range Destinations {
		if d == known {
			return true
		}
	}
	return false
}

// Currency is the unit a requester states their need in. No conversion
// happens anywhere; amounts only ever meet amounts in the same currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists the selectable currencies in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyCAD, CurrencyEUR, CurrencyGBP}

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// StatusAvailable is the only requester status in use today. The column
// exists so future states can be added without a migration.
const StatusAvailable = "available"

// Requester is one party seeking travel funding. At most one active
// record exists per external party id.
//
// PendingAmount and FundedAmount are maintained incrementally by the
// pledge repository inside the same transaction as each pledge state
// change. They must always equal the sum of the matching pledge rows;
// the reconcile job exists to catch drift if some code path ever
// violates that.
type Requester struct {
	ID            int64
	PartyID       int64
	Handle        string
	Origin        string
	Destination   Destination
	Headcount     int
	Currency      Currency
	AmountNeeded  decimal.Decimal
	PendingAmount decimal.Decimal
	FundedAmount  decimal.Decimal
	Message       string
	Status        string
	CreatedAt     time.Time
}

// Remaining is the amount still uncovered, floored at zero.
func (r *Requester) Remaining() decimal.Decimal {
	rem := r.AmountNeeded.Sub(r.FundedAmount).Sub(r.PendingAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// PerHead is the remaining amount divided by the headcount. Listings
// rank by it ascending so the cheapest-per-person asks surface first.
func (r *Requester) PerHead() decimal.Decimal {
	heads := r.Headcount
	if heads < 1 {
		heads = 1
	}
	return r.Remaining().Div(decimal.NewFromInt(int64(heads)))
}
