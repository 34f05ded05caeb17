package intake

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"safarbot/internal/domain"
)

// Step identifies one wizard state. The fixed forward order is
// destination → origin → headcount → currency → amount → message →
// confirm; back-jumps and edit-jumps are named targets, not "previous
// step" arithmetic.
type Step string

const (
	StepDestination   Step = "destination"
	StepOrigin        Step = "origin"
	StepHeadcount     Step = "headcount"
	StepHeadcountText Step = "headcount_text" // free-text entry behind the "5+" button
	StepCurrency      Step = "currency"
	StepAmount        Step = "amount"
	StepMessage       Step = "message"
	StepConfirm       Step = "confirm"
)

// Field names one editable wizard field, used for the single-field
// edit jump from the confirmation screen.
type Field string

const (
	FieldDestination Field = "destination"
	FieldOrigin      Field = "origin"
	FieldHeadcount   Field = "headcount"
	FieldCurrency    Field = "currency"
	FieldAmount      Field = "amount"
	FieldMessage     Field = "message"
)

// stepForField is where an edit of that field resumes the wizard.
var stepForField = map[Field]Step{
	FieldDestination: StepDestination,
	FieldOrigin:      StepOrigin,
	FieldHeadcount:   StepHeadcount,
	FieldCurrency:    StepCurrency,
	FieldAmount:      StepAmount,
	FieldMessage:     StepMessage,
}

// Form is the per-party wizard state. EditingID is non-zero when an
// existing requester record was loaded into the session for editing;
// only such a session may save-edit, and only a fresh one may submit.
type Form struct {
	Step      Step
	Editing   Field // single-field edit in flight; empty otherwise
	EditingID int64

	Destination domain.Destination
	Origin      string
	Headcount   int
	Currency    domain.Currency
	Amount      decimal.Decimal
	Message     string
}

// Complete reports whether every field the confirmation screen shows is
// present; submission and save-edit both require it.
func (f *Form) Complete() bool {
	return f.Destination.Valid() &&
		f.Origin != "" &&
		f.Headcount >= 1 &&
		f.Currency.Valid() &&
		f.Amount.IsPositive() &&
		f.Message != ""
}

// ErrUnexpectedInput marks an event the current step has no transition
// for; the caller re-prompts the current step.
var ErrUnexpectedInput = errors.New("unexpected input for step")

// Event is a tagged wizard input.
type Event interface{ kind() eventKind }

type eventKind int

const (
	evPickDestination eventKind = iota
	evPickHeadcount
	evHeadcountByText
	evPickCurrency
	evText
	evBack
	evEdit
)

type (
	// PickDestination is a destination button press.
	PickDestination struct{ Destination domain.Destination }
	// PickHeadcount is one of the small headcount buttons.
	PickHeadcount struct{ N int }
	// HeadcountByText is the "5+" button: switch to free-text entry.
	HeadcountByText struct{}
	// PickCurrency is a currency button press.
	PickCurrency struct{ Currency domain.Currency }
	// Text is free-form input for the current step.
	Text struct{ Value string }
	// Back jumps to a named earlier step.
	Back struct{ To Step }
	// Edit begins a single-field correction from the confirm screen.
	Edit struct{ Field Field }
)

func (PickDestination) kind() eventKind { return evPickDestination }
func (PickHeadcount) kind() eventKind   { return evPickHeadcount }
func (HeadcountByText) kind() eventKind { return evHeadcountByText }
func (PickCurrency) kind() eventKind    { return evPickCurrency }
func (Text) kind() eventKind            { return evText }
func (Back) kind() eventKind            { return evBack }
func (Edit) kind() eventKind            { return evEdit }

// transition is one (state, event) table entry: where to go next, which
// field the event completes (if any), and how to apply it to the form.
type transition struct {
	next  Step
	field Field
	apply func(*Form, Event) error
}

var table = map[Step]map[eventKind]transition{
	StepDestination: {
		evPickDestination: {next: StepOrigin, field: FieldDestination, apply: applyDestination},
	},
	StepOrigin: {
		evText: {next: StepHeadcount, field: FieldOrigin, apply: applyOrigin},
	},
	StepHeadcount: {
		evPickHeadcount:   {next: StepCurrency, field: FieldHeadcount, apply: applyHeadcountPick},
		evHeadcountByText: {next: StepHeadcountText},
	},
	StepHeadcountText: {
		evText: {next: StepCurrency, field: FieldHeadcount, apply: applyHeadcountText},
	},
	StepCurrency: {
		evPickCurrency: {next: StepAmount, field: FieldCurrency, apply: applyCurrency},
	},
	StepAmount: {
		evText: {next: StepMessage, field: FieldAmount, apply: applyAmount},
	},
	StepMessage: {
		evText: {next: StepConfirm, field: FieldMessage, apply: applyMessage},
	},
}

func applyDestination(f *Form, ev Event) error {
	dest := ev.(PickDestination).Destination
	if !dest.Valid() {
		return ErrUnexpectedInput
	}
	f.Destination = dest
	return nil
}

func applyOrigin(f *Form, ev Event) error {
	origin := strings.TrimSpace(ev.(Text).Value)
	if origin == "" {
		return ErrUnexpectedInput
	}
	f.Origin = origin
	return nil
}

func applyHeadcountPick(f *Form, ev Event) error {
	n := ev.(PickHeadcount).N
	if n <= 0 {
		return ErrInvalidNumber
	}
	f.Headcount = n
	return nil
}

func applyHeadcountText(f *Form, ev Event) error {
	n, err := parseHeadcount(ev.(Text).Value)
	if err != nil {
		return err
	}
	f.Headcount = n
	return nil
}

func applyCurrency(f *Form, ev Event) error {
	cur := ev.(PickCurrency).Currency
	if !cur.Valid() {
		return ErrUnexpectedInput
	}
	f.Currency = cur
	return nil
}

func applyAmount(f *Form, ev Event) error {
	amount, err := ParseAmount(ev.(Text).Value)
	if err != nil {
		return err
	}
	f.Amount = amount
	return nil
}

func applyMessage(f *Form, ev Event) error {
	msg := strings.TrimSpace(ev.(Text).Value)
	if msg == "" {
		return ErrUnexpectedInput
	}
	f.Message = msg
	return nil
}

// Apply advances the form by one event and returns the step to prompt
// next. Invalid numeric input (ErrInvalidNumber) and unexpected events
// leave the form where it is.
//
// Back and Edit are accepted regardless of the current step: the
// button-driven transport can deliver a stale button press at any time,
// and honoring the named target is always safe.
func Apply(f *Form, ev Event) (Step, error) {
	switch e := ev.(type) {
	case Back:
		f.Step = e.To
		return f.Step, nil
	case Edit:
		target, ok := stepForField[e.Field]
		if !ok {
			return f.Step, ErrUnexpectedInput
		}
		f.Editing = e.Field
		f.Step = target
		return f.Step, nil
	}

	byKind, ok := table[f.Step]
	if !ok {
		return f.Step, ErrUnexpectedInput
	}
	tr, ok := byKind[ev.kind()]
	if !ok {
		return f.Step, ErrUnexpectedInput
	}
	if tr.apply != nil {
		if err := tr.apply(f, ev); err != nil {
			return f.Step, err
		}
	}

	next := tr.next
	// A completed single-field edit jumps straight back to the
	// confirmation screen instead of advancing.
	if tr.field != "" && f.Editing == tr.field {
		f.Editing = ""
		next = StepConfirm
	}
	f.Step = next
	return next, nil
}
