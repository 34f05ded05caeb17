package intake

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safarbot/internal/adapter/memory"
	"safarbot/internal/domain"
)

func completeForm(f *Form) {
	f.Destination = domain.DestToronto
	f.Origin = "Esfahan"
	f.Headcount = 2
	f.Currency = domain.CurrencyCAD
	f.Amount = decimal.NewFromInt(1200)
	f.Message = "travel costs for two"
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Requesters())

	f, err := svc.Start(ctx, 42)
	require.NoError(t, err)
	completeForm(f)
	f.Step = StepConfirm

	id, err := svc.Submit(ctx, 42, "@someone")
	require.NoError(t, err)

	r, err := store.Requesters().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.PartyID)
	assert.Equal(t, "@someone", r.Handle)
	assert.True(t, r.AmountNeeded.Equal(decimal.NewFromInt(1200)))

	// session cleared
	_, ok := svc.Form(42)
	assert.False(t, ok)
}

func TestServiceStartRefusesSecondRegistration(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Requesters())

	f, err := svc.Start(ctx, 42)
	require.NoError(t, err)
	completeForm(f)
	_, err = svc.Submit(ctx, 42, "")
	require.NoError(t, err)

	_, err = svc.Start(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestServiceSubmitIncomplete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Requesters())

	f, err := svc.Start(ctx, 7)
	require.NoError(t, err)
	f.Origin = "Rasht" // everything else missing

	_, err = svc.Submit(ctx, 7, "")
	assert.ErrorIs(t, err, domain.ErrIncompleteIntake)

	// nothing reached storage
	_, err = store.Requesters().GetByPartyID(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceEditRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Requesters())

	f, err := svc.Start(ctx, 9)
	require.NoError(t, err)
	completeForm(f)
	id, err := svc.Submit(ctx, 9, "@x")
	require.NoError(t, err)

	edit, err := svc.BeginEdit(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, StepConfirm, edit.Step)
	assert.Equal(t, id, edit.EditingID)
	assert.Equal(t, "Esfahan", edit.Origin)

	// an editing session must not create a second record
	_, err = svc.Submit(ctx, 9, "@x")
	assert.ErrorIs(t, err, domain.ErrIncompleteIntake)

	edit.Amount = decimal.NewFromInt(1500)
	saved, err := svc.SaveEdit(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, id, saved)

	r, err := store.Requesters().GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, r.AmountNeeded.Equal(decimal.NewFromInt(1500)))
}

func TestServiceSaveEditRequiresLoadedRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Requesters())

	f, err := svc.Start(ctx, 5)
	require.NoError(t, err)
	completeForm(f)

	_, err = svc.SaveEdit(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrIncompleteIntake)
}
