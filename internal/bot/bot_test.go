package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safarbot/internal/adapter/memory"
	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/events"
	"safarbot/internal/intake"
	"safarbot/internal/ledger"
	"safarbot/internal/matching"
)

// sentMessage is one captured outbound sendMessage payload.
type sentMessage struct {
	ChatID int64                 `json:"chat_id"`
	Text   string                `json:"text"`
	Markup *telegram.ReplyMarkup `json:"reply_markup"`
}

type fakeAPI struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			var msg sentMessage
			_ = json.NewDecoder(r.Body).Decode(&msg)
			f.mu.Lock()
			f.sent = append(f.sent, msg)
			f.mu.Unlock()
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}
}

func (f *fakeAPI) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func newTestBot(t *testing.T) (*Bot, *memory.Store, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	tg := telegram.NewClient("t", zerolog.Nop())
	tg.BaseURL = srv.URL

	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.Requesters(), store.Pledges(), events.Noop{}, zerolog.Nop())
	intakeSvc := intake.NewService(store.Requesters())
	lister := matching.NewLister(store.Requesters(), 10)

	return New(tg, intakeSvc, ledgerSvc, lister, store.Requesters(), 5, zerolog.Nop()), store, api
}

func message(partyID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: partyID, Username: "user"},
		Chat: telegram.Chat{ID: partyID},
		Text: text,
	}}
}

func callback(partyID int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:      "cb",
		From:    &telegram.User{ID: partyID},
		Message: &telegram.Message{MessageID: 1, Chat: telegram.Chat{ID: partyID}},
		Data:    data,
	}}
}

func runWizard(t *testing.T, b *Bot, partyID int64) {
	t.Helper()
	ctx := context.Background()
	b.HandleUpdate(ctx, callback(partyID, "role_requester"))
	b.HandleUpdate(ctx, callback(partyID, "dest_Munich"))
	b.HandleUpdate(ctx, message(partyID, "Tehran"))
	b.HandleUpdate(ctx, callback(partyID, "heads_2"))
	b.HandleUpdate(ctx, callback(partyID, "cur_EUR"))
	b.HandleUpdate(ctx, message(partyID, "1000"))
	b.HandleUpdate(ctx, message(partyID, "need help"))
	b.HandleUpdate(ctx, callback(partyID, "confirm_entry"))
}

func TestStartShowsMenu(t *testing.T) {
	b, _, api := newTestBot(t)
	b.HandleUpdate(context.Background(), message(1, "/start"))

	last := api.last(t)
	assert.Equal(t, int64(1), last.ChatID)
	assert.Contains(t, last.Text, "نقش خود را انتخاب کنید")
	require.NotNil(t, last.Markup)
}

func TestWizardRegistersRequester(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	r, err := store.Requesters().GetByPartyID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.DestMunich, r.Destination)
	assert.Equal(t, "Tehran", r.Origin)
	assert.Equal(t, 2, r.Headcount)
	assert.Equal(t, domain.CurrencyEUR, r.Currency)
	assert.True(t, r.AmountNeeded.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "need help", r.Message)

	assert.Contains(t, api.last(t).Text, "ثبت‌نام با موفقیت انجام شد")
}

func TestSecondRegistrationRefused(t *testing.T) {
	b, _, api := newTestBot(t)
	runWizard(t, b, 10)

	b.HandleUpdate(context.Background(), callback(10, "role_requester"))
	assert.Contains(t, api.last(t).Text, "قبلاً ثبت‌نام کرده‌اید")
}

func TestPledgeFlowNotifiesBothParties(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)

	// backer browses, picks by id, enters an amount
	b.HandleUpdate(ctx, callback(20, "role_backer"))
	assert.Contains(t, api.last(t).Text, "لیست مسافران")

	b.HandleUpdate(ctx, message(20, "۱")) // requester id 1, Persian digits
	assert.Contains(t, api.last(t).Text, "چقدر می‌خواهید کمک کنید")

	b.HandleUpdate(ctx, message(20, "250"))

	// ledger updated
	r, err = store.Requesters().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, r.PendingAmount.Equal(decimal.NewFromInt(250)))

	// backer got the receipt, requester got the heads-up
	backerMsgs := api.sentTo(20)
	require.NotEmpty(t, backerMsgs)
	assert.Contains(t, backerMsgs[len(backerMsgs)-1].Text, "حمایت شما ثبت شد")

	reqMsgs := api.sentTo(10)
	require.NotEmpty(t, reqMsgs)
	assert.Contains(t, reqMsgs[len(reqMsgs)-1].Text, "یک حامی می‌خواهد به شما کمک کند")
}

func TestSelfPledgeRefused(t *testing.T) {
	b, _, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	b.HandleUpdate(ctx, callback(10, "role_backer"))
	b.HandleUpdate(ctx, message(10, "1"))
	assert.Contains(t, api.last(t).Text, "نمی‌توانید از سفر خودتان حمایت کنید")
}

func TestConfirmFromStatusScreen(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	pledgeID, err := store.Pledges().Create(ctx, r.ID, 20, "@backer", decimal.NewFromInt(100))
	require.NoError(t, err)

	b.HandleUpdate(ctx, callback(10, "pconfirm_1"))

	p, err := store.Pledges().GetByID(ctx, pledgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeFunded, p.Status)

	r, err = store.Requesters().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, r.FundedAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, r.PendingAmount.IsZero())

	// backer notified
	backerMsgs := api.sentTo(20)
	require.NotEmpty(t, backerMsgs)
	assert.Contains(t, backerMsgs[0].Text, "تأیید کرد")
}

func TestConfirmForeignPledgeRefused(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)
	runWizard(t, b, 11)

	ctx := context.Background()
	r10, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	pledgeID, err := store.Pledges().Create(ctx, r10.ID, 20, "", decimal.NewFromInt(5))
	require.NoError(t, err)

	// party 11 tries to confirm a pledge on party 10's request
	b.HandleUpdate(ctx, callback(11, "pconfirm_1"))
	assert.Contains(t, api.last(t).Text, "متعلق به شما نیست")

	p, err := store.Pledges().GetByID(ctx, pledgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgePending, p.Status)
}

func TestRemoveEntryCancelsPendingAndNotifies(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	_, err = store.Pledges().Create(ctx, r.ID, 20, "", decimal.NewFromInt(40))
	require.NoError(t, err)

	b.HandleUpdate(ctx, callback(10, "remove_entry"))
	assert.Contains(t, api.last(t).Text, "مطمئن هستید")

	b.HandleUpdate(ctx, callback(10, "confirm_remove"))

	_, err = store.Requesters().GetByPartyID(ctx, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	backerMsgs := api.sentTo(20)
	require.NotEmpty(t, backerMsgs)
	assert.Contains(t, backerMsgs[len(backerMsgs)-1].Text, "حذف کرد")
}

func TestRemoveEntryBlockedByFundedPledge(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	pledgeID, err := store.Pledges().Create(ctx, r.ID, 20, "", decimal.NewFromInt(40))
	require.NoError(t, err)
	_, _, err = store.Pledges().Confirm(ctx, pledgeID)
	require.NoError(t, err)

	b.HandleUpdate(ctx, callback(10, "remove_entry"))
	assert.Contains(t, api.last(t).Text, "امکان حذف ثبت‌نام وجود ندارد")

	_, err = store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
}

func TestEditFlowUpdatesAmount(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	b.HandleUpdate(ctx, callback(10, "edit_entry"))
	assert.Contains(t, api.last(t).Text, "ویرایش اطلاعات")

	b.HandleUpdate(ctx, callback(10, "edit_amount"))
	b.HandleUpdate(ctx, message(10, "2500"))
	b.HandleUpdate(ctx, callback(10, "save_edit"))

	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	assert.True(t, r.AmountNeeded.Equal(decimal.NewFromInt(2500)))
}

func TestPendingCapBlocksPledge(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := store.Pledges().Create(ctx, r.ID, 20, "", decimal.NewFromInt(1))
		require.NoError(t, err)
	}

	b.HandleUpdate(ctx, callback(20, "role_backer"))
	b.HandleUpdate(ctx, message(20, "1"))
	b.HandleUpdate(ctx, message(20, "50"))
	assert.Contains(t, api.last(t).Text, "حمایت فعال دارید")

	n, err := store.Pledges().CountPendingByBacker(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestBackerCancelNotifiesRequester(t *testing.T) {
	b, store, api := newTestBot(t)
	runWizard(t, b, 10)

	ctx := context.Background()
	r, err := store.Requesters().GetByPartyID(ctx, 10)
	require.NoError(t, err)
	pledgeID, err := store.Pledges().Create(ctx, r.ID, 20, "", decimal.NewFromInt(30))
	require.NoError(t, err)

	b.HandleUpdate(ctx, callback(20, "bcancel_1"))

	p, err := store.Pledges().GetByID(ctx, pledgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeCancelled, p.Status)

	reqMsgs := api.sentTo(10)
	require.NotEmpty(t, reqMsgs)
	found := false
	for _, m := range reqMsgs {
		if strings.Contains(m.Text, "لغو کرد") {
			found = true
		}
	}
	assert.True(t, found, "requester should be told about the cancellation")
}
