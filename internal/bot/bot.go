package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/intake"
	"safarbot/internal/ledger"
	"safarbot/internal/matching"
)

// Bot routes Telegram updates to the intake wizard, the listing flow,
// and the pledge ledger. All conversation state lives in-process; any
// message or button press is answerable from storage plus the menu, so
// losing state on restart only costs the user a re-entry.
type Bot struct {
	tg         *telegram.Client
	intake     *intake.Service
	ledger     *ledger.Service
	lister     *matching.Lister
	requesters domain.RequesterRepository
	maxPending int
	flows      *flows
	log        zerolog.Logger
}

// New wires the bot.
func New(tg *telegram.Client, in *intake.Service, led *ledger.Service, lister *matching.Lister, requesters domain.RequesterRepository, maxPending int, log zerolog.Logger) *Bot {
	return &Bot{
		tg:         tg,
		intake:     in,
		ledger:     led,
		lister:     lister,
		requesters: requesters,
		maxPending: maxPending,
		flows:      newFlows(),
		log:        log,
	}
}

// HandleUpdate dispatches one update. Failures are logged and answered
// with a generic error message; the poll loop never sees them.
func (b *Bot) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.Text != "":
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	partyID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start", "/menu":
		b.intake.Reset(partyID)
		b.flows.clear(partyID)
		b.send(ctx, chatID, msgWelcome, menuKeyboard())
		return
	case "/status":
		b.send(ctx, chatID, msgStatusChooser, telegram.Keyboard([]telegram.Button{
			telegram.Btn("📋 وضعیت مسافر", "status_requester"),
			telegram.Btn("📋 وضعیت حامی", "status_backer"),
		}))
		return
	}

	// Requester wizard input takes precedence over backer flow input;
	// a party never has both live at once in practice.
	if f, ok := b.intake.Form(partyID); ok && wantsText(f.Step) {
		b.handleIntakeText(ctx, chatID, partyID, text)
		return
	}

	fl := b.flows.get(partyID)
	switch fl.step {
	case flowPickRequester:
		b.handlePickText(ctx, chatID, msg.From, text)
	case flowPledgeAmount:
		b.handleAmountText(ctx, chatID, msg.From, text)
	}
}

func wantsText(step intake.Step) bool {
	switch step {
	case intake.StepOrigin, intake.StepHeadcountText, intake.StepAmount, intake.StepMessage:
		return true
	}
	return false
}

func (b *Bot) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := b.tg.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		b.log.Warn().Err(err).Msg("answer callback failed")
	}
	if cb.From == nil || cb.Message == nil {
		return
	}
	partyID := cb.From.ID
	chatID := cb.Message.Chat.ID

	action, ok := ParseAction(cb.Data)
	if !ok {
		b.log.Debug().Str("data", cb.Data).Msg("unknown callback data")
		return
	}

	switch action.Kind {
	case actMainMenu:
		b.intake.Reset(partyID)
		b.flows.clear(partyID)
		b.send(ctx, chatID, msgWelcome, menuKeyboard())
	case actCheckSettings:
		b.handleCheckSettings(ctx, chatID, cb.From)

	// requester side
	case actRoleRequester:
		b.handleRoleRequester(ctx, chatID, partyID)
	case actPickDest:
		b.applyIntake(ctx, chatID, partyID, intake.PickDestination{Destination: action.Dest})
	case actPickHeads:
		b.applyIntake(ctx, chatID, partyID, intake.PickHeadcount{N: action.N})
	case actHeadsMore:
		b.applyIntake(ctx, chatID, partyID, intake.HeadcountByText{})
	case actPickCurrency:
		b.applyIntake(ctx, chatID, partyID, intake.PickCurrency{Currency: action.Currency})
	case actEditField:
		b.applyIntake(ctx, chatID, partyID, intake.Edit{Field: action.Field})
	case actBack:
		b.applyIntake(ctx, chatID, partyID, intake.Back{To: action.Step})
	case actConfirmEntry:
		b.handleConfirmEntry(ctx, chatID, cb.From)
	case actSaveEdit:
		b.handleSaveEdit(ctx, chatID, partyID)
	case actStatusRequester:
		b.showRequesterStatus(ctx, chatID, partyID)
	case actConfirmedRequester:
		b.showRequesterConfirmed(ctx, chatID, partyID)
	case actPledgeConfirm:
		b.handlePledgeConfirm(ctx, chatID, partyID, action.ID)
	case actPledgeCancelRequester:
		b.handlePledgeCancelRequester(ctx, chatID, partyID, action.ID)
	case actEditEntry:
		b.handleEditEntry(ctx, chatID, partyID)
	case actRemoveEntry:
		b.handleRemoveEntry(ctx, chatID, partyID)
	case actConfirmRemove:
		b.handleConfirmRemove(ctx, chatID, partyID)

	// backer side
	case actRoleBacker:
		fl := b.flows.get(partyID)
		fl.step = flowPickRequester
		fl.filter = ""
		fl.page = 0
		b.showList(ctx, chatID, "", 0)
	case actList:
		fl := b.flows.get(partyID)
		fl.step = flowPickRequester
		fl.filter = action.Dest
		fl.page = action.Page
		b.showList(ctx, chatID, action.Dest, action.Page)
	case actProceedFund:
		b.handleProceedFund(ctx, chatID, partyID, action.ID)
	case actFullAmount:
		b.handleFullAmount(ctx, chatID, cb.From, action.ID)
	case actCancelPick:
		fl := b.flows.get(partyID)
		fl.step = flowPickRequester
		fl.selected = 0
		b.showList(ctx, chatID, fl.filter, fl.page)
	case actStatusBacker:
		b.showBackerStatus(ctx, chatID, partyID)
	case actConfirmedBacker:
		b.showBackerConfirmed(ctx, chatID, partyID)
	case actPledgeCancelBacker:
		b.handlePledgeCancelBacker(ctx, chatID, partyID, action.ID)
	}
}

// handleFrom extracts "@handle" from a user, empty when unset.
func handleFrom(u *telegram.User) string {
	if u.Username == "" {
		return ""
	}
	return "@" + u.Username
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup *telegram.ReplyMarkup) {
	if err := b.tg.SendMessage(ctx, chatID, text, markup); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

// notify delivers a message to the other party of a pledge. Failures
// are logged only; the initiating party's flow already succeeded.
func (b *Bot) notify(ctx context.Context, partyID int64, text string, markup *telegram.ReplyMarkup) {
	if partyID == 0 {
		return
	}
	if markup == nil {
		markup = mainMenuKeyboard()
	}
	if err := b.tg.SendMessage(ctx, partyID, text, markup); err != nil {
		b.log.Warn().Err(err).Int64("party_id", partyID).Msg("notify failed")
	}
}
