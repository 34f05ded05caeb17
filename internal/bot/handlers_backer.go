package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/intake"
)

func (b *Bot) showList(ctx context.Context, chatID int64, dest domain.Destination, pageNum int) {
	page, err := b.lister.Page(ctx, dest, pageNum)
	if err != nil {
		b.log.Error().Err(err).Msg("list open requesters failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	if len(page.Items) == 0 {
		text := msgNoneFound
		if dest != "" {
			text = fmt.Sprintf("مسافری برای %s %s یافت نشد.", emoji(dest), destLabel(dest))
		}
		b.send(ctx, chatID, text, mainMenuKeyboard())
		return
	}

	var txt strings.Builder
	txt.WriteString("📋 لیست مسافران\n")
	txt.WriteString("مسافران بر اساس مبلغ باقیمانده مرتب شده‌اند. شناسه مسافر را وارد کنید تا جزئیات را ببینید و بتوانید کمک کنید.\n\n")
	for i := range page.Items {
		txt.WriteString(listEntryText(&page.Items[i]) + "\n\n")
	}
	fmt.Fprintf(&txt, "صفحه %d از %d", page.Number+1, page.TotalPages)
	txt.WriteString("\n\nشناسه مسافر (عدد داخل براکت) را وارد کنید:")

	b.send(ctx, chatID, txt.String(), listKeyboard(dest, page))
}

// handlePickText resolves the requester id a backer typed while
// browsing the list.
func (b *Bot) handlePickText(ctx context.Context, chatID int64, from *telegram.User, text string) {
	id, err := strconv.ParseInt(intake.NormalizeDigits(strings.TrimSpace(text)), 10, 64)
	if err != nil || id <= 0 {
		b.send(ctx, chatID, msgInvalidID, nil)
		return
	}

	r, err := b.requesters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.send(ctx, chatID, msgUnknownRequesterID, nil)
			return
		}
		b.log.Error().Err(err).Int64("requester_id", id).Msg("load requester failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	if r.PartyID == from.ID {
		b.send(ctx, chatID, msgSelfPledge, telegram.Keyboard(
			[]telegram.Button{telegram.Btn("🔙 بازگشت به لیست", "cancel_pick")}))
		return
	}

	fl := b.flows.get(from.ID)
	fl.selected = id
	detail := requesterDetailText(r)
	rem := r.Remaining()

	if !rem.IsPositive() {
		// Fully covered requests stay pledgeable; warn and ask first.
		b.send(ctx, chatID,
			detail+"\n\n⚠️ این مسافر پوشش مالی کافی دارد. آیا ادامه می‌دهید؟",
			telegram.Keyboard(
				[]telegram.Button{telegram.Btn("✅ بله، ادامه", fmt.Sprintf("proceed_fund_%d", id))},
				[]telegram.Button{telegram.Btn("🔙 بازگشت به لیست", "cancel_pick")}))
		return
	}

	fl.step = flowPledgeAmount
	b.send(ctx, chatID,
		fmt.Sprintf("%s\n\nچقدر می‌خواهید کمک کنید؟ (%s)", detail, currencyLabel(r.Currency)),
		fullAmountKeyboard(r))
}

func fullAmountKeyboard(r *domain.Requester) *telegram.ReplyMarkup {
	rem := r.Remaining()
	if !rem.IsPositive() {
		return nil
	}
	return telegram.Keyboard([]telegram.Button{
		telegram.Btn(fmt.Sprintf("💰 کل مبلغ باقیمانده (%s)", fmtAmount(rem)), fmt.Sprintf("full_amount_%d", r.ID)),
	})
}

// handleProceedFund is the "yes, continue" after the fully-covered
// warning.
func (b *Bot) handleProceedFund(ctx context.Context, chatID, partyID, requesterID int64) {
	r, err := b.requesters.GetByID(ctx, requesterID)
	if err != nil {
		b.send(ctx, chatID, msgRequesterNotFound, mainMenuKeyboard())
		return
	}

	fl := b.flows.get(partyID)
	fl.selected = requesterID
	fl.step = flowPledgeAmount
	b.send(ctx, chatID,
		fmt.Sprintf("چقدر می‌خواهید کمک کنید؟ (%s)", currencyLabel(r.Currency)),
		fullAmountKeyboard(r))
}

// handleFullAmount pledges the whole remaining amount in one tap.
func (b *Bot) handleFullAmount(ctx context.Context, chatID int64, from *telegram.User, requesterID int64) {
	r, err := b.requesters.GetByID(ctx, requesterID)
	if err != nil {
		b.send(ctx, chatID, msgRequesterNotFound, mainMenuKeyboard())
		return
	}

	rem := r.Remaining()
	if !rem.IsPositive() {
		b.send(ctx, chatID, msgNoFundingNeeded, mainMenuKeyboard())
		return
	}

	fl := b.flows.get(from.ID)
	fl.selected = requesterID
	b.processPledge(ctx, chatID, from, r, rem)
}

func (b *Bot) handleAmountText(ctx context.Context, chatID int64, from *telegram.User, text string) {
	fl := b.flows.get(from.ID)
	r, err := b.requesters.GetByID(ctx, fl.selected)
	if err != nil {
		fl.step = flowNone
		b.send(ctx, chatID, "مسافر یافت نشد. لطفاً دوباره شروع کنید.", mainMenuKeyboard())
		return
	}

	amount, err := intake.ParseAmount(text)
	if err != nil {
		b.send(ctx, chatID, msgInvalidAmount, nil)
		return
	}

	b.processPledge(ctx, chatID, from, r, amount)
}

// processPledge runs the advisory pending-cap check, records the
// pledge, and notifies both parties.
func (b *Bot) processPledge(ctx context.Context, chatID int64, from *telegram.User, r *domain.Requester, amount decimal.Decimal) {
	fl := b.flows.get(from.ID)

	count, err := b.ledger.CountPendingByBacker(ctx, from.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("backer_id", from.ID).Msg("count pending pledges failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	if count >= b.maxPending {
		fl.step = flowNone
		b.send(ctx, chatID,
			fmt.Sprintf("⚠️ شما %d حمایت فعال دارید (حداکثر %d). لطفاً ابتدا حمایت‌های قبلی را تأیید یا لغو کنید.", count, b.maxPending),
			mainMenuKeyboard())
		return
	}

	handle := handleFrom(from)
	pledgeID, err := b.ledger.CreatePledge(ctx, r.ID, from.ID, handle, amount)
	if err != nil {
		b.log.Error().Err(err).Int64("requester_id", r.ID).Msg("create pledge failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	b.log.Info().Int64("pledge_id", pledgeID).Int64("requester_id", r.ID).Int64("backer_id", from.ID).Msg("pledge created")

	fl.step = flowNone
	fl.selected = 0

	cur := currencyLabel(r.Currency)
	var txt strings.Builder
	txt.WriteString("✅ حمایت شما ثبت شد! (وضعیت: در انتظار تأیید)\n\n")
	fmt.Fprintf(&txt, "%sمسافر #%d — %s %s\n", rlm, r.ID, emoji(r.Destination), destLabel(r.Destination))
	fmt.Fprintf(&txt, "%sمبلغ: %s %s\n\n", rlm, fmtAmount(amount), cur)
	txt.WriteString("⚠️ نکات مهم:\n")
	txt.WriteString("• وجه را از طریق روش‌های امن ارسال کنید\n")
	txt.WriteString("• مشروعیت مسافر را بررسی کنید\n")
	txt.WriteString("• در صورت نیاز مدارک سفر یا بلیط بخواهید\n\n")
	fmt.Fprintf(&txt, "%s%s\n\n", rlm, contactLink("پیام به مسافر", r.PartyID, r.Handle))
	txt.WriteString("⏳ حمایت شما «در انتظار تأیید» است. با مسافر تماس بگیرید و پس از ارسال وجه، مسافر باید از منوی وضعیت خود دریافت را تأیید کند.\n")
	txt.WriteString("از منوی «📋 وضعیت حامی» می‌توانید حمایت‌های خود را پیگیری یا لغو کنید.")
	b.send(ctx, chatID, txt.String(), mainMenuKeyboard())

	var ntf strings.Builder
	ntf.WriteString("🎉 یک حامی می‌خواهد به شما کمک کند!\n\n")
	fmt.Fprintf(&ntf, "%sمبلغ: %s %s\n\n", rlm, fmtAmount(amount), cur)
	ntf.WriteString("⚠️ نکات مهم:\n")
	ntf.WriteString("• مدارک مربوط به نیاز مالی خود را ارائه دهید\n")
	ntf.WriteString("• به حامی اطمینان دهید که وجه مسئولانه استفاده می‌شود\n")
	ntf.WriteString("• پس از سفر، مدرک استفاده از کمک مالی ارائه دهید\n\n")
	fmt.Fprintf(&ntf, "%s%s\n\n", rlm, contactLink("پیام به حامی", from.ID, handle))
	ntf.WriteString("پس از دریافت وجه، حتماً از منوی «📋 وضعیت مسافر» دکمه «تأیید» را بزنید تا حامی مطلع شود.")
	b.notify(ctx, r.PartyID, ntf.String(), telegram.Keyboard(
		[]telegram.Button{telegram.Btn("📋 وضعیت مسافر", "status_requester")},
		mainMenuRow()))
}

// ── Backer status ──

func (b *Bot) showBackerStatus(ctx context.Context, chatID, partyID int64) {
	pending, err := b.ledger.ListByBacker(ctx, partyID, domain.PledgePending)
	if err != nil {
		b.log.Error().Err(err).Int64("backer_id", partyID).Msg("list backer pledges failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	if len(pending) == 0 {
		b.send(ctx, chatID, msgNoPledgesYet, telegram.Keyboard(
			[]telegram.Button{telegram.Btn("📜 مشاهده تأیید شده‌ها", "confirmed_backer")},
			mainMenuRow()))
		return
	}

	var txt strings.Builder
	fmt.Fprintf(&txt, "📊 حمایت‌های فعال: %d از %d\n", len(pending), b.maxPending)
	txt.WriteString("با مسافران تماس بگیرید و وجه را ارسال کنید. پس از ارسال، مسافر باید دریافت را تأیید کند.\n\n")

	var rows [][]telegram.Button
	for i, p := range pending {
		txt.WriteString(b.backerPledgeLine(ctx, i+1, &p))
		rows = append(rows, []telegram.Button{
			telegram.Btn(fmt.Sprintf("لغو❌ %d", i+1), fmt.Sprintf("bcancel_%d", p.ID)),
		})
	}
	txt.WriteString("❌ لغو: حمایت لغو می‌شود و مسافر مطلع می‌شود\n")

	rows = append(rows,
		[]telegram.Button{telegram.Btn("📜 مشاهده تأیید شده‌ها", "confirmed_backer")},
		mainMenuRow())
	b.send(ctx, chatID, txt.String(), telegram.Keyboard(rows...))
}

func (b *Bot) showBackerConfirmed(ctx context.Context, chatID, partyID int64) {
	funded, err := b.ledger.ListByBacker(ctx, partyID, domain.PledgeFunded)
	if err != nil {
		b.log.Error().Err(err).Int64("backer_id", partyID).Msg("list backer pledges failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	var txt strings.Builder
	txt.WriteString("📜 حمایت‌های تأیید شده\n\n")
	if len(funded) == 0 {
		txt.WriteString("هنوز حمایت تأیید شده‌ای ندارید.")
	} else {
		for i, p := range funded {
			txt.WriteString(b.backerPledgeLine(ctx, i+1, &p))
		}
	}
	b.send(ctx, chatID, txt.String(), telegram.Keyboard(
		[]telegram.Button{telegram.Btn("🔙 بازگشت", "status_backer")}))
}

// backerPledgeLine renders one pledge with its requester's route. A
// funded pledge can outlive its requester only transiently (deletion
// cascades), so a missing row falls back to the bare amount.
func (b *Bot) backerPledgeLine(ctx context.Context, n int, p *domain.Pledge) string {
	r, err := b.requesters.GetByID(ctx, p.RequesterID)
	if err != nil {
		return fmt.Sprintf("%s%d) 💰 %s\n\n", rlm, n, fmtAmount(p.Amount))
	}
	cur := currencyLabel(r.Currency)
	return fmt.Sprintf("%s%d) مسافر از %s به %s %s\n%s   💰 %s %s — %s\n\n",
		rlm, n, r.Origin, destLabel(r.Destination), emoji(r.Destination),
		rlm, fmtAmount(p.Amount), cur, contactLink("پیام به مسافر", r.PartyID, r.Handle))
}

func (b *Bot) handlePledgeCancelBacker(ctx context.Context, chatID, partyID, pledgeID int64) {
	p, err := b.ledger.GetPledge(ctx, pledgeID)
	if err != nil || p.BackerID != partyID {
		b.send(ctx, chatID, msgNotYourPledge, mainMenuKeyboard())
		return
	}

	requesterID, amount, err := b.ledger.Cancel(ctx, pledgeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			b.showBackerStatus(ctx, chatID, partyID)
			return
		}
		b.log.Error().Err(err).Int64("pledge_id", pledgeID).Msg("cancel pledge failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := ""
	var requesterParty int64
	if r, rerr := b.requesters.GetByID(ctx, requesterID); rerr == nil {
		cur = currencyLabel(r.Currency)
		requesterParty = r.PartyID
	}

	b.send(ctx, chatID, fmt.Sprintf("❌ حمایت #%d لغو شد. (%s %s)", pledgeID, fmtAmount(amount), cur), nil)
	b.notify(ctx, requesterParty,
		fmt.Sprintf("❌ حامی حمایت #%d را لغو کرد.\n%sمبلغ: %s %s", pledgeID, rlm, fmtAmount(amount), cur),
		telegram.Keyboard(
			[]telegram.Button{telegram.Btn("📋 وضعیت مسافر", "status_requester")},
			mainMenuRow()))
	b.showBackerStatus(ctx, chatID, partyID)
}
