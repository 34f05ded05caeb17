package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/intake"
)

func (b *Bot) handleRoleRequester(ctx context.Context, chatID, partyID int64) {
	f, err := b.intake.Start(ctx, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			b.send(ctx, chatID, msgAlreadyRegistered, mainMenuKeyboard())
			return
		}
		b.log.Error().Err(err).Int64("party_id", partyID).Msg("start intake failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	b.promptStep(ctx, chatID, f)
}

// applyIntake advances the wizard by one button event and prompts for
// whatever comes next. Presses with no live wizard are stale buttons
// and get dropped.
func (b *Bot) applyIntake(ctx context.Context, chatID, partyID int64, ev intake.Event) {
	f, ok := b.intake.Form(partyID)
	if !ok {
		return
	}
	if _, err := intake.Apply(f, ev); err != nil {
		return
	}
	b.promptStep(ctx, chatID, f)
}

// handleIntakeText feeds free-form text into the wizard. Rejected
// numeric input re-prompts without moving the wizard.
func (b *Bot) handleIntakeText(ctx context.Context, chatID, partyID int64, text string) {
	f, ok := b.intake.Form(partyID)
	if !ok {
		return
	}
	step := f.Step
	if _, err := intake.Apply(f, intake.Text{Value: text}); err != nil {
		if errors.Is(err, intake.ErrInvalidNumber) {
			if step == intake.StepAmount {
				b.send(ctx, chatID, msgInvalidAmount, nil)
			} else {
				b.send(ctx, chatID, msgInvalidNumber, nil)
			}
			return
		}
		return
	}
	b.promptStep(ctx, chatID, f)
}

func (b *Bot) promptStep(ctx context.Context, chatID int64, f *intake.Form) {
	switch f.Step {
	case intake.StepDestination:
		b.send(ctx, chatID, msgAskDestination, destinationKeyboard())
	case intake.StepOrigin:
		b.send(ctx, chatID, msgAskOrigin, backKeyboard(intake.StepOrigin))
	case intake.StepHeadcount:
		b.send(ctx, chatID, msgAskHeadcount, headcountKeyboard())
	case intake.StepHeadcountText:
		b.send(ctx, chatID, msgEnterHeadcount, backKeyboard(intake.StepHeadcountText))
	case intake.StepCurrency:
		b.send(ctx, chatID, msgAskCurrency, currencyKeyboard())
	case intake.StepAmount:
		b.send(ctx, chatID, msgAskAmount, backKeyboard(intake.StepAmount))
	case intake.StepMessage:
		b.send(ctx, chatID, msgAskMessage, backKeyboard(intake.StepMessage))
	case intake.StepConfirm:
		b.send(ctx, chatID, confirmText(f), confirmKeyboard(f.EditingID != 0))
	}
}

func (b *Bot) handleConfirmEntry(ctx context.Context, chatID int64, from *telegram.User) {
	// Submit clears the session; keep the form for the success text.
	f, ok := b.intake.Form(from.ID)
	if !ok {
		b.send(ctx, chatID, msgIncomplete, mainMenuKeyboard())
		return
	}
	snapshot := *f

	id, err := b.intake.Submit(ctx, from.ID, handleFrom(from))
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteIntake) {
			b.send(ctx, chatID, msgIncomplete, mainMenuKeyboard())
			return
		}
		b.log.Error().Err(err).Int64("party_id", from.ID).Msg("submit intake failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	b.log.Info().Int64("requester_id", id).Int64("party_id", from.ID).Msg("requester registered")
	b.send(ctx, chatID, registeredText(id, &snapshot), mainMenuKeyboard())
}

func (b *Bot) handleSaveEdit(ctx context.Context, chatID, partyID int64) {
	id, err := b.intake.SaveEdit(ctx, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrIncompleteIntake) {
			b.send(ctx, chatID, msgIncomplete, mainMenuKeyboard())
			return
		}
		b.log.Error().Err(err).Int64("party_id", partyID).Msg("save edit failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	b.log.Info().Int64("requester_id", id).Msg("requester updated")
	b.send(ctx, chatID, msgUpdated, nil)
	b.showRequesterStatus(ctx, chatID, partyID)
}

func (b *Bot) handleEditEntry(ctx context.Context, chatID, partyID int64) {
	f, err := b.intake.BeginEdit(ctx, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.send(ctx, chatID, msgNotRegistered, mainMenuKeyboard())
			return
		}
		b.log.Error().Err(err).Int64("party_id", partyID).Msg("begin edit failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	b.promptStep(ctx, chatID, f)
}

// ── Status ──

func (b *Bot) showRequesterStatus(ctx context.Context, chatID, partyID int64) {
	r, err := b.requesters.GetByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.send(ctx, chatID, msgNotRegistered, mainMenuKeyboard())
			return
		}
		b.log.Error().Err(err).Int64("party_id", partyID).Msg("load requester failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	pending, err := b.ledger.ListByRequester(ctx, r.ID, domain.PledgePending)
	if err != nil {
		b.log.Error().Err(err).Int64("requester_id", r.ID).Msg("list pending pledges failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := currencyLabel(r.Currency)
	var txt strings.Builder
	txt.WriteString("📋 وضعیت مسافر\n\n")
	fmt.Fprintf(&txt, "%s🆔 شناسه: %d\n", rlm, r.ID)
	fmt.Fprintf(&txt, "%s🏙️ تظاهرات: %s %s\n", rlm, emoji(r.Destination), destLabel(r.Destination))
	fmt.Fprintf(&txt, "%s📍 مبدأ: %s\n", rlm, r.Origin)
	fmt.Fprintf(&txt, "%s👥 تعداد: %d نفر\n", rlm, r.Headcount)
	fmt.Fprintf(&txt, "%s💰 مبلغ مورد نیاز: %s %s\n", rlm, fmtAmount(r.AmountNeeded), cur)
	fmt.Fprintf(&txt, "%s✅ تأمین شده: %s %s\n", rlm, fmtAmount(r.FundedAmount), cur)
	fmt.Fprintf(&txt, "%s⏳ در انتظار تأیید: %s %s\n", rlm, fmtAmount(r.PendingAmount), cur)
	fmt.Fprintf(&txt, "%s📊 باقیمانده: %s %s\n", rlm, fmtAmount(r.Remaining()), cur)
	fmt.Fprintf(&txt, "📝 پیام: %s\n", r.Message)

	var rows [][]telegram.Button
	if len(pending) > 0 {
		txt.WriteString("\nحمایت‌های در انتظار تأیید:\n")
		txt.WriteString("پس از دریافت وجه از حامی، دکمه تأیید را بزنید.\n\n")
		for i, p := range pending {
			fmt.Fprintf(&txt, "%s%d) 💰 %s %s — %s\n\n",
				rlm, i+1, fmtAmount(p.Amount), cur, contactLink("پیام به حامی", p.BackerID, p.BackerHandle))
		}
		txt.WriteString("✅ تأیید: وجه را دریافت کرده‌اید — حامی مطلع می‌شود\n")
		txt.WriteString("❌ لغو: وجه دریافت نشده — حمایت لغو و حامی مطلع می‌شود\n")
		for i, p := range pending {
			rows = append(rows, []telegram.Button{
				telegram.Btn(fmt.Sprintf("تأیید✅ %d", i+1), fmt.Sprintf("pconfirm_%d", p.ID)),
				telegram.Btn(fmt.Sprintf("لغو❌ %d", i+1), fmt.Sprintf("pcancel_%d", p.ID)),
			})
		}
	} else {
		txt.WriteString("\nحمایت در انتظار تأییدی ندارید.\n")
	}

	rows = append(rows,
		[]telegram.Button{telegram.Btn("📜 مشاهده تأیید شده‌ها", "confirmed_requester")},
		[]telegram.Button{telegram.Btn("✏️ ویرایش اطلاعات", "edit_entry")},
		[]telegram.Button{telegram.Btn("🗑️ حذف ثبت‌نام", "remove_entry")},
		mainMenuRow())

	b.send(ctx, chatID, txt.String(), telegram.Keyboard(rows...))
}

func (b *Bot) showRequesterConfirmed(ctx context.Context, chatID, partyID int64) {
	r, err := b.requesters.GetByPartyID(ctx, partyID)
	if err != nil {
		return
	}
	funded, err := b.ledger.ListByRequester(ctx, r.ID, domain.PledgeFunded)
	if err != nil {
		b.log.Error().Err(err).Int64("requester_id", r.ID).Msg("list funded pledges failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := currencyLabel(r.Currency)
	var txt strings.Builder
	txt.WriteString("📜 حمایت‌های تأیید شده\n\n")
	if len(funded) == 0 {
		txt.WriteString("هنوز حمایت تأیید شده‌ای ندارید.")
	} else {
		for i, p := range funded {
			fmt.Fprintf(&txt, "%s%d) 💰 %s %s — %s\n\n",
				rlm, i+1, fmtAmount(p.Amount), cur, contactLink("پیام به حامی", p.BackerID, p.BackerHandle))
		}
	}
	b.send(ctx, chatID, txt.String(), telegram.Keyboard(backToStatusRow()))
}

// ── Pledge confirm / cancel from the requester's status screen ──

// requesterOwns loads a pledge and checks the acting party owns the
// request it points at.
func (b *Bot) requesterOwns(ctx context.Context, partyID, pledgeID int64) (*domain.Pledge, *domain.Requester, bool) {
	p, err := b.ledger.GetPledge(ctx, pledgeID)
	if err != nil {
		return nil, nil, false
	}
	r, err := b.requesters.GetByID(ctx, p.RequesterID)
	if err != nil || r.PartyID != partyID {
		return nil, nil, false
	}
	return p, r, true
}

func (b *Bot) handlePledgeConfirm(ctx context.Context, chatID, partyID, pledgeID int64) {
	p, r, ok := b.requesterOwns(ctx, partyID, pledgeID)
	if !ok {
		b.send(ctx, chatID, msgNotYourPledge, mainMenuKeyboard())
		return
	}

	requesterID, amount, err := b.ledger.Confirm(ctx, pledgeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			// already resolved from another screen; show fresh state
			b.showRequesterStatus(ctx, chatID, partyID)
			return
		}
		b.log.Error().Err(err).Int64("pledge_id", pledgeID).Msg("confirm pledge failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := currencyLabel(r.Currency)
	b.send(ctx, chatID, fmt.Sprintf("✅ حمایت #%d تأیید شد. (%s %s)", pledgeID, fmtAmount(amount), cur), nil)
	b.notify(ctx, p.BackerID,
		fmt.Sprintf("✅ مسافر #%d حمایت #%d شما را تأیید کرد.\n%sمبلغ: %s %s",
			requesterID, pledgeID, rlm, fmtAmount(amount), cur),
		telegram.Keyboard(
			[]telegram.Button{telegram.Btn("📋 وضعیت حامی", "status_backer")},
			mainMenuRow()))
	b.showRequesterStatus(ctx, chatID, partyID)
}

func (b *Bot) handlePledgeCancelRequester(ctx context.Context, chatID, partyID, pledgeID int64) {
	p, r, ok := b.requesterOwns(ctx, partyID, pledgeID)
	if !ok {
		b.send(ctx, chatID, msgNotYourPledge, mainMenuKeyboard())
		return
	}

	requesterID, amount, err := b.ledger.Cancel(ctx, pledgeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotPending) {
			b.showRequesterStatus(ctx, chatID, partyID)
			return
		}
		b.log.Error().Err(err).Int64("pledge_id", pledgeID).Msg("cancel pledge failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := currencyLabel(r.Currency)
	b.send(ctx, chatID, fmt.Sprintf("❌ حمایت #%d لغو شد. (%s %s)", pledgeID, fmtAmount(amount), cur), nil)
	b.notify(ctx, p.BackerID,
		fmt.Sprintf("❌ مسافر #%d حمایت #%d شما را لغو کرد.\n%sمبلغ: %s %s",
			requesterID, pledgeID, rlm, fmtAmount(amount), cur),
		telegram.Keyboard(
			[]telegram.Button{telegram.Btn("📋 وضعیت حامی", "status_backer")},
			mainMenuRow()))
	b.showRequesterStatus(ctx, chatID, partyID)
}

// ── Removal ──

func (b *Bot) handleRemoveEntry(ctx context.Context, chatID, partyID int64) {
	r, err := b.requesters.GetByPartyID(ctx, partyID)
	if err != nil {
		return
	}

	funded, err := b.ledger.ListByRequester(ctx, r.ID, domain.PledgeFunded)
	if err != nil {
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	if len(funded) > 0 {
		b.send(ctx, chatID,
			"⚠️ امکان حذف ثبت‌نام وجود ندارد.\nشما حمایت‌های تأیید شده دارید. می‌توانید اطلاعات خود را ویرایش کنید.",
			telegram.Keyboard(backToStatusRow()))
		return
	}

	pending, err := b.ledger.ListByRequester(ctx, r.ID, domain.PledgePending)
	if err != nil {
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}
	warning := "⚠️ آیا مطمئن هستید که می‌خواهید ثبت‌نام خود را حذف کنید؟\nاین عمل قابل بازگشت نیست."
	if len(pending) > 0 {
		warning += fmt.Sprintf("\n\n%d حمایت در انتظار تأیید دارید که به‌صورت خودکار لغو خواهند شد.", len(pending))
	}
	b.send(ctx, chatID, warning, telegram.Keyboard(
		[]telegram.Button{telegram.Btn("🗑️ بله، حذف کن", "confirm_remove")},
		backToStatusRow()))
}

func (b *Bot) handleConfirmRemove(ctx context.Context, chatID, partyID int64) {
	r, err := b.requesters.GetByPartyID(ctx, partyID)
	if err != nil {
		return
	}

	cancelled, err := b.ledger.DeleteRequester(ctx, r.ID)
	if err != nil {
		if errors.Is(err, domain.ErrHasFundedPledges) {
			b.send(ctx, chatID,
				"⚠️ امکان حذف ثبت‌نام وجود ندارد.\nشما حمایت‌های تأیید شده دارید.",
				telegram.Keyboard(backToStatusRow()))
			return
		}
		b.log.Error().Err(err).Int64("requester_id", r.ID).Msg("delete requester failed")
		b.send(ctx, chatID, msgError, mainMenuKeyboard())
		return
	}

	cur := currencyLabel(r.Currency)
	for _, p := range cancelled {
		b.notify(ctx, p.BackerID,
			fmt.Sprintf("❌ مسافر #%d ثبت‌نام خود را حذف کرد. حمایت #%d لغو شد.\n%sمبلغ: %s %s",
				r.ID, p.ID, rlm, fmtAmount(p.Amount), cur),
			telegram.Keyboard(
				[]telegram.Button{telegram.Btn("📋 وضعیت حامی", "status_backer")},
				mainMenuRow()))
	}

	b.log.Info().Int64("requester_id", r.ID).Int("cancelled", len(cancelled)).Msg("requester removed")
	b.intake.Reset(partyID)
	b.send(ctx, chatID, msgRemoved, mainMenuKeyboard())
}

// ── Settings ──

func (b *Bot) handleCheckSettings(ctx context.Context, chatID int64, from *telegram.User) {
	handle := handleFrom(from)
	if handle == "" {
		b.send(ctx, chatID, noSettingsText(), settingsKeyboard())
		return
	}

	// Keep a registered requester's stored handle current.
	if r, err := b.requesters.GetByPartyID(ctx, from.ID); err == nil && r.Handle != handle {
		if err := b.requesters.UpdateHandle(ctx, from.ID, handle); err != nil {
			b.log.Warn().Err(err).Int64("party_id", from.ID).Msg("update handle failed")
		}
	}

	b.send(ctx, chatID, settingsText(handle), settingsKeyboard())
}
