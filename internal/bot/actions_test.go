package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/intake"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"main_menu", Action{Kind: actMainMenu}},
		{"role_requester", Action{Kind: actRoleRequester}},
		{"role_backer", Action{Kind: actRoleBacker}},
		{"status_requester", Action{Kind: actStatusRequester}},
		{"confirmed_backer", Action{Kind: actConfirmedBacker}},
		{"heads_more", Action{Kind: actHeadsMore}},
		{"confirm_entry", Action{Kind: actConfirmEntry}},
		{"save_edit", Action{Kind: actSaveEdit}},
		{"remove_entry", Action{Kind: actRemoveEntry}},
		{"confirm_remove", Action{Kind: actConfirmRemove}},
		{"cancel_pick", Action{Kind: actCancelPick}},

		{"list_all_0", Action{Kind: actList, Page: 0}},
		{"list_all_7", Action{Kind: actList, Page: 7}},
		{"list_Los Angeles_2", Action{Kind: actList, Dest: domain.DestLosAngeles, Page: 2}},
		{"list_Munich_0", Action{Kind: actList, Dest: domain.DestMunich}},

		{"dest_Toronto", Action{Kind: actPickDest, Dest: domain.DestToronto}},
		{"heads_3", Action{Kind: actPickHeads, N: 3}},
		{"cur_EUR", Action{Kind: actPickCurrency, Currency: domain.CurrencyEUR}},
		{"edit_amount", Action{Kind: actEditField, Field: intake.FieldAmount}},
		{"back_currency", Action{Kind: actBack, Step: intake.StepCurrency}},

		{"proceed_fund_15", Action{Kind: actProceedFund, ID: 15}},
		{"full_amount_8", Action{Kind: actFullAmount, ID: 8}},
		{"pconfirm_21", Action{Kind: actPledgeConfirm, ID: 21}},
		{"pcancel_21", Action{Kind: actPledgeCancelRequester, ID: 21}},
		{"bcancel_33", Action{Kind: actPledgeCancelBacker, ID: 33}},
	}

	for _, tt := range tests {
		got, ok := ParseAction(tt.data)
		require.True(t, ok, "data %q", tt.data)
		assert.Equal(t, tt.want, got, "data %q", tt.data)
	}
}

func TestParseActionRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"unknown",
		"dest_Paris",
		"cur_BTC",
		"heads_0",
		"heads_-1",
		"heads_x",
		"list_Paris_0",
		"list_all_x",
		"list_all_-1",
		"list_noPage",
		"edit_unknown",
		"back_origin",
		"pconfirm_0",
		"pconfirm_abc",
		"full_amount_",
	} {
		_, ok := ParseAction(data)
		assert.False(t, ok, "data %q should not parse", data)
	}
}

func TestKeyboardsRoundTrip(t *testing.T) {
	// every button the bot emits must parse back into an action
	keyboards := []*telegram.ReplyMarkup{
		menuKeyboard(),
		settingsKeyboard(),
		destinationKeyboard(),
		headcountKeyboard(),
		currencyKeyboard(),
		confirmKeyboard(true),
		confirmKeyboard(false),
		backKeyboard(intake.StepOrigin),
		backKeyboard(intake.StepHeadcountText),
		backKeyboard(intake.StepAmount),
		backKeyboard(intake.StepMessage),
	}

	for _, kb := range keyboards {
		require.NotNil(t, kb)
		for _, row := range kb.InlineKeyboard {
			for _, b := range row {
				_, ok := ParseAction(b.CallbackData)
				assert.True(t, ok, "button data %q must parse", b.CallbackData)
			}
		}
	}
}
