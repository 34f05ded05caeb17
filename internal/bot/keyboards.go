package bot

import (
	"fmt"

	"safarbot/internal/bot/telegram"
	"safarbot/internal/domain"
	"safarbot/internal/intake"
	"safarbot/internal/matching"
)

func mainMenuRow() []telegram.Button {
	return []telegram.Button{telegram.Btn("🔙 منوی اصلی", "main_menu")}
}

func backToStatusRow() []telegram.Button {
	return []telegram.Button{telegram.Btn("🔙 بازگشت", "status_requester")}
}

func menuKeyboard() *telegram.ReplyMarkup {
	return telegram.Keyboard(
		[]telegram.Button{telegram.Btn("🧳 من مسافر هستم", "role_requester")},
		[]telegram.Button{telegram.Btn("💰 من حامی هستم", "role_backer")},
		[]telegram.Button{
			telegram.Btn("📋 وضعیت مسافر", "status_requester"),
			telegram.Btn("📋 وضعیت حامی", "status_backer"),
		},
		[]telegram.Button{telegram.Btn("⚙️ بررسی تنظیمات", "check_settings")},
	)
}

func settingsKeyboard() *telegram.ReplyMarkup {
	return telegram.Keyboard(
		[]telegram.Button{telegram.Btn("🔄 بررسی مجدد", "check_settings")},
		mainMenuRow(),
	)
}

func destinationKeyboard() *telegram.ReplyMarkup {
	row := make([]telegram.Button, 0, len(domain.Destinations))
	for _, d := range domain.Destinations {
		row = append(row, telegram.Btn(emoji(d)+" "+destLabel(d), "dest_"+string(d)))
	}
	return telegram.Keyboard(row)
}

func headcountKeyboard() *telegram.ReplyMarkup {
	small := make([]telegram.Button, 0, 4)
	for n := 1; n <= 4; n++ {
		small = append(small, telegram.Btn(fmt.Sprintf("%d", n), fmt.Sprintf("heads_%d", n)))
	}
	return telegram.Keyboard(
		small,
		[]telegram.Button{telegram.Btn("۵+", "heads_more")},
	)
}

func currencyKeyboard() *telegram.ReplyMarkup {
	buttons := make([]telegram.Button, 0, len(domain.Currencies))
	for _, c := range domain.Currencies {
		buttons = append(buttons, telegram.Btn(currencyLabel(c), "cur_"+string(c)))
	}
	return telegram.Keyboard(buttons[:2], buttons[2:])
}

func backKeyboard(step intake.Step) *telegram.ReplyMarkup {
	var target string
	switch step {
	case intake.StepOrigin:
		target = "back_destination"
	case intake.StepHeadcountText:
		target = "back_headcount"
	case intake.StepAmount:
		target = "back_currency"
	case intake.StepMessage:
		target = "back_amount"
	default:
		return nil
	}
	return telegram.Keyboard([]telegram.Button{telegram.Btn("🔙 بازگشت", target)})
}

func confirmKeyboard(editing bool) *telegram.ReplyMarkup {
	rows := [][]telegram.Button{
		{telegram.Btn("✏️ شهر تظاهرات", "edit_destination"), telegram.Btn("✏️ مبدأ", "edit_origin")},
		{telegram.Btn("✏️ تعداد", "edit_headcount"), telegram.Btn("✏️ واحد پول", "edit_currency")},
		{telegram.Btn("✏️ مبلغ", "edit_amount"), telegram.Btn("✏️ پیام", "edit_message")},
	}
	if editing {
		rows = append(rows,
			[]telegram.Button{telegram.Btn("✅ ذخیره تغییرات", "save_edit")},
			backToStatusRow())
	} else {
		rows = append(rows, []telegram.Button{telegram.Btn("✅ تأیید و ثبت", "confirm_entry")})
	}
	return telegram.Keyboard(rows...)
}

func mainMenuKeyboard() *telegram.ReplyMarkup {
	return telegram.Keyboard(mainMenuRow())
}

func listKeyboard(dest domain.Destination, page *matching.Page) *telegram.ReplyMarkup {
	filterRow := make([]telegram.Button, 0, len(domain.Destinations)+1)
	for _, d := range domain.Destinations {
		label := destEmoji[d]
		if dest == d {
			label = "✓ " + label
		}
		filterRow = append(filterRow, telegram.Btn(label, fmt.Sprintf("list_%s_0", d)))
	}
	allLabel := "همه"
	if dest == "" {
		allLabel = "✓ همه"
	}
	filterRow = append(filterRow, telegram.Btn(allLabel, "list_all_0"))

	rows := [][]telegram.Button{filterRow}

	destPart := "all"
	if dest != "" {
		destPart = string(dest)
	}
	var navRow []telegram.Button
	if page.HasPrev() {
		navRow = append(navRow, telegram.Btn("⬅️ قبلی", fmt.Sprintf("list_%s_%d", destPart, page.Number-1)))
	}
	if page.HasNext() {
		navRow = append(navRow, telegram.Btn("بعدی ➡️", fmt.Sprintf("list_%s_%d", destPart, page.Number+1)))
	}
	if len(navRow) > 0 {
		rows = append(rows, navRow)
	}
	rows = append(rows, mainMenuRow())
	return telegram.Keyboard(rows...)
}
