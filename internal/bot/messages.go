package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"safarbot/internal/domain"
	"safarbot/internal/intake"
)

// Directional marks keep mixed Persian/Latin lines rendering right.
const (
	rlm = "\u200f"
	lrm = "\u200e"
)

var destEmoji = map[domain.Destination]string{
	domain.DestLosAngeles: "🇺🇸",
	domain.DestToronto:    "🇨🇦",
	domain.DestMunich:     "🇩🇪",
}

var destLabels = map[domain.Destination]string{
	domain.DestLosAngeles: "لس‌آنجلس",
	domain.DestToronto:    "تورنتو",
	domain.DestMunich:     "مونیخ",
}

var currencyLabels = map[domain.Currency]string{
	domain.CurrencyUSD: "دلار آمریکا",
	domain.CurrencyCAD: "دلار کانادا",
	domain.CurrencyEUR: "یورو",
	domain.CurrencyGBP: "پوند",
}

func destLabel(d domain.Destination) string {
	if l, ok := destLabels[d]; ok {
		return l
	}
	return string(d)
}

func emoji(d domain.Destination) string {
	if e, ok := destEmoji[d]; ok {
		return e
	}
	return "🌍"
}

func currencyLabel(c domain.Currency) string {
	if l, ok := currencyLabels[c]; ok {
		return l
	}
	return string(c)
}

// fmtAmount renders a decimal without a pointless fractional part:
// whole amounts print bare, anything else keeps its cents.
func fmtAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String()
	}
	return d.String()
}

// contactLink renders a tappable deep link to the other party, with the
// handle alongside when one is set.
func contactLink(label string, partyID int64, handle string) string {
	link := fmt.Sprintf("%s: tg://user?id=%d", label, partyID)
	if handle != "" {
		return fmt.Sprintf("%s (%s)", link, handle)
	}
	return link
}

const msgWelcome = "🦁☀️ روز جهانی اقدام\n" +
	"در همبستگی با انقلاب شیر و خورشید در ایران\n" +
	"📅 ۱۴ فوریه ۲۰۲۶\n\n" +
	"🇺🇸 لس‌آنجلس  •  🇨🇦 تورنتو  •  🇩🇪 مونیخ\n\n" +
	"این ربات مسافرانی که برای شرکت در تظاهرات نیاز به کمک مالی دارند را با حامیان مالی متصل می‌کند.\n\n" +
	"🧳 مسافر — برای سفر به تظاهرات نیاز به کمک مالی دارید\n" +
	"💰 حامی — می‌خواهید هزینه سفر کسی را تأمین کنید\n\n" +
	"💡 توصیه: برای ارتباط بهتر، نام‌کاربری تلگرام خود را تنظیم کنید.\n\n" +
	"نقش خود را انتخاب کنید:"

const (
	msgError              = "خطایی رخ داد. لطفاً دوباره تلاش کنید."
	msgAlreadyRegistered  = "شما قبلاً ثبت‌نام کرده‌اید. برای مشاهده یا ویرایش اطلاعات، از «وضعیت مسافر» استفاده کنید."
	msgIncomplete         = "اطلاعات ناقص است. لطفاً دوباره شروع کنید."
	msgInvalidNumber      = "لطفاً یک عدد معتبر وارد کنید:"
	msgInvalidAmount      = "لطفاً یک مبلغ معتبر وارد کنید:"
	msgInvalidID          = "لطفاً شناسه معتبر وارد کنید:"
	msgRequesterNotFound  = "مسافر یافت نشد."
	msgUnknownRequesterID = "مسافر با این شناسه یافت نشد. لطفاً دوباره تلاش کنید:"
	msgSelfPledge         = "شما نمی‌توانید از سفر خودتان حمایت کنید."
	msgNotYourPledge      = "این حمایت متعلق به شما نیست."
	msgNotRegistered      = "شما به عنوان مسافر ثبت‌نام نکرده‌اید."
	msgUpdated            = "✅ اطلاعات شما بروزرسانی شد."
	msgRemoved            = "🗑️ ثبت‌نام شما حذف شد."
	msgStatusChooser      = "برای مشاهده وضعیت، از دکمه‌های زیر استفاده کنید:"
	msgEnterHeadcount     = "تعداد مسافران را وارد کنید:"
	msgNoneFound          = "مسافری یافت نشد."
	msgNoFundingNeeded    = "این مسافر نیاز مالی باقیمانده‌ای ندارد."
	msgNoPledgesYet       = "شما هنوز حمایتی ثبت نکرده‌اید."
)

// Wizard prompts, one per step.
const (
	msgAskDestination = "📍 مرحله ۱ از ۶ — شهر تظاهرات\n\nکدام شهر را برای شرکت در تظاهرات انتخاب می‌کنید؟"
	msgAskOrigin      = "📍 مرحله ۲ از ۶ — شهر مبدأ\n\nاز کجا سفر می‌کنید؟ نام شهر و کشور خود را بنویسید:"
	msgAskHeadcount   = "📍 مرحله ۳ از ۶ — تعداد مسافران\n\nچند نفر با هم سفر می‌کنید؟ (مبلغ درخواستی باید کل گروه را پوشش دهد)"
	msgAskCurrency    = "📍 مرحله ۴ از ۶ — واحد پول\n\nمبلغ مورد نیاز خود را با کدام ارز می‌خواهید اعلام کنید؟"
	msgAskAmount      = "📍 مرحله ۵ از ۶ — مبلغ مورد نیاز\n\nکل مبلغی که برای سفر نیاز دارید را وارد کنید (بلیط، اقامت، غذا و ...):"
	msgAskMessage     = "📍 مرحله ۶ از ۶ — پیام به حامیان\n\nاین پیام را حامیان مالی می‌بینند. برنامه سفر و نحوه استفاده از کمک مالی را توضیح دهید:"
)

func confirmText(f *intake.Form) string {
	header := "📋 اطلاعات شما:"
	if f.EditingID != 0 {
		header = "✏️ ویرایش اطلاعات:"
	}
	var b strings.Builder
	b.WriteString(header + "\n\n")
	fmt.Fprintf(&b, "%s🏙️ تظاهرات: %s %s\n", rlm, emoji(f.Destination), destLabel(f.Destination))
	fmt.Fprintf(&b, "%s📍 مبدأ: %s\n", rlm, f.Origin)
	fmt.Fprintf(&b, "%s👥 تعداد مسافران: %d نفر\n", rlm, f.Headcount)
	fmt.Fprintf(&b, "%s💰 مبلغ: %s %s\n", rlm, fmtAmount(f.Amount), currencyLabel(f.Currency))
	fmt.Fprintf(&b, "📝 پیام: %s", f.Message)
	return b.String()
}

func registeredText(id int64, f *intake.Form) string {
	var b strings.Builder
	b.WriteString("✅ ثبت‌نام با موفقیت انجام شد!\n\n")
	fmt.Fprintf(&b, "%sشناسه شما: %d\n", rlm, id)
	fmt.Fprintf(&b, "%sمسیر: %s%s به %s %s\n", rlm, f.Origin, rlm, emoji(f.Destination), destLabel(f.Destination))
	fmt.Fprintf(&b, "%s👥 تعداد: %d نفر\n", rlm, f.Headcount)
	fmt.Fprintf(&b, "%sمبلغ: %s %s\n\n", rlm, fmtAmount(f.Amount), currencyLabel(f.Currency))
	b.WriteString("درخواست شما در لیست مسافران قرار گرفت. وقتی حامی‌ای تصمیم به کمک بگیرد، پیامی از طرف ربات دریافت خواهید کرد.\n")
	b.WriteString("از منوی «📋 وضعیت مسافر» می‌توانید وضعیت خود را پیگیری کنید.")
	return b.String()
}

func listEntryText(r *domain.Requester) string {
	return fmt.Sprintf("%s [ID: %d] %s به %s%s\n%s   %s👥%s %d نفر - %s💰%s %s %s",
		rlm, r.ID, r.Origin, destLabel(r.Destination), emoji(r.Destination),
		rlm, lrm, lrm, r.Headcount, lrm, lrm, fmtAmount(r.Remaining()), currencyLabel(r.Currency))
}

func requesterDetailText(r *domain.Requester) string {
	cur := currencyLabel(r.Currency)
	var b strings.Builder
	fmt.Fprintf(&b, "📋 مشخصات مسافر #%d\n\n", r.ID)
	fmt.Fprintf(&b, "%s🏙️ تظاهرات: %s %s\n", rlm, emoji(r.Destination), destLabel(r.Destination))
	fmt.Fprintf(&b, "%s📍 مبدأ: %s\n", rlm, r.Origin)
	fmt.Fprintf(&b, "%s👥 تعداد مسافران: %d نفر\n", rlm, r.Headcount)
	fmt.Fprintf(&b, "%s💰 مبلغ مورد نیاز: %s %s\n", rlm, fmtAmount(r.AmountNeeded), cur)
	fmt.Fprintf(&b, "%s✅ تأمین شده: %s %s\n", rlm, fmtAmount(r.FundedAmount), cur)
	fmt.Fprintf(&b, "%s⏳ در انتظار تأیید: %s %s\n", rlm, fmtAmount(r.PendingAmount), cur)
	fmt.Fprintf(&b, "%s📊 باقیمانده: %s %s\n", rlm, fmtAmount(r.Remaining()), cur)
	fmt.Fprintf(&b, "📝 پیام: %s", r.Message)
	return b.String()
}

func noSettingsText() string {
	return "⚠️ نام‌کاربری تنظیم نشده است\n\n" +
		"بدون نام‌کاربری، طرف مقابل فقط از طریق لینک مستقیم می‌تواند با شما ارتباط بگیرد.\n\n" +
		"نحوه تنظیم:\n" +
		"۱. به تنظیمات تلگرام بروید\n" +
		"۲. روی «نام‌کاربری» (Username) بزنید\n" +
		"۳. یک نام‌کاربری انتخاب کنید\n" +
		"۴. برگردید و دکمه «بررسی مجدد» را بزنید"
}

func settingsText(handle string) string {
	return fmt.Sprintf("✅ تنظیمات شما:\n\nنام‌کاربری: %s\n\n"+
		"نام‌کاربری شما به طرف مقابل نمایش داده می‌شود تا بتوانند مستقیماً با شما ارتباط بگیرند.", handle)
}
