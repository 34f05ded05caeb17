package bot

import (
	"strconv"
	"strings"

	"safarbot/internal/domain"
	"safarbot/internal/intake"
)

// ActionKind tags one parsed callback-button action.
type ActionKind int

const (
	actNone ActionKind = iota
	actMainMenu
	actCheckSettings
	actRoleRequester
	actRoleBacker
	actStatusRequester
	actStatusBacker
	actConfirmedRequester
	actConfirmedBacker
	actList         // Dest ("" = all) + Page
	actPickDest     // Dest
	actPickHeads    // N
	actHeadsMore    // switch to free-text headcount
	actPickCurrency // Currency
	actEditField    // Field
	actBack         // Step
	actConfirmEntry
	actSaveEdit
	actEditEntry
	actRemoveEntry
	actConfirmRemove
	actProceedFund // ID = requester
	actFullAmount  // ID = requester
	actCancelPick
	actPledgeConfirm         // ID = pledge, requester side
	actPledgeCancelRequester // ID = pledge, requester side
	actPledgeCancelBacker    // ID = pledge, backer side
)

// Action is one decoded callback payload.
type Action struct {
	Kind     ActionKind
	Dest     domain.Destination
	Page     int
	ID       int64
	N        int
	Currency domain.Currency
	Field    intake.Field
	Step     intake.Step
}

var fixedActions = map[string]ActionKind{
	"main_menu":           actMainMenu,
	"check_settings":      actCheckSettings,
	"role_requester":      actRoleRequester,
	"role_backer":         actRoleBacker,
	"status_requester":    actStatusRequester,
	"status_backer":       actStatusBacker,
	"confirmed_requester": actConfirmedRequester,
	"confirmed_backer":    actConfirmedBacker,
	"heads_more":          actHeadsMore,
	"confirm_entry":       actConfirmEntry,
	"save_edit":           actSaveEdit,
	"edit_entry":          actEditEntry,
	"remove_entry":        actRemoveEntry,
	"confirm_remove":      actConfirmRemove,
	"cancel_pick":         actCancelPick,
}

var editFields = map[string]intake.Field{
	"destination": intake.FieldDestination,
	"origin":      intake.FieldOrigin,
	"headcount":   intake.FieldHeadcount,
	"currency":    intake.FieldCurrency,
	"amount":      intake.FieldAmount,
	"message":     intake.FieldMessage,
}

var backSteps = map[string]intake.Step{
	"destination": intake.StepDestination,
	"headcount":   intake.StepHeadcount,
	"currency":    intake.StepCurrency,
	"amount":      intake.StepAmount,
}

// ParseAction decodes callback data. Unknown or malformed payloads come
// back false and are ignored; stale buttons from old messages are
// normal, not errors.
func ParseAction(data string) (Action, bool) {
	if kind, ok := fixedActions[data]; ok {
		return Action{Kind: kind}, true
	}

	if rest, ok := strings.CutPrefix(data, "list_"); ok {
		// Destinations contain spaces and underscores never appear in
		// them, but the page suffix is split from the right anyway.
		i := strings.LastIndex(rest, "_")
		if i < 0 {
			return Action{}, false
		}
		page, err := strconv.Atoi(rest[i+1:])
		if err != nil || page < 0 {
			return Action{}, false
		}
		destPart := rest[:i]
		if destPart == "all" {
			return Action{Kind: actList, Page: page}, true
		}
		dest := domain.Destination(destPart)
		if !dest.Valid() {
			return Action{}, false
		}
		return Action{Kind: actList, Dest: dest, Page: page}, true
	}

	if rest, ok := strings.CutPrefix(data, "dest_"); ok {
		dest := domain.Destination(rest)
		if !dest.Valid() {
			return Action{}, false
		}
		return Action{Kind: actPickDest, Dest: dest}, true
	}

	if rest, ok := strings.CutPrefix(data, "heads_"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return Action{}, false
		}
		return Action{Kind: actPickHeads, N: n}, true
	}

	if rest, ok := strings.CutPrefix(data, "cur_"); ok {
		cur := domain.Currency(rest)
		if !cur.Valid() {
			return Action{}, false
		}
		return Action{Kind: actPickCurrency, Currency: cur}, true
	}

	if rest, ok := strings.CutPrefix(data, "edit_"); ok {
		field, ok := editFields[rest]
		if !ok {
			return Action{}, false
		}
		return Action{Kind: actEditField, Field: field}, true
	}

	if rest, ok := strings.CutPrefix(data, "back_"); ok {
		step, ok := backSteps[rest]
		if !ok {
			return Action{}, false
		}
		return Action{Kind: actBack, Step: step}, true
	}

	for prefix, kind := range map[string]ActionKind{
		"proceed_fund_": actProceedFund,
		"full_amount_":  actFullAmount,
		"pconfirm_":     actPledgeConfirm,
		"pcancel_":      actPledgeCancelRequester,
		"bcancel_":      actPledgeCancelBacker,
	} {
		if rest, ok := strings.CutPrefix(data, prefix); ok {
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil || id <= 0 {
				return Action{}, false
			}
			return Action{Kind: kind, ID: id}, true
		}
	}

	return Action{}, false
}
