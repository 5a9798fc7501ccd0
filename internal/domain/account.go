package domain

import "slices"

// Languages is the order the language setting cycles through.
var Languages = []string{"English", "Hindi", "Tamil"}

// NextLanguage returns the language after current, wrapping around. An
// unknown current value restarts the cycle.
func NextLanguage(current string) string {
	i := slices.Index(Languages, current)
	return Languages[(i+1)%len(Languages)]
}

// AccountAction is an entry of the account panel.
type AccountAction string

const (
	ActionManageDevices  AccountAction = "manage_devices"
	ActionEditProfile    AccountAction = "edit_profile"
	ActionSavedCards     AccountAction = "saved_cards"
	ActionSavedAddresses AccountAction = "saved_addresses"
	ActionLanguage       AccountAction = "language"
	ActionNotifications  AccountAction = "notifications"
	ActionPrivacy        AccountAction = "privacy"
	ActionReviews        AccountAction = "reviews"
	ActionQA             AccountAction = "qa"
	ActionSell           AccountAction = "sell"
	ActionTerms          AccountAction = "terms"
	ActionFAQs           AccountAction = "faqs"
)

// fixedNotices are actions that only acknowledge with a notice.
var fixedNotices = map[AccountAction]string{
	ActionManageDevices:  "1 active device connected",
	ActionEditProfile:    "Profile editor opened",
	ActionSavedCards:     "2 saved cards available",
	ActionSavedAddresses: "Saved addresses loaded",
	ActionPrivacy:        "Privacy controls opened",
	ActionReviews:        "No new reviews yet",
	ActionQA:             "No pending questions",
	ActionTerms:          "Terms, policies and licenses opened",
}

// FixedNotice returns the notice of an acknowledgement-only action.
func FixedNotice(a AccountAction) (string, bool) {
	text, ok := fixedNotices[a]
	return text, ok
}
