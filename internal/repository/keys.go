package repository

import "fmt"

// Record keys. The names are the browser storage keys the site has always used,
// so an exported dump can be imported as is.
const (
	KeyUsers        = "sunset_users"
	KeySession      = "sunset_admin_session"
	KeyEventData    = "sunset_event_data"
	KeyPurchases    = "sunset_purchases"
	KeyPastEvent    = "sunset_past_event"
	KeySocialMedia  = "sunset_social_media"
	KeyUpdateScript = "sunset_update_script"

	PrefixUserTickets = "sunset_tickets_"
)

// KeyUserTickets is the legacy per-user ticket list. It is only read by the
// ledger migration.
func KeyUserTickets(userID int64) string {
	return fmt.Sprintf("%s%d", PrefixUserTickets, userID)
}

// ChannelSiteChanged is the pub/sub channel for site and ticket notifications.
func ChannelSiteChanged() string {
	return "sunset:v1:site:changed"
}
