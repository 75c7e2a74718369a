package cache

import (
	"fmt"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//PostChannelKey is the global channel every post-counter snapshot is published on.
const PostChannelKey = "posts"

//NotificationChannelKey returns the channel used for this user's notifications.
func NotificationChannelKey(id gp.UserID) (channel string) {
	return fmt.Sprintf("n:%d", id)
}

//PresenceChannelKey returns the channel this user's online/offline transitions are published on.
func PresenceChannelKey(id gp.UserID) (channel string) {
	return fmt.Sprintf("presence:%d", id)
}
