package lib

import (
	"log"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/cache"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//EBADTYPE is returned when creating a notification of a type this core doesn't know.
var EBADTYPE = gp.APIerror{Reason: "Unknown notification type."}

//GetUserNotifications returns all unread notifications for this user, or the latest page of all of them if includeRead is true.
func (api *API) GetUserNotifications(id gp.UserID, includeRead bool) (notifications []gp.Notification, err error) {
	return api.db.GetUserNotifications(id, includeRead)
}

//MarkNotificationsSeen marks all notifications up to upTo seen for this user.
func (api *API) MarkNotificationsSeen(id gp.UserID, upTo gp.NotificationID) (err error) {
	return api.db.MarkNotificationsSeen(id, upTo)
}

//MarkNotificationRead flips the read flag on one of this user's notifications.
//Reading a notification over the wire never flips it; only this path does.
func (api *API) MarkNotificationRead(id gp.UserID, notification gp.NotificationID) (updated gp.Notification, err error) {
	return api.db.MarkNotificationRead(id, notification)
}

//CreateInteractionNotification creates and delivers a notification for a
//direct interaction - like, comment, reply, follow, the community membership
//lifecycle and the whistle review lifecycle. The recipient is already known
//(the post's author, the comment's parent author, the community admin...), so
//no audience computation happens. Persistence always happens; delivery is
//best-effort via the presence registry and pubsub.
func (api *API) CreateInteractionNotification(ntype string, by gp.UserID, recipient gp.UserID, post gp.PostID, comment gp.CommentID, community gp.CommunityID, metadata map[string]string) (notification gp.Notification, err error) {
	message, ok := api.renderMessage(ntype, by)
	if !ok {
		return notification, EBADTYPE
	}
	notification, err = api.db.CreateNotification(ntype, by, recipient, post, comment, community, message, metadata)
	if err != nil {
		return
	}
	api.deliverNotification(notification)
	return
}

//deliverNotification pushes a stored notification to its recipient's live
//connections and mirrors it onto their pubsub channel. If they're offline the
//push is silently dropped; the record is already durable and they'll see it
//on their next fetch.
func (api *API) deliverNotification(notification gp.Notification) {
	payload := marshalEvent("notification", "/notifications", notification)
	api.Presences.Send(notification.Recipient, payload)
	go api.cache.PublishEvent("notification", "/notifications", notification, []string{cache.NotificationChannelKey(notification.Recipient)})
	api.statsd.Count(1, "realtime.notifications.delivered")
}

func (api *API) renderMessage(ntype string, by gp.UserID) (message string, ok bool) {
	name := "Someone"
	if by > 0 {
		user, err := api.GetUser(by)
		if err != nil {
			log.Println("Couldn't fetch notification source user: ", err)
		} else {
			name = user.Name
		}
	}
	switch ntype {
	case gp.NotificationLike:
		return name + " liked your post", true
	case gp.NotificationComment:
		return name + " commented on your post", true
	case gp.NotificationReply:
		return name + " replied to your comment", true
	case gp.NotificationFollow:
		return name + " started following you", true
	case gp.NotificationCommunityRequest:
		return name + " asked to join your community", true
	case gp.NotificationCommunityApproved:
		return "Your request to join the community was approved", true
	case gp.NotificationCommunityRejected:
		return "Your request to join the community was rejected", true
	case gp.NotificationWhistlePending:
		return "Your whistle is pending review", true
	case gp.NotificationWhistleReview:
		return "Your whistle is under review", true
	case gp.NotificationWhistleApproved:
		return "Your whistle was approved", true
	case gp.NotificationWhistleRejected:
		return "Your whistle was rejected", true
	default:
		return "", false
	}
}

//SweepExpiredNotifications deletes notifications past their fixed expiry, once
//per interval, forever. The records are eligible for deletion 24h after
//creation; nothing else about them changes as they age.
func (api *API) SweepExpiredNotifications(interval time.Duration) {
	tick := time.Tick(interval)
	for range tick {
		count, err := api.db.DeleteExpiredNotifications(time.Now().Add(-gp.NotificationExpiry))
		if err != nil {
			log.Println("Notification sweep failed: ", err)
			continue
		}
		if count > 0 {
			log.Printf("Swept %d expired notifications\n", count)
		}
	}
}
