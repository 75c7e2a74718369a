package db

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//GetUserNotifications returns all the unread notifications for a given user, or the most recent page of all of them if includeRead is true.
func (db *DB) GetUserNotifications(id gp.UserID, includeRead bool) (notifications []gp.Notification, err error) {
	notifications = make([]gp.Notification, 0)
	notificationSelect := "SELECT id, type, message, time, `by`, post_id, comment_id, community_id, metadata, seen, `read` FROM notifications WHERE recipient = ? AND `read` = 0 ORDER BY `id` DESC"
	if includeRead {
		notificationSelect = "SELECT id, type, message, time, `by`, post_id, comment_id, community_id, metadata, seen, `read` FROM notifications WHERE recipient = ? ORDER BY `id` DESC LIMIT 0, 20"
	}
	s, err := db.prepare(notificationSelect)
	if err != nil {
		return
	}
	rows, err := s.Query(id)
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var notification gp.Notification
		var t string
		var by sql.NullInt64
		var postID, commentID, communityID sql.NullInt64
		var metadata sql.NullString
		if err = rows.Scan(&notification.ID, &notification.Type, &notification.Message, &t, &by, &postID, &commentID, &communityID, &metadata, &notification.Seen, &notification.Read); err != nil {
			return
		}
		notification.Recipient = id
		notification.Time, err = time.Parse(mysqlTime, t)
		if err != nil {
			return
		}
		if by.Valid {
			notification.By, err = db.GetUser(gp.UserID(by.Int64))
			if err != nil {
				log.Println(err)
				continue
			}
		}
		if postID.Valid {
			notification.Post = gp.PostID(postID.Int64)
		}
		if commentID.Valid {
			notification.Comment = gp.CommentID(commentID.Int64)
		}
		if communityID.Valid {
			notification.Community = gp.CommunityID(communityID.Int64)
		}
		if metadata.Valid && len(metadata.String) > 0 {
			if err = json.Unmarshal([]byte(metadata.String), &notification.Metadata); err != nil {
				log.Println("Bad notification metadata:", err)
				notification.Metadata = nil
				err = nil
			}
		}
		notifications = append(notifications, notification)
	}
	return
}

//MarkNotificationsSeen records that this user has seen all their notifications up to upTo.
func (db *DB) MarkNotificationsSeen(user gp.UserID, upTo gp.NotificationID) (err error) {
	s, err := db.prepare("UPDATE notifications SET seen = 1 WHERE recipient = ? AND id <= ?")
	if err != nil {
		return
	}
	_, err = s.Exec(user, upTo)
	return
}

//MarkNotificationRead flips the read flag on a single notification, if it belongs to this user, and returns the updated record.
func (db *DB) MarkNotificationRead(user gp.UserID, id gp.NotificationID) (notification gp.Notification, err error) {
	s, err := db.prepare("UPDATE notifications SET `read` = 1, seen = 1 WHERE recipient = ? AND id = ?")
	if err != nil {
		return
	}
	res, err := s.Exec(user, id)
	if err != nil {
		return
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return
	}
	if affected == 0 {
		return notification, NoSuchNotification
	}
	return db.getNotification(user, id)
}

//NoSuchNotification is returned when acting on a notification which doesn't exist or isn't yours.
var NoSuchNotification = gp.APIerror{Reason: "No such notification."}

func (db *DB) getNotification(user gp.UserID, id gp.NotificationID) (notification gp.Notification, err error) {
	s, err := db.prepare("SELECT id, type, message, time, `by`, post_id, comment_id, community_id, metadata, seen, `read` FROM notifications WHERE recipient = ? AND id = ?")
	if err != nil {
		return
	}
	var t string
	var by, postID, commentID, communityID sql.NullInt64
	var metadata sql.NullString
	err = s.QueryRow(user, id).Scan(&notification.ID, &notification.Type, &notification.Message, &t, &by, &postID, &commentID, &communityID, &metadata, &notification.Seen, &notification.Read)
	if err != nil {
		return
	}
	notification.Recipient = user
	notification.Time, err = time.Parse(mysqlTime, t)
	if err != nil {
		return
	}
	if by.Valid {
		notification.By, _ = db.GetUser(gp.UserID(by.Int64))
	}
	if postID.Valid {
		notification.Post = gp.PostID(postID.Int64)
	}
	if commentID.Valid {
		notification.Comment = gp.CommentID(commentID.Int64)
	}
	if communityID.Valid {
		notification.Community = gp.CommunityID(communityID.Int64)
	}
	if metadata.Valid && len(metadata.String) > 0 {
		json.Unmarshal([]byte(metadata.String), &notification.Metadata)
	}
	return
}

//CreateNotification records a notification of type ntype for recipient, "from" by (0 for anonymous / system), with optional post, comment, community and metadata.
func (db *DB) CreateNotification(ntype string, by gp.UserID, recipient gp.UserID, postID gp.PostID, commentID gp.CommentID, communityID gp.CommunityID, message string, metadata map[string]string) (notification gp.Notification, err error) {
	notificationInsert := "INSERT INTO notifications (type, message, time, `by`, recipient, post_id, comment_id, community_id, metadata) VALUES (?, ?, NOW(), ?, ?, ?, ?, ?, ?)"
	n := gp.Notification{
		Type:      ntype,
		Message:   message,
		Recipient: recipient,
		Time:      time.Now().UTC(),
	}
	if by > 0 {
		n.By, err = db.GetUser(by)
		if err != nil {
			return
		}
	}
	s, err := db.prepare(notificationInsert)
	if err != nil {
		return
	}
	var encoded []byte
	if len(metadata) > 0 {
		encoded, _ = json.Marshal(metadata)
		n.Metadata = metadata
	}
	res, err := s.Exec(ntype, message, nullableID(uint64(by)), recipient, nullableID(uint64(postID)), nullableID(uint64(commentID)), nullableID(uint64(communityID)), nullableString(encoded))
	if err != nil {
		return
	}
	id, iderr := res.LastInsertId()
	if iderr != nil {
		return n, iderr
	}
	n.ID = gp.NotificationID(id)
	n.Post = postID
	n.Comment = commentID
	n.Community = communityID
	return n, nil
}

//DeleteExpiredNotifications removes every notification created before "before", returning how many went.
func (db *DB) DeleteExpiredNotifications(before time.Time) (count int64, err error) {
	s, err := db.prepare("DELETE FROM notifications WHERE time < ?")
	if err != nil {
		return
	}
	res, err := s.Exec(before.UTC().Format(mysqlTime))
	if err != nil {
		return
	}
	count, err = res.RowsAffected()
	if err != nil {
		log.Println(err)
		err = nil
	}
	return
}

func nullableID(id uint64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
