package gp

import "time"

//NotificationID identifies a whistlepost notification, eg "John Smith commented on your post!"
type NotificationID uint64

//The notification types a user may receive.
const (
	NotificationLike              = "like"
	NotificationComment           = "comment"
	NotificationReply             = "reply"
	NotificationFollow            = "follow"
	NotificationCommunityRequest  = "community_request"
	NotificationCommunityApproved = "community_approved"
	NotificationCommunityRejected = "community_rejected"
	NotificationWhistlePending    = "whistle_pending"
	NotificationWhistleReview     = "whistle_review"
	NotificationWhistleApproved   = "whistle_approved"
	NotificationWhistleRejected   = "whistle_rejected"
	NotificationInterestMatch     = "interest_match"
)

//NotificationExpiry is how long a notification lives before the background sweep may delete it.
const NotificationExpiry = 24 * time.Hour

//Notification is a whistlepost notification which a user may receive based on other users' actions.
//Time drives the fixed expiry after which the record is eligible for deletion.
type Notification struct {
	ID        NotificationID    `json:"id"`
	Recipient UserID            `json:"-"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Time      time.Time         `json:"time"`
	By        User              `json:"user,omitempty"`
	Post      PostID            `json:"post,omitempty"`
	Comment   CommentID         `json:"comment,omitempty"`
	Community CommunityID       `json:"community,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Seen      bool              `json:"seen"`
	Read      bool              `json:"read"`
}
