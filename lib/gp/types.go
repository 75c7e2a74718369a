//Package gp contains the core datatypes in Whistlepost.
package gp

import "time"

//UserID is self explanatory.
type UserID uint64

//PostID uniquely identifies a post (whistles are a subset of posts).
type PostID uint64

//CommentID identifies a comment on a post.
type CommentID uint64

//CommunityID identifies a community.
type CommunityID uint64

//User is the basic user representation, containing their unique ID, their handle and their profile image.
type User struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"profile_image,omitempty"`
}

//Profile is the fuller representation of a user, adding their declared interest tags.
type Profile struct {
	User
	Interests []string `json:"interests,omitempty"`
}

//Token is a whistlepost access token.
type Token struct {
	UserID UserID    `json:"id"`
	Token  string    `json:"value"`
	Expiry time.Time `json:"expiry"`
}

//APIerror is a JSON-ready error the API can hand back to clients.
type APIerror struct {
	Reason string `json:"error"`
}

//Error - implements the error interface.
func (e APIerror) Error() string {
	return e.Reason
}

//ENOSUCHUSER is the error that should be returned when performing some action against a non-existent user.
var ENOSUCHUSER = APIerror{Reason: "No such user."}

//MsgQueue will deliver you a bunch of json-encoded things (internal events or messages sent to the user) through MsgQueue.Messages.
//You can stop listening by sending QueueCommand{"UNSUBSCRIBE", nil} and after a little while the Messages chan should close.
type MsgQueue struct {
	Commands chan QueueCommand
	Messages chan []byte
}

//QueueCommand represents a command to be sent to the message queue. It's sent as is, so never expose this to API clients!
type QueueCommand struct {
	Command string
	Value   []string
}

//Event represents something that happened which a consumer of a MsgQueue wants to hear about in real time.
//It has a type, a location (typically a resource) and a json payload.
type Event struct {
	Type     string      `json:"type"`
	Location string      `json:"location,omitempty"`
	Data     interface{} `json:"data"`
}
