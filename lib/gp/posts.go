package gp

import "time"

//PostCounters is a (possibly partial) snapshot of a post's interaction counters.
//A nil field means this snapshot doesn't carry that counter; it is not zero.
type PostCounters struct {
	Likes    *int `json:"likes,omitempty"`
	Shares   *int `json:"shares,omitempty"`
	Comments *int `json:"comments,omitempty"`
	Reposts  *int `json:"reposts,omitempty"`
}

//PostUpdateEvent is the payload broadcast to every connected client after an interaction mutation commits.
//It carries the authoritative counter values the mutation handler saw after its own write, never a delta,
//so late or re-ordered delivery can only show a briefly stale value, not a wrong one.
type PostUpdateEvent struct {
	Post      PostID       `json:"post"`
	Counters  PostCounters `json:"counters"`
	EmittedAt time.Time    `json:"emitted_at"`
}

//ContentItem describes a freshly created post or whistle, as handed to the fan-out engine by the mutation layer.
//AuthorID 0 means the content is anonymous.
type ContentItem struct {
	Post      PostID      `json:"post"`
	AuthorID  UserID      `json:"author,omitempty"`
	Title     string      `json:"title,omitempty"`
	Body      string      `json:"body,omitempty"`
	Hashtags  []string    `json:"hashtags,omitempty"`
	Category  string      `json:"category,omitempty"`
	Community CommunityID `json:"community,omitempty"`
}
