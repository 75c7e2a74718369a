package gp

//Community is a user-created group which posts may be scoped to.
type Community struct {
	ID    CommunityID `json:"id"`
	Name  string      `json:"name"`
	Admin UserID      `json:"admin,omitempty"`
}
