package db

import (
	"database/sql"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//NoSuchCommunity is returned when acting against a community which doesn't exist.
var NoSuchCommunity = gp.APIerror{Reason: "No such community."}

//GetCommunity returns this community's record, including its admin.
func (db *DB) GetCommunity(id gp.CommunityID) (community gp.Community, err error) {
	s, err := db.prepare("SELECT id, name, admin FROM communities WHERE id = ?")
	if err != nil {
		return
	}
	err = s.QueryRow(id).Scan(&community.ID, &community.Name, &community.Admin)
	if err == sql.ErrNoRows {
		return community, NoSuchCommunity
	}
	return
}

//GetCommunityMembers returns the ids of everyone in this community.
func (db *DB) GetCommunityMembers(id gp.CommunityID) (members []gp.UserID, err error) {
	s, err := db.prepare("SELECT user_id FROM community_members WHERE community_id = ?")
	if err != nil {
		return
	}
	rows, err := s.Query(id)
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var member gp.UserID
		if err = rows.Scan(&member); err != nil {
			return
		}
		members = append(members, member)
	}
	err = rows.Err()
	return
}
