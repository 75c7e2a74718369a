package db

import (
	"database/sql"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

/********************************************************************
		User
********************************************************************/

//GetUser returns the user with this ID, or gp.ENOSUCHUSER if they don't exist.
func (db *DB) GetUser(id gp.UserID) (user gp.User, err error) {
	s, err := db.prepare("SELECT id, name, avatar FROM users WHERE id = ?")
	if err != nil {
		return
	}
	var av sql.NullString
	err = s.QueryRow(id).Scan(&user.ID, &user.Name, &av)
	if err == sql.ErrNoRows {
		return user, gp.ENOSUCHUSER
	}
	if av.Valid {
		user.Avatar = av.String
	}
	return
}

//GetUsersWithInterests returns every user who has declared at least one interest tag.
//This is a full-pool scan: there's no index from tag to user, the matching happens in the fan-out engine.
func (db *DB) GetUsersWithInterests() (profiles []gp.Profile, err error) {
	q := "SELECT u.id, u.name, u.avatar, i.interest " +
		"FROM users u INNER JOIN user_interests i ON i.user_id = u.id " +
		"ORDER BY u.id"
	s, err := db.prepare(q)
	if err != nil {
		return
	}
	rows, err := s.Query()
	if err != nil {
		return
	}
	defer rows.Close()
	var current *gp.Profile
	for rows.Next() {
		var id gp.UserID
		var name, interest string
		var av sql.NullString
		if err = rows.Scan(&id, &name, &av, &interest); err != nil {
			return
		}
		if current == nil || current.ID != id {
			profiles = append(profiles, gp.Profile{User: gp.User{ID: id, Name: name, Avatar: av.String}})
			current = &profiles[len(profiles)-1]
		}
		current.Interests = append(current.Interests, interest)
	}
	err = rows.Err()
	return
}

//SetPresence records whether this user is reachable right now, and when we last saw them.
func (db *DB) SetPresence(id gp.UserID, online bool, at time.Time) (err error) {
	s, err := db.prepare("UPDATE users SET online = ?, last_seen = ? WHERE id = ?")
	if err != nil {
		return
	}
	_, err = s.Exec(online, at.UTC().Format(mysqlTime), id)
	return
}
