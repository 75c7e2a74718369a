package db

import (
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//NoSuchToken is returned when this user:token pair doesn't exist or has expired.
var NoSuchToken = gp.APIerror{Reason: "No such token."}

//GetToken returns this user's session token record, or NoSuchToken if it doesn't exist or has expired.
func (db *DB) GetToken(id gp.UserID, token string) (t gp.Token, err error) {
	s, err := db.prepare("SELECT expiry FROM tokens WHERE user_id = ? AND token = ?")
	if err != nil {
		return
	}
	var expiry string
	err = s.QueryRow(id, token).Scan(&expiry)
	if err != nil {
		return t, NoSuchToken
	}
	t.UserID = id
	t.Token = token
	t.Expiry, err = time.Parse(mysqlTime, expiry)
	if err != nil {
		return
	}
	if !t.Expiry.After(time.Now().UTC()) {
		return t, NoSuchToken
	}
	return t, nil
}
