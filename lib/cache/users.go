package cache

import (
	"encoding/json"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//SetUser caches this user's basic representation.
func (c *Cache) SetUser(user gp.User) {
	conn := c.pool.Get()
	defer conn.Close()
	key := fmt.Sprintf("users:%d", user.ID)
	encoded, _ := json.Marshal(user)
	conn.Send("SETEX", key, 3600, encoded)
	conn.Flush()
}

//GetUser returns this user from the cache, if they're there.
func (c *Cache) GetUser(id gp.UserID) (user gp.User, err error) {
	conn := c.pool.Get()
	defer conn.Close()
	key := fmt.Sprintf("users:%d", id)
	encoded, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		return
	}
	err = json.Unmarshal(encoded, &user)
	return
}
