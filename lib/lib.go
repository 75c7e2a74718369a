//Package lib is the realtime core of Whistlepost: presence tracking,
//interaction broadcast and interest-based notification fan-out.
package lib

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/peterbourgon/g2s"
	"github.com/whistlepost/WhistlepostAPI/lib/cache"
	"github.com/whistlepost/WhistlepostAPI/lib/conf"
	"github.com/whistlepost/WhistlepostAPI/lib/db"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//Store is the narrow persistence contract the realtime core consumes.
//The CRUD layer owns posts, comments, users and communities; the core only
//touches the slices of them listed here.
type Store interface {
	CreateNotification(ntype string, by gp.UserID, recipient gp.UserID, post gp.PostID, comment gp.CommentID, community gp.CommunityID, message string, metadata map[string]string) (gp.Notification, error)
	GetUserNotifications(id gp.UserID, includeRead bool) ([]gp.Notification, error)
	MarkNotificationsSeen(id gp.UserID, upTo gp.NotificationID) error
	MarkNotificationRead(id gp.UserID, notification gp.NotificationID) (gp.Notification, error)
	DeleteExpiredNotifications(before time.Time) (int64, error)
	GetUser(id gp.UserID) (gp.User, error)
	GetUsersWithInterests() ([]gp.Profile, error)
	GetCommunity(id gp.CommunityID) (gp.Community, error)
	GetCommunityMembers(id gp.CommunityID) ([]gp.UserID, error)
	SetPresence(id gp.UserID, online bool, at time.Time) error
	GetToken(id gp.UserID, token string) (gp.Token, error)
}

//Broker mirrors events onto pubsub, for longpoll consumers and anything else
//listening off-process, and fronts the volatile caches.
type Broker interface {
	PublishEvent(etype string, where string, data interface{}, channels []string)
	EventSubscribe(subscriptions []string) gp.MsgQueue
	TokenExists(id gp.UserID, token string) bool
	PutToken(token gp.Token)
	GetUser(id gp.UserID) (gp.User, error)
	SetUser(user gp.User)
}

//API contains all the realtime core's behaviour.
type API struct {
	db        Store
	cache     Broker
	Presences *Presences
	statsd    PrefixStatter
	Config    conf.Config
}

//New constructs an API wired to MySQL, redis and statsd according to config.
func New(config conf.Config) (api *API) {
	api = new(API)
	api.Config = config
	api.db = db.New(config.Mysql)
	api.cache = cache.New(config.Redis)
	if len(config.Statsd) > 0 {
		statter, err := g2s.Dial("udp", config.Statsd)
		if err != nil {
			log.Println("Couldn't reach statsd: ", err)
		} else {
			api.statsd = PrefixStatter{statter: statter, DevelopmentMode: config.DevelopmentMode}
		}
	}
	api.Presences = newPresences(api.db, api.cache, api.statsd)
	return
}

//Start kicks off the API's background tasks.
func (api *API) Start() {
	if !api.Config.Fanout.SweepDisabled {
		interval := time.Duration(api.Config.Fanout.SweepIntervalMins) * time.Minute
		if interval <= 0 {
			interval = time.Hour
		}
		go api.SweepExpiredNotifications(interval)
	}
}

//ValidateToken returns true if this id:token pair is a valid session.
//Hits the cache first; a cache miss falls through to the database, and a db
//hit re-caches the token (with its real expiry) for the next request.
func (api *API) ValidateToken(id gp.UserID, token string) bool {
	if api.cache.TokenExists(id, token) {
		return true
	}
	t, err := api.db.GetToken(id, token)
	if err != nil {
		return false
	}
	api.cache.PutToken(t)
	return true
}

//GetUser returns the user with this id, from the cache when possible.
func (api *API) GetUser(id gp.UserID) (user gp.User, err error) {
	user, err = api.cache.GetUser(id)
	if err != nil {
		user, err = api.db.GetUser(id)
		if err == nil {
			api.cache.SetUser(user)
		}
	}
	return
}

//AwaitOneMessage blocks until an event arrives for this user, or gives back an
//empty object after 60s so longpollers re-poll. Either way the pubsub
//subscription is torn down before returning.
func (api *API) AwaitOneMessage(userID gp.UserID) (resp []byte) {
	q := api.cache.EventSubscribe([]string{cache.NotificationChannelKey(userID), cache.PostChannelKey})
	defer func() {
		q.Commands <- gp.QueueCommand{Command: "UNSUBSCRIBE"}
	}()
	select {
	case resp = <-q.Messages:
		return
	case <-time.After(60 * time.Second):
		return []byte("{}")
	}
}

func userURL(userID gp.UserID) (url string) {
	return fmt.Sprintf("/user/%d", userID)
}

func postURL(postID gp.PostID) (url string) {
	return fmt.Sprintf("/posts/%d", postID)
}

func marshalEvent(etype string, where string, data interface{}) []byte {
	event := gp.Event{Type: etype, Location: where, Data: data}
	encoded, _ := json.Marshal(event)
	return encoded
}
