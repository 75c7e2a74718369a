package lib

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/conf"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//testStore is an in-memory Store, standing in for MySQL.
type testStore struct {
	mu            sync.Mutex
	nextID        gp.NotificationID
	notifications []gp.Notification
	users         map[gp.UserID]gp.User
	profiles      []gp.Profile
	communities   map[gp.CommunityID]gp.Community
	members       map[gp.CommunityID][]gp.UserID
	presence      map[gp.UserID]bool
	createErr     error
	//When scanBlock is set, GetUsersWithInterests blocks until it's closed.
	scanBlock chan struct{}
}

func newTestStore() *testStore {
	return &testStore{
		users:       make(map[gp.UserID]gp.User),
		communities: make(map[gp.CommunityID]gp.Community),
		members:     make(map[gp.CommunityID][]gp.UserID),
		presence:    make(map[gp.UserID]bool),
	}
}

func (s *testStore) CreateNotification(ntype string, by gp.UserID, recipient gp.UserID, post gp.PostID, comment gp.CommentID, community gp.CommunityID, message string, metadata map[string]string) (notification gp.Notification, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return notification, s.createErr
	}
	s.nextID++
	notification = gp.Notification{
		ID:        s.nextID,
		Type:      ntype,
		Message:   message,
		Recipient: recipient,
		Time:      time.Now().UTC(),
		Post:      post,
		Comment:   comment,
		Community: community,
		Metadata:  metadata,
	}
	if by > 0 {
		notification.By = s.users[by]
	}
	s.notifications = append(s.notifications, notification)
	return notification, nil
}

func (s *testStore) GetUserNotifications(id gp.UserID, includeRead bool) (notifications []gp.Notification, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.Recipient == id && (includeRead || !n.Read) {
			notifications = append(notifications, n)
		}
	}
	return
}

func (s *testStore) MarkNotificationsSeen(id gp.UserID, upTo gp.NotificationID) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].Recipient == id && s.notifications[i].ID <= upTo {
			s.notifications[i].Seen = true
		}
	}
	return nil
}

func (s *testStore) MarkNotificationRead(id gp.UserID, notification gp.NotificationID) (updated gp.Notification, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].Recipient == id && s.notifications[i].ID == notification {
			s.notifications[i].Read = true
			s.notifications[i].Seen = true
			return s.notifications[i], nil
		}
	}
	return updated, gp.APIerror{Reason: "No such notification."}
}

func (s *testStore) DeleteExpiredNotifications(before time.Time) (count int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []gp.Notification
	for _, n := range s.notifications {
		if n.Time.Before(before) {
			count++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return
}

func (s *testStore) GetUser(id gp.UserID) (user gp.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return user, gp.ENOSUCHUSER
	}
	return user, nil
}

func (s *testStore) GetUsersWithInterests() (profiles []gp.Profile, err error) {
	if s.scanBlock != nil {
		<-s.scanBlock
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles, nil
}

func (s *testStore) GetCommunity(id gp.CommunityID) (community gp.Community, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	community, ok := s.communities[id]
	if !ok {
		return community, gp.APIerror{Reason: "No such community."}
	}
	return community, nil
}

func (s *testStore) GetCommunityMembers(id gp.CommunityID) (members []gp.UserID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[id], nil
}

func (s *testStore) SetPresence(id gp.UserID, online bool, at time.Time) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[id] = online
	return nil
}

func (s *testStore) GetToken(id gp.UserID, token string) (t gp.Token, err error) {
	if token != "TestingToken" {
		return t, gp.APIerror{Reason: "No such token."}
	}
	return gp.Token{UserID: id, Token: token, Expiry: time.Now().Add(time.Hour)}, nil
}

//testBroker records publishes and cached tokens instead of talking to redis.
type testBroker struct {
	mu           sync.Mutex
	published    []gp.Event
	queues       []gp.MsgQueue
	cachedTokens []gp.Token
	tokenValid   bool
}

func (b *testBroker) PublishEvent(etype string, where string, data interface{}, channels []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, gp.Event{Type: etype, Location: where, Data: data})
}

func (b *testBroker) EventSubscribe(subscriptions []string) (events gp.MsgQueue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	events = gp.MsgQueue{Commands: make(chan gp.QueueCommand, 1), Messages: make(chan []byte, 1)}
	b.queues = append(b.queues, events)
	return
}

func (b *testBroker) TokenExists(id gp.UserID, token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenValid
}

func (b *testBroker) PutToken(token gp.Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cachedTokens = append(b.cachedTokens, token)
}

func (b *testBroker) GetUser(id gp.UserID) (user gp.User, err error) {
	return user, gp.ENOSUCHUSER
}

func (b *testBroker) SetUser(user gp.User) {}

//testConn is a Connection which just remembers what it was sent.
type testConn struct {
	mu       sync.Mutex
	payloads [][]byte
	fail     bool
	closed   bool
}

func (c *testConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errTestConnDown
	}
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *testConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

var errTestConnDown = gp.APIerror{Reason: "connection down"}

//events decodes everything this connection has been sent, optionally filtered by type.
func (c *testConn) events(etype string) (events []gp.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, payload := range c.payloads {
		var event gp.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if etype == "" || event.Type == etype {
			events = append(events, event)
		}
	}
	return
}

func newTestAPI(store *testStore, broker *testBroker) (api *API) {
	api = new(API)
	api.db = store
	api.cache = broker
	api.Config = conf.Config{DevelopmentMode: true}
	api.Presences = newPresences(store, broker, api.statsd)
	return
}
