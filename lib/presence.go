package lib

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/whistlepost/WhistlepostAPI/lib/cache"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//Connection is one live client socket the registry can push to.
//Send must not block indefinitely; returning an error drops the connection.
type Connection interface {
	Send(payload []byte) error
	Close()
}

//Presences tracks which users are reachable for push delivery right now.
//A user with at least one live connection is online; they go offline when
//their last connection closes. All state is in-memory and per-process.
type Presences struct {
	mu    sync.RWMutex
	conns map[gp.UserID]map[string]Connection
	users map[string]gp.UserID
	db    Store
	cache Broker
	stats PrefixStatter
}

type presenceEvent struct {
	UserID gp.UserID `json:"user"`
	Online bool      `json:"online"`
	At     time.Time `json:"at"`
}

func newPresences(db Store, cache Broker, stats PrefixStatter) *Presences {
	return &Presences{
		conns: make(map[gp.UserID]map[string]Connection),
		users: make(map[string]gp.UserID),
		db:    db,
		cache: cache,
		stats: stats,
	}
}

//Register associates a connection with this user. If it's their first live
//connection it announces them online to everyone else; either way it returns
//the snapshot of other currently online users for the new client.
func (p *Presences) Register(userID gp.UserID, conn Connection) (connID string, online []gp.UserID) {
	connID = uuid.New().String()
	p.mu.Lock()
	first := len(p.conns[userID]) == 0
	if p.conns[userID] == nil {
		p.conns[userID] = make(map[string]Connection)
	}
	p.conns[userID][connID] = conn
	p.users[connID] = userID
	for id := range p.conns {
		if id != userID {
			online = append(online, id)
		}
	}
	p.mu.Unlock()
	if first {
		p.announce(userID, true)
	}
	p.stats.Count(1, "realtime.presence.register")
	return
}

//Unregister drops a connection. When the user's last connection goes, they're
//announced offline. Idempotent, and called from the gateway's deferred
//cleanup so network drops count as well as graceful closes.
func (p *Presences) Unregister(connID string) {
	p.mu.Lock()
	userID, ok := p.users[connID]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.users, connID)
	delete(p.conns[userID], connID)
	last := len(p.conns[userID]) == 0
	if last {
		delete(p.conns, userID)
	}
	p.mu.Unlock()
	if last {
		p.announce(userID, false)
	}
}

//IsOnline returns true if this user has at least one live connection.
func (p *Presences) IsOnline(userID gp.UserID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

//staleConn is a connection whose Send failed; it gets dropped entirely.
type staleConn struct {
	id   string
	conn Connection
}

//Send pushes payload to all of this user's live connections, best-effort.
//If they have none the payload is silently dropped; there's no queue and no retry.
//A connection whose write fails is unregistered and closed, so its client sees
//the disconnect and can reconnect rather than sit on a half-dead socket.
func (p *Presences) Send(userID gp.UserID, payload []byte) {
	p.mu.RLock()
	var stale []staleConn
	for connID, conn := range p.conns[userID] {
		if err := conn.Send(payload); err != nil {
			stale = append(stale, staleConn{id: connID, conn: conn})
		}
	}
	p.mu.RUnlock()
	p.drop(stale)
}

//BroadcastAll pushes payload to every live connection, regardless of user.
func (p *Presences) BroadcastAll(payload []byte) {
	p.broadcastExcept(0, payload)
}

func (p *Presences) broadcastExcept(except gp.UserID, payload []byte) {
	p.mu.RLock()
	var stale []staleConn
	for userID, conns := range p.conns {
		if userID == except {
			continue
		}
		for connID, conn := range conns {
			if err := conn.Send(payload); err != nil {
				stale = append(stale, staleConn{id: connID, conn: conn})
			}
		}
	}
	p.mu.RUnlock()
	p.drop(stale)
}

func (p *Presences) drop(stale []staleConn) {
	for _, s := range stale {
		p.Unregister(s.id)
		s.conn.Close()
	}
}

//announce broadcasts an online/offline transition to everyone else, mirrors it
//onto pubsub and fire-and-forgets the durable presence flags. A failed write
//never blocks or fails the connection lifecycle.
func (p *Presences) announce(userID gp.UserID, online bool) {
	event := presenceEvent{UserID: userID, Online: online, At: time.Now().UTC()}
	p.broadcastExcept(userID, marshalEvent("presence", userURL(userID), event))
	go p.cache.PublishEvent("presence", userURL(userID), event, []string{cache.PresenceChannelKey(userID)})
	go func() {
		if err := p.db.SetPresence(userID, online, event.At); err != nil {
			log.Println("Couldn't persist presence change: ", err)
		}
	}()
}
