package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//Client consumes the gateway's websocket stream for one user, routing counter
//broadcasts and presence snapshots into its Reconciler and surfacing
//notifications on the Notifications channel.
type Client struct {
	ws *websocket.Conn
	//Reconciler holds the pending counter updates for the UI to pull.
	Reconciler *Reconciler
	//Notifications delivers this user's incoming notifications. When nobody's
	//listening they're dropped; the records are durable server-side anyway.
	Notifications chan gp.Notification
	online        map[gp.UserID]bool
}

type wireEvent struct {
	Type     string          `json:"type"`
	Location string          `json:"location"`
	Data     json.RawMessage `json:"data"`
}

type presenceUpdate struct {
	UserID gp.UserID `json:"user"`
	Online bool      `json:"online"`
	At     time.Time `json:"at"`
}

//Dial connects to the gateway's /ws endpoint as this user and starts consuming.
func Dial(url string, id gp.UserID, token string) (c *Client, err error) {
	header := make(http.Header)
	header.Set("X-WP-Auth", fmt.Sprintf("%d-%s", id, token))
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return
	}
	c = &Client{
		ws:            ws,
		Reconciler:    NewReconciler(),
		Notifications: make(chan gp.Notification, 64),
		online:        make(map[gp.UserID]bool),
	}
	go c.readLoop()
	return
}

//MarkRead asks the gateway to flip the read flag on one of our notifications.
func (c *Client) MarkRead(id gp.NotificationID) error {
	return c.ws.WriteJSON(struct {
		Action       string            `json:"action"`
		Notification gp.NotificationID `json:"notification"`
	}{Action: "read", Notification: id})
}

//Close says goodbye and tears the connection down.
func (c *Client) Close() error {
	c.ws.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
	return c.ws.Close()
}

func (c *Client) readLoop() {
	defer close(c.Notifications)
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	var event wireEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Println("Couldn't parse event:", err)
		return
	}
	switch event.Type {
	case "post_update":
		var update gp.PostUpdateEvent
		if err := json.Unmarshal(event.Data, &update); err != nil {
			log.Println("Couldn't parse post update:", err)
			return
		}
		c.Reconciler.ApplyPostUpdate(update)
	case "online_list":
		var users []gp.UserID
		if err := json.Unmarshal(event.Data, &users); err != nil {
			log.Println("Couldn't parse online list:", err)
			return
		}
		c.online = make(map[gp.UserID]bool)
		for _, user := range users {
			c.online[user] = true
		}
		c.Reconciler.ApplyPresenceList(c.onlineList())
	case "presence":
		var update presenceUpdate
		if err := json.Unmarshal(event.Data, &update); err != nil {
			log.Println("Couldn't parse presence change:", err)
			return
		}
		if update.Online {
			c.online[update.UserID] = true
		} else {
			delete(c.online, update.UserID)
		}
		c.Reconciler.ApplyPresenceList(c.onlineList())
	case "notification":
		var notification gp.Notification
		if err := json.Unmarshal(event.Data, &notification); err != nil {
			log.Println("Couldn't parse notification:", err)
			return
		}
		select {
		case c.Notifications <- notification:
		default:
		}
	}
}

func (c *Client) onlineList() (users []gp.UserID) {
	for user := range c.online {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return
}
