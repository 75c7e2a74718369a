package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

func init() {
	base.HandleFunc("/longpoll", longPollHandler)
	base.HandleFunc("/ws", wsHandler)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func longPollHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, err := authenticate(r)
	switch {
	case err != nil:
		jsonResponse(w, &EBADTOKEN, 400)
	case r.Method != "GET":
		jsonResponse(w, &EUNSUPPORTED, 405)
	default:
		//AwaitOneMessage will block until a message arrives over redis
		message := api.AwaitOneMessage(userID)
		w.Write(message)
	}
}

//errSendBufferFull means this client isn't draining its socket fast enough; we drop them rather than queue without bound.
var errSendBufferFull = errors.New("send buffer full")

//wsConnection adapts a websocket to the presence registry's Connection interface.
//Writes are pumped through a buffered channel so a slow reader never blocks a broadcast.
type wsConnection struct {
	ws   *websocket.Conn
	send chan []byte
	once sync.Once
}

func newWsConnection(ws *websocket.Conn) *wsConnection {
	return &wsConnection{ws: ws, send: make(chan []byte, 64)}
}

//Send queues a payload for delivery, erroring instead of blocking when the buffer is full.
func (c *wsConnection) Send(payload []byte) error {
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

//Close shuts the send channel down exactly once; the write pump closes the socket.
func (c *wsConnection) Close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func (c *wsConnection) writePump() {
	for payload := range c.send {
		err := c.ws.WriteMessage(websocket.TextMessage, payload)
		if err != nil {
			break
		}
	}
	c.ws.Close()
}

//clientAction is something a connected client can ask for mid-session.
type clientAction struct {
	Action       string            `json:"action"`
	Notification gp.NotificationID `json:"notification,omitempty"`
}

func wsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Couldn't upgrade connection:", err)
		return
	}
	conn := newWsConnection(ws)
	go conn.writePump()
	connID, online := api.Presences.Register(userID, conn)
	//The newly connected client gets the current online snapshot straight away.
	snapshot, _ := json.Marshal(gp.Event{Type: "online_list", Location: "/online", Data: online})
	conn.Send(snapshot)
	//Any exit from the read loop - graceful close or network drop - unregisters us.
	defer api.Presences.Unregister(connID)
	defer conn.Close()
	for {
		var action clientAction
		err := ws.ReadJSON(&action)
		if err != nil {
			return
		}
		switch action.Action {
		case "read":
			_, err = api.MarkNotificationRead(userID, action.Notification)
			if err != nil {
				log.Println("Couldn't mark notification read:", err)
			}
		}
	}
}
