package lib

import (
	"testing"
)

func TestFirstConnectionAnnouncesOnline(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	watcher := &testConn{}
	api.Presences.Register(1, watcher)

	_, online := api.Presences.Register(2, &testConn{})
	if len(online) != 1 || online[0] != 1 {
		t.Fatal("Expected the new client's snapshot to contain user 1, got:", online)
	}
	events := watcher.events("presence")
	if len(events) != 1 {
		t.Fatal("Expected exactly one presence event, got:", len(events))
	}
	if events[0].Location != "/user/2" {
		t.Fatal("Unexpected location, got:", events[0].Location)
	}
	if !api.Presences.IsOnline(2) {
		t.Fatal("User 2 should be online")
	}
}

func TestSecondConnectionIsSilent(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	watcher := &testConn{}
	api.Presences.Register(1, watcher)

	first, _ := api.Presences.Register(2, &testConn{})
	second, _ := api.Presences.Register(2, &testConn{})
	if got := len(watcher.events("presence")); got != 1 {
		t.Fatal("A second connection for an online user re-announced presence; events:", got)
	}

	//Dropping one of two connections shouldn't mark them offline either.
	api.Presences.Unregister(first)
	if !api.Presences.IsOnline(2) {
		t.Fatal("User 2 went offline while still holding a connection")
	}
	if got := len(watcher.events("presence")); got != 1 {
		t.Fatal("Unregistering a non-final connection announced something; events:", got)
	}

	//Dropping the last one should.
	api.Presences.Unregister(second)
	if api.Presences.IsOnline(2) {
		t.Fatal("User 2 should be offline")
	}
	if got := len(watcher.events("presence")); got != 2 {
		t.Fatal("Expected an offline announcement, total presence events:", got)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	connID, _ := api.Presences.Register(1, &testConn{})
	api.Presences.Unregister(connID)
	api.Presences.Unregister(connID)
	if api.Presences.IsOnline(1) {
		t.Fatal("User 1 should be offline")
	}
}

func TestSendToOfflineUserIsDropped(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	//No connections at all: this must be a silent no-op.
	api.Presences.Send(42, []byte("{}"))
}

func TestDeadConnectionIsDroppedOnSend(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	dead := &testConn{fail: true}
	api.Presences.Register(7, dead)
	api.Presences.Send(7, []byte("{}"))
	if api.Presences.IsOnline(7) {
		t.Fatal("A connection that errors on send should have been unregistered")
	}
	if !dead.closed {
		t.Fatal("A dropped connection should be closed, not left dangling")
	}
}

func TestDeadConnectionIsDroppedOnBroadcast(t *testing.T) {
	api := newTestAPI(newTestStore(), &testBroker{})
	healthy := &testConn{}
	dead := &testConn{fail: true}
	api.Presences.Register(1, healthy)
	api.Presences.Register(7, dead)
	api.Presences.BroadcastAll([]byte("{}"))
	if api.Presences.IsOnline(7) {
		t.Fatal("User 7's only connection failed; they should be offline")
	}
	if !dead.closed {
		t.Fatal("A dropped connection should be closed, not left dangling")
	}
	if !api.Presences.IsOnline(1) {
		t.Fatal("The healthy connection shouldn't be touched")
	}
}
