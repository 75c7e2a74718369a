package lib

import (
	"strings"
	"testing"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

func interested(id gp.UserID, name string, interests ...string) gp.Profile {
	return gp.Profile{User: gp.User{ID: id, Name: name}, Interests: interests}
}

func recipients(store *testStore) (ids []gp.UserID) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, n := range store.notifications {
		ids = append(ids, n.Recipient)
	}
	return
}

func TestMatchUnion(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{
		interested(2, "alice", "policy"),
		interested(3, "bob", "sports"),
		interested(4, "carol", "News"),
	}
	api := newTestAPI(store, &testBroker{})

	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Title: "A post", Hashtags: []string{"AI", "Policy"}, Category: "news"})

	got := recipients(store)
	if len(got) != 2 {
		t.Fatal("Expected two matches, got:", got)
	}
	for _, id := range got {
		if id != 2 && id != 4 {
			t.Fatal("Unexpected recipient:", id)
		}
	}
}

func TestAuthorNeverNotifiesThemselves(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{interested(1, "patrick", "tech")}
	api := newTestAPI(store, &testBroker{})

	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Hashtags: []string{"tech"}})

	if got := recipients(store); len(got) != 0 {
		t.Fatal("The author was notified about their own post:", got)
	}
}

func TestCommunityScoping(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{
		interested(2, "alice", "tech"),
		interested(3, "bob", "tech"),
	}
	store.communities[9] = gp.Community{ID: 9, Name: "Gophers", Admin: 1}
	store.members[9] = []gp.UserID{3}
	api := newTestAPI(store, &testBroker{})

	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Title: "Generics", Hashtags: []string{"tech"}, Community: 9})

	got := recipients(store)
	if len(got) != 1 || got[0] != 3 {
		t.Fatal("Community scoping failed, recipients:", got)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.notifications[0].Message != "patrick posted in Gophers: Generics" {
		t.Fatal("Community posts should name the community:", store.notifications[0].Message)
	}
}

func TestFanoutAbandonedForMissingCommunity(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{interested(2, "alice", "tech")}
	api := newTestAPI(store, &testBroker{})

	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Hashtags: []string{"tech"}, Community: 9})

	if got := recipients(store); len(got) != 0 {
		t.Fatal("Fan-out ran against a community that doesn't exist:", got)
	}
}

func TestScanTimeoutAbandonsFanout(t *testing.T) {
	store := newTestStore()
	store.scanBlock = make(chan struct{})
	defer close(store.scanBlock)
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{interested(2, "alice", "tech")}
	api := newTestAPI(store, &testBroker{})
	api.Config.Fanout.ScanTimeoutSecs = 1

	done := make(chan struct{})
	go func() {
		api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Hashtags: []string{"tech"}})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Fan-out never gave up on a stuck candidate scan")
	}
	if got := recipients(store); len(got) != 0 {
		t.Fatal("Notifications appeared despite the abandoned scan:", got)
	}
}

func TestAnonymousWhistleFanout(t *testing.T) {
	store := newTestStore()
	store.profiles = []gp.Profile{
		interested(5, "x", "layoffs", "startups"),
		interested(6, "y", "sports"),
	}
	api := newTestAPI(store, &testBroker{})

	body := "Something is rotten in the state of Denmark, and the pay shows it"
	api.notifyInterested(gp.ContentItem{Post: 11, Hashtags: []string{"layoffs"}, Body: body})

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.notifications) != 1 {
		t.Fatal("Expected exactly one notification, got:", len(store.notifications))
	}
	n := store.notifications[0]
	if n.Recipient != 5 {
		t.Fatal("Wrong recipient:", n.Recipient)
	}
	if n.Type != gp.NotificationInterestMatch {
		t.Fatal("Wrong type:", n.Type)
	}
	if !strings.HasPrefix(n.Message, "Anonymous posted: ") {
		t.Fatal("Unexpected message:", n.Message)
	}
	snippet := strings.TrimPrefix(n.Message, "Anonymous posted: ")
	if len([]rune(snippet)) != 60 {
		t.Fatal("Snippet should be cut at 60 characters, got:", len([]rune(snippet)))
	}
	if !strings.HasPrefix(body, snippet) {
		t.Fatal("Snippet isn't a prefix of the body:", snippet)
	}
}

func TestTitleBeatsSnippet(t *testing.T) {
	item := gp.ContentItem{Title: "Short and sweet", Body: strings.Repeat("a", 100)}
	if got := titleOrSnippet(item); got != "Short and sweet" {
		t.Fatal("Expected the title, got:", got)
	}
}

func TestFanoutDeliversToOnlineRecipients(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{interested(2, "alice", "tech")}
	api := newTestAPI(store, &testBroker{})
	conn := &testConn{}
	api.Presences.Register(2, conn)

	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Title: "Hello", Hashtags: []string{"tech"}})

	if got := len(conn.events("notification")); got != 1 {
		t.Fatal("Expected one delivered notification, got:", got)
	}
}

func TestFanoutSwallowsStoreErrors(t *testing.T) {
	store := newTestStore()
	store.users[1] = gp.User{ID: 1, Name: "patrick"}
	store.profiles = []gp.Profile{interested(2, "alice", "tech")}
	store.createErr = gp.APIerror{Reason: "the database is on fire"}
	api := newTestAPI(store, &testBroker{})

	//Must not panic, must not propagate.
	api.notifyInterested(gp.ContentItem{Post: 10, AuthorID: 1, Hashtags: []string{"tech"}})

	if got := recipients(store); len(got) != 0 {
		t.Fatal("Notifications appeared despite a failing store:", got)
	}
}
