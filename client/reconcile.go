//Package client is the Whistlepost client-side reconciliation layer: it
//consumes the gateway's broadcast stream and keeps the freshest known post
//counters ready for the UI to pull, without a re-render per socket event.
package client

import (
	"sync"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//The fixed windows. Counter events are debounced so a burst for one post
//collapses into a single state update; presence snapshots are throttled to at
//most one update per window; anything older than the staleness window is
//discarded rather than applied over fresher UI state.
const (
	defaultDebounce  = 100 * time.Millisecond
	defaultThrottle  = 500 * time.Millisecond
	defaultStaleness = 5 * time.Second
)

type entry struct {
	counters gp.PostCounters
	at       time.Time
}

//Reconciler merges incoming broadcast events into per-post pending updates.
//All methods are safe for concurrent use; pulls are synchronous and local.
type Reconciler struct {
	mu      sync.Mutex
	pending map[gp.PostID]*entry
	staged  map[gp.PostID]*entry
	timers  map[gp.PostID]*time.Timer
	commits map[gp.PostID]int

	online       []gp.UserID
	stagedOnline []gp.UserID
	onlineTimer  *time.Timer
	lastOnlineAt time.Time

	debounce  time.Duration
	throttle  time.Duration
	staleness time.Duration
	now       func() time.Time
}

//NewReconciler builds a Reconciler with the standard windows.
func NewReconciler() *Reconciler {
	return &Reconciler{
		pending:   make(map[gp.PostID]*entry),
		staged:    make(map[gp.PostID]*entry),
		timers:    make(map[gp.PostID]*time.Timer),
		commits:   make(map[gp.PostID]int),
		debounce:  defaultDebounce,
		throttle:  defaultThrottle,
		staleness: defaultStaleness,
		now:       time.Now,
	}
}

//ApplyPostUpdate merges a broadcast counter snapshot into the pending record
//for its post. Fields the event doesn't carry are left untouched; within the
//debounce window repeated events collapse into one state update, last value
//winning per field.
func (r *Reconciler) ApplyPostUpdate(update gp.PostUpdateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.staged[update.Post]
	if st == nil {
		st = &entry{}
		r.staged[update.Post] = st
	}
	mergeCounters(&st.counters, update.Counters)
	st.at = update.EmittedAt
	if st.at.IsZero() {
		st.at = r.now()
	}
	if timer, ok := r.timers[update.Post]; ok {
		timer.Reset(r.debounce)
		return
	}
	post := update.Post
	r.timers[post] = time.AfterFunc(r.debounce, func() {
		r.commit(post)
	})
}

func (r *Reconciler) commit(post gp.PostID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, post)
	st := r.staged[post]
	if st == nil {
		return
	}
	delete(r.staged, post)
	e := r.pending[post]
	if e == nil {
		r.pending[post] = st
	} else {
		mergeCounters(&e.counters, st.counters)
		e.at = st.at
	}
	r.commits[post]++
}

//GetPendingUpdate returns the freshest pending counters for a post, if any.
//An entry older than the staleness window reports no update and is cleared -
//a delayed event must never visually undo a fresher value. A successful pull
//also clears the entry: pulling twice without a new event yields nothing the
//second time.
func (r *Reconciler) GetPendingUpdate(post gp.PostID) (counters gp.PostCounters, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.pending[post]
	if e == nil {
		return
	}
	delete(r.pending, post)
	if r.now().Sub(e.at) > r.staleness {
		return
	}
	return e.counters, true
}

//ClearPendingUpdate discards any pending or in-flight update for a post.
func (r *Reconciler) ClearPendingUpdate(post gp.PostID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, post)
	delete(r.staged, post)
	if timer, ok := r.timers[post]; ok {
		timer.Stop()
		delete(r.timers, post)
	}
}

//ApplyPresenceList replaces the known online-user set, throttled: however many
//snapshots arrive, the visible set changes at most once per throttle window.
func (r *Reconciler) ApplyPresenceList(users []gp.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedOnline = append([]gp.UserID(nil), users...)
	now := r.now()
	if now.Sub(r.lastOnlineAt) >= r.throttle {
		r.online = r.stagedOnline
		r.lastOnlineAt = now
		return
	}
	if r.onlineTimer == nil {
		r.onlineTimer = time.AfterFunc(r.throttle-now.Sub(r.lastOnlineAt), r.commitOnline)
	}
}

func (r *Reconciler) commitOnline() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onlineTimer = nil
	r.online = r.stagedOnline
	r.lastOnlineAt = r.now()
}

//OnlineUsers returns the last committed online-user set.
func (r *Reconciler) OnlineUsers() []gp.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gp.UserID(nil), r.online...)
}

//mergeCounters overlays src onto dst, field-wise; nil src fields leave dst alone.
func mergeCounters(dst *gp.PostCounters, src gp.PostCounters) {
	if src.Likes != nil {
		dst.Likes = src.Likes
	}
	if src.Shares != nil {
		dst.Shares = src.Shares
	}
	if src.Comments != nil {
		dst.Comments = src.Comments
	}
	if src.Reposts != nil {
		dst.Reposts = src.Reposts
	}
}
