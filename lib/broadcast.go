package lib

import (
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/cache"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//BroadcastPostCounters publishes the authoritative counter snapshot for a post
//to every connected client, after the mutation layer has committed its write.
//The payload is the full snapshot the mutation handler saw, never a delta, so
//out-of-order delivery can only show a briefly stale value. Two concurrent
//read-modify-writes on the same post are serialized (or not) by the document
//store alone; this just republishes whatever each writer computed.
func (api *API) BroadcastPostCounters(post gp.PostID, counters gp.PostCounters) {
	update := gp.PostUpdateEvent{Post: post, Counters: counters, EmittedAt: time.Now().UTC()}
	api.Presences.BroadcastAll(marshalEvent("post_update", postURL(post), update))
	go api.cache.PublishEvent("post_update", postURL(post), update, []string{cache.PostChannelKey})
	api.statsd.Count(1, "realtime.broadcast.post")
}
