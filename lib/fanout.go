package lib

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

const snippetLength = 60

//NotifyInterested computes the audience for a freshly created content item and
//delivers one interest_match notification per matched user. Fire-and-forget:
//it returns before any work happens, and nothing that goes wrong in here is
//ever surfaced to the request that created the content. A partial fan-out
//(some recipients notified, some not) is terminal; there are no retries.
func (api *API) NotifyInterested(item gp.ContentItem) {
	go func() {
		start := time.Now()
		defer api.statsd.Time(start, "realtime.fanout.duration")
		api.notifyInterested(item)
	}()
}

func (api *API) notifyInterested(item gp.ContentItem) {
	candidates, err := api.scanCandidates()
	if err != nil {
		log.Println("Fan-out abandoned: ", err)
		return
	}
	api.statsd.Count(len(candidates), "realtime.fanout.candidates")
	var communityName string
	if item.Community > 0 {
		community, err := api.db.GetCommunity(item.Community)
		if err != nil {
			log.Println("Fan-out abandoned: ", err)
			return
		}
		communityName = community.Name
		members, err := api.db.GetCommunityMembers(item.Community)
		if err != nil {
			log.Println("Fan-out abandoned: ", err)
			return
		}
		candidates = membersOnly(candidates, members)
	}
	matched := matchCandidates(candidates, item)
	api.statsd.Count(len(matched), "realtime.fanout.matched")
	if len(matched) == 0 {
		return
	}
	message := api.renderInterestMatch(item, communityName)
	var wg sync.WaitGroup
	for _, recipient := range matched {
		wg.Add(1)
		go func(recipient gp.UserID) {
			defer wg.Done()
			notification, err := api.db.CreateNotification(gp.NotificationInterestMatch, item.AuthorID, recipient, item.Post, 0, item.Community, message, nil)
			if err != nil {
				log.Println("Couldn't create interest notification: ", err)
				return
			}
			api.deliverNotification(notification)
		}(recipient)
	}
	wg.Wait()
}

//scanCandidates fetches every user with a declared interest. There's no
//inverted tag index; the whole pool is scanned on each content creation.
//Config.Fanout.ScanTimeoutSecs soft-bounds the scan: on expiry this fan-out is
//abandoned, but the triggering request was never waiting anyway.
func (api *API) scanCandidates() (candidates []gp.Profile, err error) {
	timeout := time.Duration(api.Config.Fanout.ScanTimeoutSecs) * time.Second
	if timeout <= 0 {
		return api.db.GetUsersWithInterests()
	}
	type result struct {
		profiles []gp.Profile
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		profiles, err := api.db.GetUsersWithInterests()
		ch <- result{profiles: profiles, err: err}
	}()
	select {
	case r := <-ch:
		return r.profiles, r.err
	case <-time.After(timeout):
		return nil, gp.APIerror{Reason: "candidate scan timed out"}
	}
}

func membersOnly(candidates []gp.Profile, members []gp.UserID) (scoped []gp.Profile) {
	in := make(map[gp.UserID]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	for _, c := range candidates {
		if in[c.ID] {
			scoped = append(scoped, c)
		}
	}
	return
}

//matchCandidates selects every candidate whose interests intersect the item's
//hashtags, or contain its category, case-insensitively. The author never
//matches their own content; anonymous items (no author) skip that exclusion.
func matchCandidates(candidates []gp.Profile, item gp.ContentItem) (matched []gp.UserID) {
	hashtags := make(map[string]bool, len(item.Hashtags))
	for _, h := range item.Hashtags {
		hashtags[strings.ToLower(h)] = true
	}
	category := strings.ToLower(item.Category)
	for _, candidate := range candidates {
		if item.AuthorID > 0 && candidate.ID == item.AuthorID {
			continue
		}
		for _, interest := range candidate.Interests {
			interest = strings.ToLower(interest)
			if hashtags[interest] || (len(category) > 0 && interest == category) {
				matched = append(matched, candidate.ID)
				break
			}
		}
	}
	return
}

func (api *API) renderInterestMatch(item gp.ContentItem, communityName string) (message string) {
	displayName := "Anonymous"
	if item.AuthorID > 0 {
		author, err := api.GetUser(item.AuthorID)
		if err != nil {
			log.Println("Couldn't fetch author for fan-out preview: ", err)
		} else {
			displayName = author.Name
		}
	}
	if len(communityName) > 0 {
		return displayName + " posted in " + communityName + ": " + titleOrSnippet(item)
	}
	return displayName + " posted: " + titleOrSnippet(item)
}

func titleOrSnippet(item gp.ContentItem) string {
	if len(item.Title) > 0 {
		return item.Title
	}
	body := []rune(item.Body)
	if len(body) > snippetLength {
		return string(body[:snippetLength])
	}
	return item.Body
}
