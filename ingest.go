package main

import (
	"encoding/json"
	"net/http"

	"github.com/whistlepost/WhistlepostAPI/lib"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

//The ingest endpoints are the boundary with the CRUD controllers: after a
//mutation commits, the controller hands the realtime core a small descriptor
//here and gets its acknowledgement immediately. Broadcast and fan-out outcome
//never affect these responses, let alone the original end-user request.

func init() {
	base.HandleFunc("/broadcast/post", broadcastPostHandler).Methods("POST")
	base.HandleFunc("/broadcast/post", unsupportedHandler)
	base.HandleFunc("/fanout/content", fanoutContentHandler).Methods("POST")
	base.HandleFunc("/fanout/content", unsupportedHandler)
	base.HandleFunc("/fanout/direct", fanoutDirectHandler).Methods("POST")
	base.HandleFunc("/fanout/direct", unsupportedHandler)
}

type postCountersUpdate struct {
	Post     gp.PostID       `json:"post"`
	Counters gp.PostCounters `json:"counters"`
}

func broadcastPostHandler(w http.ResponseWriter, r *http.Request) {
	_, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	var update postCountersUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.Post == 0 {
		jsonResponse(w, gp.APIerror{Reason: "Missing parameter: post"}, 400)
		return
	}
	api.BroadcastPostCounters(update.Post, update.Counters)
	jsonResponse(w, struct{}{}, 202)
}

func fanoutContentHandler(w http.ResponseWriter, r *http.Request) {
	_, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	var item gp.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil || item.Post == 0 {
		jsonResponse(w, gp.APIerror{Reason: "Missing parameter: post"}, 400)
		return
	}
	api.NotifyInterested(item)
	jsonResponse(w, struct{}{}, 202)
}

type directNotification struct {
	Type      string            `json:"type"`
	By        gp.UserID         `json:"by,omitempty"`
	Recipient gp.UserID         `json:"recipient"`
	Post      gp.PostID         `json:"post,omitempty"`
	Comment   gp.CommentID      `json:"comment,omitempty"`
	Community gp.CommunityID    `json:"community,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func fanoutDirectHandler(w http.ResponseWriter, r *http.Request) {
	_, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	var direct directNotification
	if err := json.NewDecoder(r.Body).Decode(&direct); err != nil || direct.Recipient == 0 {
		jsonResponse(w, gp.APIerror{Reason: "Missing parameter: recipient"}, 400)
		return
	}
	notification, err := api.CreateInteractionNotification(direct.Type, direct.By, direct.Recipient, direct.Post, direct.Comment, direct.Community, direct.Metadata)
	if err != nil {
		if err == lib.EBADTYPE {
			jsonErr(w, err, 400)
			return
		}
		jsonErr(w, err, 500)
		return
	}
	jsonResponse(w, notification, 201)
}
