package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

func init() {
	base.HandleFunc("/notifications", notificationHandler).Methods("PUT", "GET")
	base.HandleFunc("/notifications", unsupportedHandler)
	base.HandleFunc("/notifications/{id:[0-9]+}", markReadHandler).Methods("PUT")
	base.HandleFunc("/notifications/{id:[0-9]+}", unsupportedHandler)
}

func notificationHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	switch {
	case r.Method == "PUT":
		_upTo, err := strconv.ParseUint(r.FormValue("seen"), 10, 64)
		if err != nil {
			_upTo = 0
		}
		includeRead, _ := strconv.ParseBool(r.FormValue("include_read"))
		notificationID := gp.NotificationID(_upTo)
		err = api.MarkNotificationsSeen(userID, notificationID)
		if err != nil {
			jsonErr(w, err, 500)
			return
		}
		notifications, err := api.GetUserNotifications(userID, includeRead)
		if err != nil {
			jsonErr(w, err, 500)
		} else {
			jsonResponse(w, notifications, 200)
		}
	case r.Method == "GET":
		includeRead, _ := strconv.ParseBool(r.FormValue("include_read"))
		notifications, err := api.GetUserNotifications(userID, includeRead)
		if err != nil {
			jsonErr(w, err, 500)
		} else {
			jsonResponse(w, notifications, 200)
		}
	}
}

func markReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(r)
	if err != nil {
		jsonResponse(w, &EBADTOKEN, 400)
		return
	}
	vars := mux.Vars(r)
	_id, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		jsonResponse(w, &ENOTFOUND, 404)
		return
	}
	notification, err := api.MarkNotificationRead(userID, gp.NotificationID(_id))
	if err != nil {
		jsonErr(w, err, 404)
		return
	}
	jsonResponse(w, notification, 200)
}
