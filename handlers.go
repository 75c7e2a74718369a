package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/whistlepost/WhistlepostAPI/lib/gp"
)

var (
	//EBADTOKEN is returned when a client doesn't present valid credentials.
	EBADTOKEN = gp.APIerror{Reason: "Invalid credentials"}
	//EUNSUPPORTED is returned on any method the resource doesn't support.
	EUNSUPPORTED = gp.APIerror{Reason: "Method not supported"}
	//ENOTFOUND is the generic 404.
	ENOTFOUND = gp.APIerror{Reason: "404 not found"}
)

//authenticate checks the X-WP-Auth header ("<id>-<token>"), falling back to
//the id and token form values, against the session store.
func authenticate(r *http.Request) (userID gp.UserID, err error) {
	id, _ := strconv.ParseUint(r.FormValue("id"), 10, 64)
	token := r.FormValue("token")
	credentials := strings.SplitN(r.Header.Get("X-WP-Auth"), "-", 2)
	if len(credentials) == 2 {
		_id, er := strconv.ParseUint(credentials[0], 10, 64)
		if er == nil {
			id = _id
			token = credentials[1]
		}
	}
	userID = gp.UserID(id)
	success := api.ValidateToken(userID, token)
	if success {
		return userID, nil
	}
	return 0, &EBADTOKEN
}

func jsonResponse(w http.ResponseWriter, resp interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	marshaled, err := json.Marshal(resp)
	if err != nil {
		marshaled, _ = json.Marshal(gp.APIerror{Reason: err.Error()})
		w.WriteHeader(500)
		w.Write(marshaled)
	} else {
		w.WriteHeader(code)
		w.Write(marshaled)
	}
}

func jsonErr(w http.ResponseWriter, err error, code int) {
	switch err.(type) {
	case gp.APIerror:
		jsonResponse(w, err, code)
	case *gp.APIerror:
		jsonResponse(w, err, code)
	default:
		jsonResponse(w, gp.APIerror{Reason: err.Error()}, code)
	}
}

func unsupportedHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, &EUNSUPPORTED, 405)
}
