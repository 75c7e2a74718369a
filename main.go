//package WhistlepostAPI is the realtime core of whistlepost.com: the socket
//gateway, presence tracking and notification fan-out behind the REST API.
package main

import (
	"net/http"
	_ "net/http/pprof"
	"runtime"

	"github.com/gorilla/mux"
	"github.com/whistlepost/WhistlepostAPI/lib"
	"github.com/whistlepost/WhistlepostAPI/lib/conf"
)

var (
	r    = mux.NewRouter()
	base = r.PathPrefix("/api/{version}").Subrouter()
	api  *lib.API
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	config := conf.GetConfig()
	api = lib.New(*config)
	api.Start()
	server := &http.Server{
		Addr:    ":" + config.Port,
		Handler: r,
	}
	server.ListenAndServe()
}
