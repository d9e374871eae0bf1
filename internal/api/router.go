package api

import (
	"net/http"
	"strings"
)

func NewRouter(h *Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", h.HandleReady)

	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandleCreateSession(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
		// /sessions/{id}/start | /click | /end | /events | /state | /worker-token
		path := strings.TrimSuffix(r.URL.Path, "/")
		rest := strings.TrimPrefix(path, "/sessions/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		id, tail := parts[0], parts[1]

		method := http.MethodPost
		var handle func(http.ResponseWriter, *http.Request, string)
		switch tail {
		case "start":
			handle = h.HandleStartSession
		case "click":
			handle = h.HandleClick
		case "end":
			handle = h.HandleEndSession
		case "worker-token":
			handle = h.HandleMintWorkerToken
		case "events":
			method, handle = http.MethodGet, h.HandleListEvents
		case "state":
			method, handle = http.MethodGet, h.HandleState
		default:
			http.NotFound(w, r)
			return
		}
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handle(w, r, id)
	})

	return mux
}
