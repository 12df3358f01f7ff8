package api

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/incidents", h.Incidents)
	mux.HandleFunc("GET /v1/outbox/{topic}", h.OutboxRead)
	mux.HandleFunc("GET /healthz", h.Health)
	return mux
}
