package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) routes(h routeHandlers) http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.logMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.MethodFunc(http.MethodPost, "/incidents", s.withIdentity(h.incidents.Create))
	r.MethodFunc(http.MethodGet, "/incidents", h.incidents.List)
	r.MethodFunc(http.MethodGet, "/incidents/{id}", h.incidents.Get)
	r.MethodFunc(http.MethodPut, "/incidents/{id}", s.withIdentity(h.incidents.Update))

	r.MethodFunc(http.MethodPut, "/incidents/{id}/attachments", s.withIdentity(h.attachments.Create))
	r.MethodFunc(http.MethodGet, "/incidents/{id}/attachments", s.withIdentity(h.attachments.List))
	r.MethodFunc(http.MethodGet, "/incidents/{id}/attachments/{attachment_id}", s.withIdentity(h.attachments.Get))

	r.MethodFunc(http.MethodPost, "/users", h.users.Create)
	r.MethodFunc(http.MethodPut, "/users", h.users.Update)

	return r
}
