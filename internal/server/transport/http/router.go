// Package http exposes the persistence services over a thin internal JSON
// API. The protocol frontends (SMTP, IMAP, auth) are its only intended
// clients; it performs no authentication of its own.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maildepot/maildepot/internal/logging"
	"github.com/maildepot/maildepot/internal/server/services"
)

type Handler struct {
	auth   *services.AuthService
	mail   *services.MailService
	logger logging.Logger
}

func NewRouter(auth *services.AuthService, mail *services.MailService, logger logging.Logger) http.Handler {
	h := &Handler{auth: auth, mail: mail, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", h.handleStore)
		r.Post("/messages/{messagenum}/copy", h.handleCopy)
		r.Post("/messages/{messagenum}/move", h.handleMove)

		r.Get("/credentials/{principal}", h.handleFetchCredentials)
		r.Post("/credentials/{usernum}/replace-legacy", h.handleReplaceLegacy)
		r.Post("/credentials/{usernum}/lock", h.handleSetLock)
	})

	return r
}
