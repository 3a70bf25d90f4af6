package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api/respond"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/services"
)

type UserHandler struct {
	svc   *services.UserService
	ident auth.Extractor
	log   zerolog.Logger
}

func NewUserHandler(svc *services.UserService, ident auth.Extractor, log zerolog.Logger) *UserHandler {
	return &UserHandler{svc: svc, ident: ident, log: log}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := h.ident.Extract(r)
	if id == nil {
		respond.WriteUnauthorized(w)
		return
	}

	p, err := h.svc.Me(r.Context(), id.Email)
	if err != nil {
		h.log.Error().Err(err).Str("email", id.Email).Msg("profile lookup failed")
		respond.WriteInternalError(w, "internal server error")
		return
	}
	respond.WriteData(w, p)
}
