package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api/respond"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/services"
)

type QueryHandler struct {
	svc   *services.QueryService
	ident auth.Extractor
	log   zerolog.Logger
}

func NewQueryHandler(svc *services.QueryService, ident auth.Extractor, log zerolog.Logger) *QueryHandler {
	return &QueryHandler{svc: svc, ident: ident, log: log}
}

// History handles GET /api/queries.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	id := h.ident.Extract(r)
	if id == nil {
		respond.WriteUnauthorized(w)
		return
	}

	limit := intParam(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := intParam(r, "page", 1)
	if page < 1 {
		page = 1
	}

	items, err := h.svc.History(r.Context(), id.Email, limit)
	if err != nil {
		h.log.Error().Err(err).Str("email", id.Email).Msg("history lookup failed")
		respond.WriteInternalError(w, "internal server error")
		return
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    items,
		"pagination": map[string]int{
			"page":  page,
			"limit": limit,
			"total": len(items),
		},
	})
}

// Get handles GET /api/queries/{queryId}.
func (h *QueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := h.ident.Extract(r)
	if id == nil {
		respond.WriteUnauthorized(w)
		return
	}

	q, err := h.svc.Get(r.Context(), id.Email, mux.Vars(r)["queryId"])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "query not found")
			return
		}
		h.log.Error().Err(err).Msg("query lookup failed")
		respond.WriteInternalError(w, "internal server error")
		return
	}
	respond.WriteData(w, q)
}

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
