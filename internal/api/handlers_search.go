package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api/respond"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/services"
	"github.com/keywordpulse/keywordpulse/internal/suggest"
)

type SearchHandler struct {
	svc   *services.SearchService
	ident auth.Extractor
	log   zerolog.Logger
}

func NewSearchHandler(svc *services.SearchService, ident auth.Extractor, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, ident: ident, log: log}
}

// Search handles POST /api/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	resp, err := h.svc.Search(r.Context(), in.Keyword, h.ident.Extract(r))
	if err != nil {
		h.writeSearchError(w, err)
		return
	}
	respond.WriteData(w, resp)
}

func (h *SearchHandler) writeSearchError(w http.ResponseWriter, err error) {
	var qe *model.QuotaError
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.As(err, &qe):
		respond.WriteErrorDetails(w, http.StatusTooManyRequests,
			"daily query limit reached",
			fmt.Sprintf("used %d of %d daily queries", qe.CurrentCount, qe.DailyLimit))
	case errors.Is(err, model.ErrUnavailable):
		respond.WriteError(w, http.StatusServiceUnavailable, "keyword data unavailable, try again later")
	default:
		h.log.Error().Err(err).Msg("search failed")
		respond.WriteInternalError(w, "internal server error")
	}
}

// Suggestions handles GET /api/search/suggestions?q=.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"suggestions": suggest.ForQuery(q),
	})
}
