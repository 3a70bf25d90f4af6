package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api/recovery"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/services"
)

// NewRouter wires all HTTP routes.
func NewRouter(
	search *services.SearchService,
	users *services.UserService,
	queries *services.QueryService,
	ident auth.Extractor,
	log zerolog.Logger,
) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	searchHandler := NewSearchHandler(search, ident, log)
	userHandler := NewUserHandler(users, ident, log)
	queryHandler := NewQueryHandler(queries, ident, log)
	healthHandler := NewHealthHandler()

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Search endpoints. Suggestions must register before the POST route so
	// the subtree match does not shadow it.
	router.HandleFunc("/api/search/suggestions", searchHandler.Suggestions).Methods("GET")
	router.HandleFunc("/api/search", searchHandler.Search).Methods("POST")

	// Account endpoints
	router.HandleFunc("/api/users/me", userHandler.Me).Methods("GET")

	// History endpoints
	router.HandleFunc("/api/queries", queryHandler.History).Methods("GET")
	router.HandleFunc("/api/queries/{queryId}", queryHandler.Get).Methods("GET")

	return router
}
