package keywordservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/api"
	"github.com/keywordpulse/keywordpulse/internal/auth"
	"github.com/keywordpulse/keywordpulse/internal/cache"
	"github.com/keywordpulse/keywordpulse/internal/config"
	"github.com/keywordpulse/keywordpulse/internal/factory"
	"github.com/keywordpulse/keywordpulse/internal/health"
	"github.com/keywordpulse/keywordpulse/internal/logger"
	"github.com/keywordpulse/keywordpulse/internal/quota"
	"github.com/keywordpulse/keywordpulse/internal/services"
	"github.com/keywordpulse/keywordpulse/internal/store"
	"github.com/keywordpulse/keywordpulse/internal/trends"
)

// Run starts the keyword service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("keyword-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("cache_backend", cfg.CacheBackend).
		Int("http_port", cfg.HTTPPort).
		Bool("trends_live_api", cfg.TrendsBaseURL != "").
		Msg("Keyword service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Initialize dependencies (store, cache, fetcher)
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	kwCache, err := factory.NewCache(cfg, st, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Cache backend unavailable")
		return err
	}
	fetcher := factory.NewFetcher(cfg, log)

	// Build router
	router := buildRouter(st, kwCache, fetcher, cfg, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st, fetcher)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// Background cache eviction
	go runCacheEviction(ctx, kwCache, cfg, log)

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires services into the HTTP routes.
func buildRouter(st store.Store, kwCache cache.Cache, fetcher *trends.Fetcher, cfg *config.Config, log zerolog.Logger) http.Handler {
	ledger := quota.NewLedger(st.Users(), log)
	ident := auth.NewHeaderExtractor(cfg.IdentityHeader)

	searchSvc := services.NewSearchService(st, kwCache, ledger, fetcher, log)
	userSvc := services.NewUserService(st, ledger)
	querySvc := services.NewQueryService(st)

	return api.NewRouter(searchSvc, userSvc, querySvc, ident, log)
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, fetcher *trends.Fetcher) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	trendsChecker := trends.NewProviderHealthChecker(fetcher, log, probeTimeout)
	go trendsChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, trendsChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)

	source := "synthetic"
	if cfg.TrendsBaseURL != "" {
		source = "live"
	}
	api.BindTrendsHealth(func() map[string]interface{} {
		return map[string]interface{}{
			"available": trendsChecker.IsHealthy(),
			"source":    source,
		}
	})
	return svcHealth
}

// runCacheEviction periodically reclaims expired cache rows. Reads never see
// expired entries; this only keeps the table from growing without bound.
func runCacheEviction(ctx context.Context, kwCache cache.Cache, cfg *config.Config, log zerolog.Logger) {
	interval := time.Duration(cfg.CacheEvictionIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := kwCache.EvictExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("cache eviction failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("expired cache entries evicted")
			}
		}
	}
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start unhealthy and need time for their first probe.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
