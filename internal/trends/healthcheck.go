package trends

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ProviderHealthChecker monitors the provider chain via periodic probes.
type ProviderHealthChecker struct {
	fetcher      *Fetcher
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewProviderHealthChecker creates a trends health checker. It starts
// unhealthy until the first successful probe.
func NewProviderHealthChecker(f *Fetcher, log zerolog.Logger, probeTimeout time.Duration) *ProviderHealthChecker {
	hc := &ProviderHealthChecker{fetcher: f, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (hc *ProviderHealthChecker) Name() string { return "trends" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *ProviderHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking until ctx is cancelled.
func (hc *ProviderHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.fetcher.PingHealth(checkCtx); err != nil {
			hc.log.Error().Str("checker", hc.Name()).Err(err).Msg("trends health check failed")
			hc.healthy.Store(0)
		} else {
			hc.healthy.Store(1)
		}
	}

	check()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
