package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/keywordpulse/keywordpulse/internal/config"
	"github.com/keywordpulse/keywordpulse/internal/factory"
	"github.com/keywordpulse/keywordpulse/internal/logger"
)

// runEvict opens the configured store directly and reclaims expired cache
// rows. Meant for cron on deployments that keep the db cache backend.
func runEvict(out io.Writer) error {
	log := logger.New("keywordctl")
	cfg, err := config.New()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	kwCache, err := factory.NewCache(cfg, st, log)
	if err != nil {
		return err
	}

	n, err := kwCache.EvictExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "evicted %d expired entries\n", n)
	return nil
}

// runBulk resolves every keyword in the file through the fetcher and prints
// one JSON result per line.
func runBulk(path string, out io.Writer) error {
	log := logger.New("keywordctl")
	cfg, err := config.New()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		kw := strings.TrimSpace(scanner.Text())
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords in %s", path)
	}

	fetcher := factory.NewFetcher(cfg, log)
	results := fetcher.GetBulkKeywordData(context.Background(), keywords)

	enc := json.NewEncoder(out)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stderr, "resolved %d of %d keywords\n", len(results), len(keywords))
	return nil
}
