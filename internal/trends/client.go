// Package trends resolves keyword interest data. A live upstream client is
// tried first when configured; a deterministic-shape synthetic generator
// covers the rest.
package trends

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

// Client calls a trends proxy upstream over HTTP.
type Client struct {
	http   *resty.Client
	region string
	log    zerolog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewClient builds a live upstream client against baseURL. The region code
// (e.g. "US") is forwarded on every request.
func NewClient(baseURL, region string, timeout time.Duration, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{
		http:   c,
		region: region,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

func (c *Client) Name() string { return "live" }

type timelinePoint struct {
	Time  int64 `json:"time"`
	Value []int `json:"value"`
}

type interestResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

type rankedKeyword struct {
	Query string `json:"query"`
	Value int    `json:"value"`
}

type relatedResponse struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []rankedKeyword `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// GetKeywordData fetches interest over the past 12 months plus related
// queries over the past 3 months, then derives a KeywordResult. Transport
// and status failures are errors; a malformed body is not — the upstream
// sometimes returns non-JSON padding, which decodes to an empty series.
func (c *Client) GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error) {
	end := c.now()

	var interest interestResponse
	if err := c.fetch(ctx, "/trends/interest-over-time", keyword, end.AddDate(-1, 0, 0), end, &interest); err != nil {
		return nil, err
	}

	var related relatedResponse
	if err := c.fetch(ctx, "/trends/related-queries", keyword, end.AddDate(0, -3, 0), end, &related); err != nil {
		return nil, err
	}

	trendData := make([]model.TrendDataPoint, 0, len(interest.Default.TimelineData))
	for _, p := range interest.Default.TimelineData {
		v := 0
		if len(p.Value) > 0 {
			v = p.Value[0]
		}
		trendData = append(trendData, model.TrendDataPoint{
			Date:  time.Unix(p.Time, 0).UTC().Format("2006-01-02"),
			Value: v,
		})
	}
	if len(trendData) > 12 {
		trendData = trendData[len(trendData)-12:]
	}

	relatedTerms := make([]string, 0, 8)
	for i, list := range related.Default.RankedList {
		if i >= 2 {
			break
		}
		for j, rk := range list.RankedKeyword {
			if j >= 4 {
				break
			}
			relatedTerms = append(relatedTerms, rk.Query)
		}
	}
	relatedTerms = dedupCap(relatedTerms, 8)

	avg := 0.0
	if len(trendData) > 0 {
		sum := 0
		for _, p := range trendData {
			sum += p.Value
		}
		avg = float64(sum) / float64(len(trendData))
	}

	c.mu.Lock()
	volume := int(math.Floor(avg * 1000 * (c.rnd.Float64()*0.5 + 0.75)))
	competition := clamp(0.1, 0.9, avg/100*0.8+c.rnd.Float64()*0.2)
	c.mu.Unlock()

	return &model.KeywordResult{
		Keyword:          keyword,
		SearchVolume:     &volume,
		CompetitionScore: &competition,
		TrendData:        trendData,
		RelatedQueries:   relatedTerms,
		DataSource:       model.SourceGoogleTrends,
	}, nil
}

// fetch issues one upstream request and decodes the body into out,
// substituting an empty object when the body is not a JSON object.
func (c *Client) fetch(ctx context.Context, path, keyword string, start, end time.Time, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"keyword": keyword,
			"geo":     c.region,
			"start":   start.UTC().Format(time.RFC3339),
			"end":     end.UTC().Format(time.RFC3339),
		}).
		Get(path)
	if err != nil {
		return errors.Wrapf(err, "trends upstream %s", path)
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("trends upstream %s: status %d", path, resp.StatusCode())
	}

	body := strings.TrimSpace(string(resp.Body()))
	if !strings.HasPrefix(body, "{") {
		c.log.Warn().Str("path", path).Msg("upstream body is not JSON, using empty data")
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("upstream body undecodable, using empty data")
	}
	return nil
}

func dedupCap(terms []string, max int) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}

func clamp(lo, hi, v float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
