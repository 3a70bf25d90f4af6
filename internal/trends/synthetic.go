package trends

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"unicode/utf8"

	"github.com/keywordpulse/keywordpulse/internal/model"
)

var hotTopics = []string{"ai", "chatgpt", "machine learning", "seo", "ecommerce", "short video", "nft", "metaverse"}

var techTopics = []string{"programming", "coding", "api", "database", "cloud", "blockchain"}

// relatedCategories is ordered: the first matching category wins.
var relatedCategories = []struct {
	category string
	terms    []string
}{
	{"seo", []string{"keyword tools", "seo optimization", "search engine optimization", "website ranking", "seo tutorial"}},
	{"marketing", []string{"digital marketing", "content marketing", "social media marketing", "marketing strategy", "marketing tools"}},
	{"ecommerce", []string{"online store", "ecommerce platform", "online sales", "dropshipping", "ecommerce tools"}},
	{"programming", []string{"programming tutorial", "developer tools", "programming languages", "software development", "frontend development"}},
	{"ai", []string{"artificial intelligence", "machine learning", "ai tools", "deep learning", "ai applications"}},
	{"design", []string{"ui design", "graphic design", "design tools", "design tutorial", "user experience"}},
}

// popularityWeights is ordered: the first matching term scales the volume.
var popularityWeights = []struct {
	term   string
	weight float64
}{
	{"chatgpt", 8},
	{"ai", 5},
	{"machine learning", 4},
	{"short video", 4},
	{"live streaming", 3.5},
	{"seo", 3},
	{"ecommerce", 3},
	{"marketing", 2.5},
	{"blockchain", 2},
	{"cloud", 2},
	{"big data", 2},
	{"metaverse", 1.5},
}

// Generator produces plausible keyword data without any upstream call. It is
// safe for concurrent use; all randomness goes through one guarded source so
// a fixed seed yields a reproducible sequence.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator fixes the random source; used by tests and the CLI.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

// WithNow overrides the clock; the month grid is derived from it.
func (g *Generator) WithNow(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) Name() string { return "synthetic" }

// GetKeywordData assembles a full synthetic result. It never fails.
func (g *Generator) GetKeywordData(ctx context.Context, keyword string) (*model.KeywordResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	trendData := g.trendData(keyword)
	related := g.relatedQueries(keyword)
	volume := g.searchVolume(keyword)

	sum := 0
	for _, p := range trendData {
		sum += p.Value
	}
	avg := float64(sum) / float64(len(trendData))
	competition := clamp(0.1, 0.9, avg/100*0.7+float64(volume)/100000*0.3)

	return &model.KeywordResult{
		Keyword:          keyword,
		SearchVolume:     &volume,
		CompetitionScore: &competition,
		TrendData:        trendData,
		RelatedQueries:   related,
		DataSource:       model.SourceGoogleTrends,
	}, nil
}

// trendData builds 12 chronological monthly points in [1,100]. Hot and tech
// topics anchor a higher baseline; shopping and travel keywords get their
// seasonal bumps; every series carries a mild upward drift plus noise.
func (g *Generator) trendData(keyword string) []model.TrendDataPoint {
	lower := strings.ToLower(keyword)

	base := 30.0
	if containsAny(lower, hotTopics) {
		base = float64(g.rnd.Intn(30) + 60)
	} else if containsAny(lower, techTopics) {
		base = float64(g.rnd.Intn(25) + 45)
	}

	points := make([]model.TrendDataPoint, 0, 12)
	nowT := g.now()
	for i := 11; i >= 0; i-- {
		date := nowT.AddDate(0, -i, 0)
		month := date.Month()

		seasonal := 1.0
		switch {
		case containsAny(lower, []string{"shopping", "ecommerce", "deal"}):
			if month == time.November || month == time.December {
				seasonal = 1.3
			}
		case containsAny(lower, []string{"travel", "hotel", "flight"}):
			if month >= time.June && month <= time.August {
				seasonal = 1.2
			} else {
				seasonal = 0.8
			}
		}

		drift := 1 + float64(11-i)*0.02
		noise := (g.rnd.Float64() - 0.5) * 15
		value := int(math.Max(1, math.Min(100, math.Floor(base*seasonal*drift+noise))))

		points = append(points, model.TrendDataPoint{
			Date:  date.UTC().Format("2006-01-02"),
			Value: value,
		})
	}
	return points
}

// relatedQueries picks category terms when one matches, otherwise synthesizes
// suffix and prefix permutations, and tops either path up with long-tail
// variants. Deduplicated, at most 8.
func (g *Generator) relatedQueries(keyword string) []string {
	lower := strings.ToLower(keyword)
	related := make([]string, 0, 8)

	for _, c := range relatedCategories {
		if strings.Contains(lower, c.category) {
			related = append(related, c.terms[:3]...)
			break
		}
	}

	if len(related) == 0 {
		suffixes := []string{"tutorial", "tools", "software", "free", "download", "price", "comparison", "review"}
		for _, s := range suffixes[:3] {
			if g.rnd.Float64() > 0.3 {
				related = append(related, keyword+" "+s)
			}
		}
		prefixes := []string{"best", "free", "online", "how to use", "what is"}
		for _, p := range prefixes[:2] {
			if g.rnd.Float64() > 0.5 {
				related = append(related, p+" "+keyword)
			}
		}
	}

	longTail := []string{"meaning", "guide", "alternatives", "recommendations", "ranking"}
	for _, s := range longTail[:2] {
		if g.rnd.Float64() > 0.6 {
			related = append(related, keyword+" "+s)
		}
	}

	return dedupCap(related, 8)
}

// searchVolume estimates monthly volume from keyword length and popularity
// markers. Short heads dominate, long tails trail off.
func (g *Generator) searchVolume(keyword string) int {
	lower := strings.ToLower(keyword)

	var base float64
	switch n := utf8.RuneCountInString(keyword); {
	case n <= 3:
		base = 50000
	case n <= 6:
		base = 20000
	case n <= 10:
		base = 8000
	case n <= 15:
		base = 3000
	default:
		base = 800
	}

	for _, pw := range popularityWeights {
		if strings.Contains(lower, pw.term) {
			base *= pw.weight
			break
		}
	}

	if strings.Contains(lower, "b2b") || strings.Contains(lower, "enterprise") {
		base *= 0.3
	}
	if strings.Contains(lower, "free") || strings.Contains(lower, "download") {
		base *= 1.8
	}

	return int(math.Floor(base * (g.rnd.Float64()*0.6 + 0.7)))
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
