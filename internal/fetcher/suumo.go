package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"dsty-finder/internal/normalize"
	"dsty-finder/internal/ratelimit"

	"github.com/PuerkitoBio/goquery"
)

const suumoSearchBase = "https://suumo.jp/jj/chintai/ichiran/FR301FC001/"

// SearchArea is one Suumo municipality search scoped to a commute route.
type SearchArea struct {
	Name      string
	SuumoCode string
	Route     string
	Priority  int
}

// DefaultSearchAreas covers the neighborhoods served by the school bus
// loops, premium routes first.
func DefaultSearchAreas() []SearchArea {
	return []SearchArea{
		{Name: "田園調布", SuumoCode: "13111", Route: "Pink", Priority: 10},
		{Name: "目黒", SuumoCode: "13109", Route: "Pink", Priority: 10},
		{Name: "恵比寿", SuumoCode: "13109", Route: "Pink", Priority: 9},
		{Name: "等々力", SuumoCode: "13112", Route: "Yellow", Priority: 8},
		{Name: "尾山台", SuumoCode: "13112", Route: "Yellow", Priority: 8},
		{Name: "都立大学", SuumoCode: "13114", Route: "Yellow", Priority: 8},
		{Name: "三軒茶屋", SuumoCode: "13112", Route: "Green", Priority: 7},
		{Name: "駒沢大学", SuumoCode: "13112", Route: "Green", Priority: 7},
		{Name: "仲町台", SuumoCode: "14108", Route: "School", Priority: 6},
	}
}

type SuumoConfig struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	RequestDelay  time.Duration
	MaxPerArea    int
	BudgetMinJPY  int
	BudgetMaxJPY  int
	Areas         []SearchArea
	Limiter       *ratelimit.Limiter
}

// SuumoSource scrapes Suumo rental search result pages, one request per
// configured area.
type SuumoSource struct {
	client          *http.Client
	maxRetries      int
	retryDelay      time.Duration
	requestDelay    time.Duration
	maxPerArea      int
	budgetMin       int
	budgetMax       int
	areas           []SearchArea
	limiter         *ratelimit.Limiter
	lastRequestTime time.Time
}

func NewSuumoSource(config SuumoConfig) *SuumoSource {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}
	if config.RequestDelay == 0 {
		config.RequestDelay = 3 * time.Second
	}
	if config.MaxPerArea == 0 {
		config.MaxPerArea = 10
	}
	if len(config.Areas) == 0 {
		config.Areas = DefaultSearchAreas()
	}
	if config.Limiter == nil {
		config.Limiter = ratelimit.New(10, 120, true)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Printf("[Suumo] Warning: failed to create cookie jar: %v", err)
		jar = nil
	}

	return &SuumoSource{
		client: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		maxRetries:   config.MaxRetries,
		retryDelay:   config.RetryDelay,
		requestDelay: config.RequestDelay,
		maxPerArea:   config.MaxPerArea,
		budgetMin:    config.BudgetMinJPY,
		budgetMax:    config.BudgetMaxJPY,
		areas:        config.Areas,
		limiter:      config.Limiter,
	}
}

func (s *SuumoSource) Name() string {
	return "suumo"
}

// FetchRaw fetches each configured area in order. A failed area aborts the
// whole run so a partial snapshot never masquerades as a full one.
func (s *SuumoSource) FetchRaw(ctx context.Context) ([]normalize.RawRecord, error) {
	var records []normalize.RawRecord

	for _, area := range s.areas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Printf("[Suumo] Searching %s (%s Route)", area.Name, area.Route)

		areaRecords, err := s.fetchArea(ctx, area)
		if err != nil {
			return nil, fmt.Errorf("area %s: %w", area.Name, err)
		}

		log.Printf("[Suumo] %s: %d records", area.Name, len(areaRecords))
		records = append(records, areaRecords...)
	}

	return records, nil
}

func (s *SuumoSource) fetchArea(ctx context.Context, area SearchArea) ([]normalize.RawRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	s.pace()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(area), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	applyBrowserHeaders(req)

	resp, err := s.doRequestWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return s.parseResultPage(doc, area), nil
}

// searchURL builds a Suumo rental search for one area: budget band, max 15
// min station walk, 3+ rooms, newest first.
func (s *SuumoSource) searchURL(area SearchArea) string {
	params := url.Values{}
	params.Set("ar", "030")
	params.Set("bs", "040")
	params.Set("ta", "13")
	params.Set("sc", area.SuumoCode)
	if s.budgetMin > 0 {
		params.Set("cb", strconv.FormatFloat(float64(s.budgetMin)/10000, 'f', 1, 64))
	}
	if s.budgetMax > 0 {
		params.Set("ct", strconv.FormatFloat(float64(s.budgetMax)/10000, 'f', 1, 64))
	}
	params.Set("mb", "0")
	params.Set("mt", "15")
	params.Set("shkr1", "03")
	params.Set("shkr2", "03")
	params.Set("shkr3", "03")
	params.Set("rn", "0005")

	return suumoSearchBase + "?" + params.Encode()
}

// parseResultPage extracts raw records from Suumo cassette items. Missing
// fields stay empty; the normalizer decides what is fatal.
func (s *SuumoSource) parseResultPage(doc *goquery.Document, area SearchArea) []normalize.RawRecord {
	var records []normalize.RawRecord

	doc.Find("div.cassetteitem").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if len(records) >= s.maxPerArea {
			return false
		}

		href, ok := item.Find("a").First().Attr("href")
		if !ok || href == "" {
			return true
		}

		rec := normalize.RawRecord{
			"source":  s.Name(),
			"url":     absoluteSuumoURL(href),
			"title":   item.Find("div.cassetteitem_content-title").First().Text(),
			"price":   item.Find("span.cassetteitem_price--rent").First().Text(),
			"rooms":   item.Find("span.cassetteitem_madori").First().Text(),
			"address": item.Find("li.cassetteitem_detail-col1").First().Text(),
			"access":  item.Find("div.cassetteitem_detail-text").First().Text(),
			"station": area.Name,
		}

		records = append(records, rec)
		return true
	})

	return records
}

func absoluteSuumoURL(href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return "https://suumo.jp" + href
}

// pace enforces the minimum delay between requests.
func (s *SuumoSource) pace() {
	if s.requestDelay == 0 {
		return
	}

	elapsed := time.Since(s.lastRequestTime)
	if elapsed < s.requestDelay {
		time.Sleep(s.requestDelay - elapsed)
	}
	s.lastRequestTime = time.Now()
}

// doRequestWithRetry performs the HTTP request with exponential backoff.
func (s *SuumoSource) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * s.retryDelay
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
			log.Printf("[Suumo] Retry attempt %d/%d after %v", attempt, s.maxRetries, backoff)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}
		}

		resp, err = s.client.Do(req)

		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		if err != nil {
			log.Printf("[Suumo] Request failed (attempt %d): %v", attempt+1, err)
			continue
		}

		log.Printf("[Suumo] Request failed (attempt %d): status %d", attempt+1, resp.StatusCode)
		if resp.Body != nil {
			resp.Body.Close()
		}

		// Client errors other than 429 will not heal on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", s.maxRetries, err)
	}
	return nil, fmt.Errorf("request failed after %d retries: status code %d", s.maxRetries, resp.StatusCode)
}

// applyBrowserHeaders sets browser-like headers on an outbound request.
func applyBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
