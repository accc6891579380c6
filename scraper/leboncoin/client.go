package leboncoin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

const (
	DefaultBaseURL = "https://api.leboncoin.fr"
	searchPath     = "/finder/search"
	siteURL        = "https://www.leboncoin.fr"

	// CategoryOfficesAndCommerces is the "Bureaux & Commerces" category id.
	CategoryOfficesAndCommerces = "13"
	adTypeOffer                 = "offer"

	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrBlocked is returned when the anti-bot layer refuses the request.
var ErrBlocked = errors.New("leboncoin: request blocked (HTTP 403)")

// Options configures a Client.
type Options struct {
	BaseURL   string
	Proxy     *url.URL
	Timeout   time.Duration
	UserAgent string
}

// Client queries the marketplace search API.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	logger    *utils.Logger
}

// NewClient creates a Client. Every call is bounded by opts.Timeout.
func NewClient(opts Options, logger *utils.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil {
		transport.Proxy = http.ProxyURL(opts.Proxy)
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL: opts.BaseURL,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		userAgent: opts.UserAgent,
		logger:    logger,
	}
}

// SetSession installs cookies and the user agent obtained from a browser
// session so API calls look like they come from the same browser.
func (c *Client) SetSession(s *BrowserSession) {
	if s == nil {
		return
	}
	if s.UserAgent != "" {
		c.userAgent = s.UserAgent
	}
	for _, raw := range []string{c.baseURL, siteURL} {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		c.http.Jar.SetCookies(u, s.Cookies)
	}
	c.logger.Debug("[leboncoin] Installed %d browser cookies", len(s.Cookies))
}

// Search fetches one page (1-based) of ads matching criteria.
func (c *Client) Search(ctx context.Context, criteria models.SearchCriteria, page int) (*models.SearchPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("leboncoin: invalid page %d", page)
	}
	limit := criteria.PageSize
	if limit <= 0 {
		limit = 35
	}

	body, err := json.Marshal(buildRequest(criteria, page, limit))
	if err != nil {
		return nil, fmt.Errorf("leboncoin: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("leboncoin: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Origin", siteURL)
	req.Header.Set("Referer", siteURL+"/")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leboncoin: search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrBlocked
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("leboncoin: search API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("leboncoin: decode response: %w", err)
	}

	out := &models.SearchPage{
		Total:    result.Total,
		MaxPages: result.MaxPages,
		Listings: make([]*models.RawListing, 0, len(result.Ads)),
	}
	if out.MaxPages <= 0 {
		out.MaxPages = (result.Total + limit - 1) / limit
	}
	for i := range result.Ads {
		out.Listings = append(out.Listings, result.Ads[i].toRawListing())
	}

	c.logger.Debug("[leboncoin] page %d: %d ads, total=%d, max_pages=%d",
		page, len(out.Listings), out.Total, out.MaxPages)
	return out, nil
}

func buildRequest(criteria models.SearchCriteria, page, limit int) searchRequest {
	req := searchRequest{
		Filters: searchFilters{
			Category: idFilter{ID: CategoryOfficesAndCommerces},
			Enums:    map[string][]string{"ad_type": {adTypeOffer}},
		},
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if criteria.Text != "" {
		kw := &keywordsFilter{Text: criteria.Text}
		if criteria.TitleOnly {
			kw.Type = "subject"
		}
		req.Filters.Keywords = kw
	}

	if len(criteria.Locations) > 0 {
		loc := &locationFilter{}
		for _, a := range criteria.Locations {
			loc.Locations = append(loc.Locations, cityLocation{
				LocationType: "city",
				City:         a.City,
				Area:         cityArea{Lat: a.Lat, Lng: a.Lng, Radius: a.Radius},
			})
		}
		req.Filters.Location = loc
	}

	ranges := make(map[string]rangeFilter)
	if r := criteria.Price; r != nil {
		ranges["price"] = rangeFilter{Min: r.Min, Max: r.Max}
	}
	if r := criteria.Surface; r != nil {
		ranges["square"] = rangeFilter{Min: r.Min, Max: r.Max}
	}
	if len(ranges) > 0 {
		req.Filters.Ranges = ranges
	}

	req.SortBy, req.SortOrder = sortParams(criteria.Sort)

	switch criteria.OwnerType {
	case models.OwnerPro, models.OwnerPrivate:
		req.OwnerType = string(criteria.OwnerType)
	}

	return req
}

func sortParams(s models.Sort) (by, order string) {
	switch s {
	case models.SortRelevance:
		return "relevance", ""
	case models.SortOldest:
		return "time", "asc"
	case models.SortCheapest:
		return "price", "asc"
	case models.SortExpensive:
		return "price", "desc"
	default:
		return "time", "desc"
	}
}
