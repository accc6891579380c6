package services

import (
	"context"
	"fmt"
	"time"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

// Searcher fetches one page of search results.
type Searcher interface {
	Search(ctx context.Context, criteria models.SearchCriteria, page int) (*models.SearchPage, error)
}

// Collector drives a Searcher page by page and normalizes every listing.
type Collector struct {
	searcher   Searcher
	normalizer *Normalizer
	pacer      *utils.Pacer
	logger     *utils.Logger
}

// NewCollector creates a Collector. Successive page fetches are spaced by
// the pacer.
func NewCollector(searcher Searcher, normalizer *Normalizer, pacer *utils.Pacer, logger *utils.Logger) *Collector {
	return &Collector{
		searcher:   searcher,
		normalizer: normalizer,
		pacer:      pacer,
		logger:     logger,
	}
}

// Collect runs one collection from page 1 until the page is empty, the
// marketplace's last page is reached, or criteria.MaxPages pages have been
// fetched. On error the session holds every record gathered before the
// failing page.
func (c *Collector) Collect(ctx context.Context, criteria models.SearchCriteria) (*models.Session, error) {
	session := models.NewSession()

	c.logger.Info("[collector] run %s: starting, text=%q locations=%d price=%v surface=%v max_pages=%d delay=%v",
		session.RunID, criteria.Text, len(criteria.Locations),
		formatRange(criteria.Price), formatRange(criteria.Surface), criteria.MaxPages, c.pacer.Interval())

	for page := 1; page <= criteria.MaxPages; page++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return session, fmt.Errorf("page %d: waiting for rate limit: %w", page, err)
		}

		c.logger.Info("[collector] Fetching page %d/%d", page, criteria.MaxPages)

		result, err := c.searcher.Search(ctx, criteria, page)
		if err != nil {
			c.logger.Error("[collector] Page %d failed: %v", page, err)
			return session, fmt.Errorf("page %d: %w", page, err)
		}
		session.Pages = page

		if len(result.Listings) == 0 {
			c.logger.Info("[collector] Page %d returned 0 listings, stopping", page)
			break
		}

		c.logger.Info("[collector] Page %d: %d listings", page, len(result.Listings))

		for _, raw := range result.Listings {
			session.Append(c.normalizer.Normalize(raw))
		}

		if page >= result.MaxPages {
			c.logger.Info("[collector] Last page reached (%d)", result.MaxPages)
			break
		}
	}

	c.logger.Info("[collector] run %s: done, %d listings over %d page(s) in %v",
		session.RunID, len(session.Records), session.Pages, time.Since(session.StartedAt).Round(time.Millisecond))
	return session, nil
}

func formatRange(r *models.Range) string {
	if r == nil {
		return "any"
	}
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}
