package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

const topCitiesLimit = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the report over the exportable records. Error markers
// are ignored.
func (s *InsightService) Generate(records []models.Record) *models.InsightReport {
	report := &models.InsightReport{
		SellerTypes: make(map[string]int),
	}

	listings := models.ExportableRecords(records)
	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var prices []float64
	cityCounts := make(map[string]int)
	var cityOrder []string

	for _, l := range listings {
		report.SellerTypes[l.SellerType]++
		if l.Price != nil {
			prices = append(prices, float64(*l.Price))
		}
		if l.City != "" {
			if _, seen := cityCounts[l.City]; !seen {
				cityOrder = append(cityOrder, l.City)
			}
			cityCounts[l.City]++
		}
	}

	report.UniqueCities = len(cityCounts)
	report.Price = priceStats(prices)

	// Stable sort keeps first-encountered order among equal counts.
	top := make([]models.CityCount, 0, len(cityOrder))
	for _, city := range cityOrder {
		top = append(top, models.CityCount{City: city, Count: cityCounts[city]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > topCitiesLimit {
		top = top[:topCitiesLimit]
	}
	report.TopCities = top

	s.logger.Debug("[insights] %d listings, %d priced, %d cities",
		report.TotalListings, len(prices), report.UniqueCities)
	return report
}

func priceStats(prices []float64) models.PriceStats {
	if len(prices) == 0 {
		return models.PriceStats{}
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	var total float64
	for _, p := range sorted {
		total += p
	}

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.PriceStats{
		Present: true,
		Count:   n,
		Mean:    round2(total / float64(n)),
		Median:  median,
		Min:     sorted[0],
		Max:     sorted[n-1],
	}
}

// Print writes a human-readable summary of r to w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 STATISTICS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Unique cities  : \033[1m%d\033[0m\n", r.UniqueCities)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.Price.Present {
		fmt.Fprintf(w, "  Average price : \033[1;32m%.2f€\033[0m\n", r.Price.Mean)
		fmt.Fprintf(w, "  Median price  : \033[1;32m%.2f€\033[0m\n", r.Price.Median)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m%.2f€\033[0m\n", r.Price.Min)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m%.2f€\033[0m\n", r.Price.Max)
	} else {
		fmt.Fprintf(w, "  Price         : n/a (no listing has a price)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Sellers\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, kind := range []string{models.SellerPro, models.SellerParticular} {
		fmt.Fprintf(w, "  %-14s : %d\n", kind, r.SellerTypes[kind])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top 5 Cities\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopCities) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	}
	for i, cc := range r.TopCities {
		if i == 5 {
			break
		}
		bar := strings.Repeat("█", min(cc.Count, 30))
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(cc.City, 28), bar, cc.Count)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
