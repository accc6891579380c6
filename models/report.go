package models

// PriceStats summarizes prices over the records that carry one. Present is
// false when no record has a price; the numeric fields are then meaningless.
type PriceStats struct {
	Present bool
	Count   int
	Mean    float64
	Median  float64
	Min     float64
	Max     float64
}

// CityCount is one entry of the top-cities ranking.
type CityCount struct {
	City  string
	Count int
}

// InsightReport holds the aggregate statistics of one collection run.
type InsightReport struct {
	TotalListings int
	UniqueCities  int
	Price         PriceStats
	SellerTypes   map[string]int
	TopCities     []CityCount
}
