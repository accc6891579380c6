package models

// Sort is the result ordering requested from the marketplace.
type Sort string

const (
	SortRelevance Sort = "relevance"
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortCheapest  Sort = "cheapest"
	SortExpensive Sort = "expensive"
)

// OwnerType filters ads by seller kind.
type OwnerType string

const (
	OwnerAll     OwnerType = "all"
	OwnerPro     OwnerType = "pro"
	OwnerPrivate OwnerType = "private"
)

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min int
	Max int
}

// CityArea is a circular search area around a named city.
type CityArea struct {
	City   string
	Lat    float64
	Lng    float64
	Radius int // meters
}

// SearchCriteria describes one collection run. It is not modified once the
// run has started.
type SearchCriteria struct {
	Text      string
	Locations []CityArea
	Price     *Range
	Surface   *Range
	Sort      Sort
	OwnerType OwnerType
	MaxPages  int
	PageSize  int
	TitleOnly bool
}
