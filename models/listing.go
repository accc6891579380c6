package models

import "time"

// RawListing is one marketplace ad as returned by the search client.
// Optional sub-records are pointers and are nil when the ad carries none.
type RawListing struct {
	ID               string
	Subject          string
	Body             string
	Price            *int
	URL              string
	FirstPublication string
	ExpirationDate   string
	CategoryName     string
	Status           string
	Favorites        int
	HasPhone         bool
	Images           []string
	Location         *Location
	User             *User
	Attributes       []Attribute
}

// Location is the geographic sub-record of an ad.
type Location struct {
	City       string
	Zipcode    string
	Department string
	Region     string
	Lat        *float64
	Lng        *float64
}

// User describes the seller of an ad.
type User struct {
	Name  string
	IsPro bool
	Pro   *ProProfile
}

// ProProfile holds the store details published by professional sellers.
type ProProfile struct {
	StoreName      string
	Siret          string
	Siren          string
	ActivitySector string
	Website        string
}

// Attribute is one key/value/label triple attached to an ad. The key
// namespace varies by category and over time.
type Attribute struct {
	Key        string
	Value      string
	ValueLabel string
}

const (
	SellerPro        = "pro"
	SellerParticular = "particulier"
)

// Record is the flat, fixed-schema view of one RawListing.
//
// Optional numeric fields are pointers; every field is always written to
// the export so all rows share one column schema.
type Record struct {
	ID              string
	Title           string
	Description     string
	Price           *int
	URL             string
	PublicationDate string
	ExpirationDate  string
	Category        string
	Status          string
	Favorites       int

	City       string
	Zipcode    string
	Department string
	Region     string
	Latitude   *float64
	Longitude  *float64

	SellerType string
	SellerName string
	HasPhone   bool

	ImagesCount   int
	FirstImageURL string

	Surface        *int
	RealEstateType string
	EnergyClass    string
	GES            string
	Furnished      string

	ProStoreName      string
	ProSiret          string
	ProSiren          string
	ProActivitySector string
	ProWebsite        string

	RawAttributes string
	ScrapedAt     time.Time

	// Err is set when the listing could not be normalized at all. Such
	// records carry only ID and are never exported.
	Err string
}

// Failed reports whether the record is an extraction-error marker.
func (r *Record) Failed() bool {
	return r.Err != ""
}
