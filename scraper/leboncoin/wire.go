package leboncoin

import (
	"strconv"

	"lbc-bureaux-scraper/models"
)

// searchRequest is the finder API request body.
type searchRequest struct {
	Filters   searchFilters `json:"filters"`
	Limit     int           `json:"limit"`
	Offset    int           `json:"offset"`
	SortBy    string        `json:"sort_by,omitempty"`
	SortOrder string        `json:"sort_order,omitempty"`
	OwnerType string        `json:"owner_type,omitempty"`
}

type searchFilters struct {
	Category idFilter               `json:"category"`
	Enums    map[string][]string    `json:"enums"`
	Keywords *keywordsFilter        `json:"keywords,omitempty"`
	Location *locationFilter        `json:"location,omitempty"`
	Ranges   map[string]rangeFilter `json:"ranges,omitempty"`
}

type idFilter struct {
	ID string `json:"id"`
}

type keywordsFilter struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

type locationFilter struct {
	Locations []cityLocation `json:"locations"`
}

type cityLocation struct {
	LocationType string   `json:"locationType"`
	City         string   `json:"city,omitempty"`
	Area         cityArea `json:"area"`
}

type cityArea struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius int     `json:"radius"`
}

type rangeFilter struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// searchResponse is the subset of the finder API response that is mapped.
type searchResponse struct {
	Total    int      `json:"total"`
	MaxPages int      `json:"max_pages"`
	Ads      []wireAd `json:"ads"`
}

type wireAd struct {
	ListID               int64           `json:"list_id"`
	FirstPublicationDate string          `json:"first_publication_date"`
	ExpirationDate       string          `json:"expiration_date"`
	Status               string          `json:"status"`
	CategoryName         string          `json:"category_name"`
	Subject              string          `json:"subject"`
	Body                 string          `json:"body"`
	URL                  string          `json:"url"`
	Price                []int           `json:"price"`
	HasPhone             bool            `json:"has_phone"`
	Images               wireImages      `json:"images"`
	Attributes           []wireAttribute `json:"attributes"`
	Location             *wireLocation   `json:"location"`
	Owner                *wireOwner      `json:"owner"`
	Counters             struct {
		Favorites int `json:"favorites"`
	} `json:"counters"`
}

type wireImages struct {
	URLs      []string `json:"urls"`
	URLsLarge []string `json:"urls_large"`
}

type wireAttribute struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	ValueLabel string `json:"value_label"`
}

type wireLocation struct {
	City           string   `json:"city"`
	Zipcode        string   `json:"zipcode"`
	DepartmentName string   `json:"department_name"`
	RegionName     string   `json:"region_name"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
}

type wireOwner struct {
	StoreID string `json:"store_id"`
	UserID  string `json:"user_id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Siren   string `json:"siren"`
}

// toRawListing maps the wire ad onto the domain listing.
func (a *wireAd) toRawListing() *models.RawListing {
	raw := &models.RawListing{
		ID:               strconv.FormatInt(a.ListID, 10),
		Subject:          a.Subject,
		Body:             a.Body,
		URL:              a.URL,
		FirstPublication: a.FirstPublicationDate,
		ExpirationDate:   a.ExpirationDate,
		CategoryName:     a.CategoryName,
		Status:           a.Status,
		Favorites:        a.Counters.Favorites,
		HasPhone:         a.HasPhone,
		Images:           a.Images.URLsLarge,
	}
	if len(raw.Images) == 0 {
		raw.Images = a.Images.URLs
	}
	if len(a.Price) > 0 {
		p := a.Price[0]
		raw.Price = &p
	}

	if l := a.Location; l != nil {
		raw.Location = &models.Location{
			City:       l.City,
			Zipcode:    l.Zipcode,
			Department: l.DepartmentName,
			Region:     l.RegionName,
			Lat:        l.Lat,
			Lng:        l.Lng,
		}
	}

	if o := a.Owner; o != nil {
		u := &models.User{Name: o.Name, IsPro: o.Type == "pro"}
		if u.IsPro {
			u.Pro = &models.ProProfile{StoreName: o.Name, Siren: o.Siren}
		}
		raw.User = u
	}

	raw.Attributes = make([]models.Attribute, 0, len(a.Attributes))
	for _, attr := range a.Attributes {
		raw.Attributes = append(raw.Attributes, models.Attribute{
			Key:        attr.Key,
			Value:      attr.Value,
			ValueLabel: attr.ValueLabel,
		})
	}

	return raw
}
