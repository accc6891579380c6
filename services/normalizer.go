package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

// Logical fields extracted from the attribute collection.
const (
	FieldSurface        = "surface"
	FieldRealEstateType = "real_estate_type"
	FieldEnergyClass    = "energy_class"
	FieldGES            = "ges"
	FieldFurnished      = "furnished"
)

// AttributeFallbacks lists, per logical field, the attribute keys tried in
// priority order. The first key present wins even if a later one is too.
var AttributeFallbacks = map[string][]string{
	FieldSurface:        {"square", "surface", "area"},
	FieldRealEstateType: {"real_estate_type", "property_type", "type"},
	FieldEnergyClass:    {"energy_rate", "dpe", "energy_class"},
	FieldGES:            {"ges", "greenhouse_gas", "co2"},
	FieldFurnished:      {"furnished", "meuble", "furnished_type"},
}

const maxDescriptionRunes = 500

var digitsRegexp = regexp.MustCompile(`\d+`)

// attrValue is the value/label pair kept for one attribute key.
type attrValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// attrSet holds attributes by key and remembers the order keys first
// appeared in the ad.
type attrSet struct {
	keys   []string
	values map[string]attrValue
}

// Normalizer turns RawListings into fixed-schema Records.
type Normalizer struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger, now: time.Now}
}

// Normalize always returns a record. When the listing cannot be processed
// at all the record carries only the ID and an error marker.
func (n *Normalizer) Normalize(raw *models.RawListing) (rec models.Record) {
	if raw == nil {
		n.logger.Error("[normalizer] nil listing")
		return models.Record{Err: "nil listing"}
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("[normalizer] listing %s: %v", raw.ID, r)
			rec = models.Record{ID: raw.ID, Err: fmt.Sprint(r)}
		}
	}()

	attrs := attributeMap(raw.Attributes)

	rec = models.Record{
		ID:              raw.ID,
		Title:           raw.Subject,
		Description:     truncateRunes(raw.Body, maxDescriptionRunes),
		Price:           raw.Price,
		URL:             raw.URL,
		PublicationDate: raw.FirstPublication,
		ExpirationDate:  raw.ExpirationDate,
		Category:        raw.CategoryName,
		Status:          raw.Status,
		Favorites:       raw.Favorites,
		SellerType:      models.SellerParticular,
		HasPhone:        raw.HasPhone,
		ImagesCount:     len(raw.Images),

		Surface:        extractSurface(attrs),
		RealEstateType: extractLabel(attrs, FieldRealEstateType),
		EnergyClass:    extractLabel(attrs, FieldEnergyClass),
		GES:            extractLabel(attrs, FieldGES),
		Furnished:      extractLabel(attrs, FieldFurnished),

		ScrapedAt: n.now(),
	}

	if len(raw.Images) > 0 {
		rec.FirstImageURL = raw.Images[0]
	}

	if loc := raw.Location; loc != nil {
		rec.City = loc.City
		rec.Zipcode = loc.Zipcode
		rec.Department = loc.Department
		rec.Region = loc.Region
		rec.Latitude = loc.Lat
		rec.Longitude = loc.Lng
	}

	if u := raw.User; u != nil {
		rec.SellerName = u.Name
		if u.IsPro {
			rec.SellerType = models.SellerPro
		}
		if p := u.Pro; p != nil {
			rec.ProStoreName = p.StoreName
			rec.ProSiret = p.Siret
			rec.ProSiren = p.Siren
			rec.ProActivitySector = p.ActivitySector
			rec.ProWebsite = p.Website
		}
	}

	raws, err := encodeAttributes(attrs)
	if err != nil {
		n.logger.Warn("[normalizer] listing %s: raw attributes: %v", raw.ID, err)
	}
	rec.RawAttributes = raws

	n.logger.Debug("[normalizer] listing %s normalized", raw.ID)
	return rec
}

// attributeMap keeps attributes that have both a key and a value. The label
// falls back to the value; a later duplicate key replaces the value of an
// earlier one but keeps its position.
func attributeMap(attrs []models.Attribute) attrSet {
	set := attrSet{values: make(map[string]attrValue, len(attrs))}
	for _, a := range attrs {
		if a.Key == "" || a.Value == "" {
			continue
		}
		label := a.ValueLabel
		if label == "" {
			label = a.Value
		}
		if _, seen := set.values[a.Key]; !seen {
			set.keys = append(set.keys, a.Key)
		}
		set.values[a.Key] = attrValue{Value: a.Value, Label: label}
	}
	return set
}

// extractLabel returns the label of the first candidate key present.
func extractLabel(attrs attrSet, field string) string {
	for _, key := range AttributeFallbacks[field] {
		if v, ok := attrs.values[key]; ok {
			return v.Label
		}
	}
	return ""
}

// extractSurface parses the first run of digits from the value of the first
// candidate key whose value contains one.
func extractSurface(attrs attrSet) *int {
	for _, key := range AttributeFallbacks[FieldSurface] {
		v, ok := attrs.values[key]
		if !ok {
			continue
		}
		if s, ok := parseLeadingInt(v.Value); ok {
			return &s
		}
	}
	return nil
}

func parseLeadingInt(s string) (int, bool) {
	match := digitsRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// encodeAttributes renders the set as a JSON object with keys in ad order
// and non-ASCII text left unescaped.
func encodeAttributes(attrs attrSet) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range attrs.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return "", err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(attrs.values[key]); err != nil {
			return "", err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
