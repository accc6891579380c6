package services

import (
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewWriterLogger(io.Discard) }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func fixedNormalizer(at time.Time) *Normalizer {
	n := NewNormalizer(newTestLogger())
	n.now = func() time.Time { return at }
	return n
}

func attrs(pairs ...string) []models.Attribute {
	var out []models.Attribute
	for i := 0; i+2 < len(pairs); i += 3 {
		out = append(out, models.Attribute{Key: pairs[i], Value: pairs[i+1], ValueLabel: pairs[i+2]})
	}
	return out
}

func TestExtractSurface(t *testing.T) {
	tests := []struct {
		name  string
		attrs []models.Attribute
		want  *int
	}{
		{"square with unit", attrs("square", "85 m²", ""), intPtr(85)},
		{"no digits", attrs("square", "no digits here", ""), nil},
		{"missing everywhere", attrs("rooms", "3", ""), nil},
		{"square wins over area", attrs("area", "200", "", "square", "40", ""), intPtr(40)},
		{"surface before area", attrs("area", "200", "", "surface", "75", ""), intPtr(75)},
		{"falls through undigited key", attrs("square", "n/a", "", "area", "120 m2", ""), intPtr(120)},
		{"first run only", attrs("square", "12 à 30 m²", ""), intPtr(12)},
		{"value not label", attrs("square", "60", "soixante"), intPtr(60)},
	}

	for _, tt := range tests {
		got := extractSurface(attributeMap(tt.attrs))
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("%s: got %d, want absent", tt.name, *got)
		case tt.want != nil && got == nil:
			t.Errorf("%s: got absent, want %d", tt.name, *tt.want)
		case tt.want != nil && *got != *tt.want:
			t.Errorf("%s: got %d, want %d", tt.name, *got, *tt.want)
		}
	}
}

func TestExtractLabelPriority(t *testing.T) {
	tests := []struct {
		field string
		attrs []models.Attribute
		want  string
	}{
		{FieldRealEstateType, attrs("type", "x", "Autre", "real_estate_type", "1", "Bureaux"), "Bureaux"},
		{FieldRealEstateType, attrs("type", "x", "Autre", "property_type", "2", "Local"), "Local"},
		{FieldEnergyClass, attrs("energy_class", "c", "C", "energy_rate", "b", "B"), "B"},
		{FieldEnergyClass, attrs("dpe", "d", ""), "d"},
		{FieldGES, attrs("co2", "e", "E", "greenhouse_gas", "f", "F"), "F"},
		{FieldFurnished, attrs("furnished_type", "2", "Non meublé", "meuble", "1", "Meublé"), "Meublé"},
		{FieldFurnished, attrs("rooms", "3", "3"), ""},
	}

	for _, tt := range tests {
		got := extractLabel(attributeMap(tt.attrs), tt.field)
		if got != tt.want {
			t.Errorf("extractLabel(%s, %v) = %q; want %q", tt.field, tt.attrs, got, tt.want)
		}
	}
}

func TestAttributeMapSkipsEmptyAndKeepsLast(t *testing.T) {
	m := attributeMap([]models.Attribute{
		{Key: "", Value: "orphan"},
		{Key: "ges", Value: ""},
		{Key: "square", Value: "10", ValueLabel: "10 m²"},
		{Key: "square", Value: "20", ValueLabel: "20 m²"},
	})

	if _, ok := m.values["ges"]; ok {
		t.Error("attribute without value should be skipped")
	}
	if len(m.values) != 1 || len(m.keys) != 1 {
		t.Errorf("set size: got %d values, %d keys, want 1", len(m.values), len(m.keys))
	}
	if m.values["square"].Value != "20" {
		t.Errorf("duplicate key: got %q, want last value 20", m.values["square"].Value)
	}
}

func TestEncodeAttributesKeepsAdOrder(t *testing.T) {
	m := attributeMap([]models.Attribute{
		{Key: "square", Value: "85", ValueLabel: "85 m²"},
		{Key: "energy_rate", Value: "c", ValueLabel: "C"},
		{Key: "ges", Value: "b"},
		{Key: "square", Value: "90", ValueLabel: "90 m²"},
	})

	got, err := encodeAttributes(m)
	if err != nil {
		t.Fatalf("encodeAttributes: %v", err)
	}
	want := `{"square":{"value":"90","label":"90 m²"},"energy_rate":{"value":"c","label":"C"},"ges":{"value":"b","label":"b"}}`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestNormalizeFullListing(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw := &models.RawListing{
		ID:               "2400001",
		Subject:          "Bureaux 85 m² centre",
		Body:             strings.Repeat("é", 600),
		Price:            intPtr(1200),
		URL:              "https://www.leboncoin.fr/ad/bureaux_commerces/2400001",
		FirstPublication: "2026-02-28 09:00:00",
		CategoryName:     "Bureaux & Commerces",
		Status:           "active",
		Favorites:        4,
		HasPhone:         true,
		Images:           []string{"https://img/1.jpg", "https://img/2.jpg"},
		Location: &models.Location{
			City: "Lyon", Zipcode: "69003", Department: "Rhône", Region: "Auvergne-Rhône-Alpes",
			Lat: floatPtr(45.76), Lng: floatPtr(4.85),
		},
		User: &models.User{
			Name:  "Agence Part-Dieu",
			IsPro: true,
			Pro:   &models.ProProfile{StoreName: "Part-Dieu Immo", Siren: "123456789"},
		},
		Attributes: attrs(
			"square", "85", "85 m²",
			"real_estate_type", "3", "Bureaux",
			"energy_rate", "c", "C",
			"ges", "b", "B",
		),
	}

	rec := fixedNormalizer(at).Normalize(raw)

	if rec.Failed() {
		t.Fatalf("unexpected error marker: %s", rec.Err)
	}
	if rec.SellerType != models.SellerPro {
		t.Errorf("SellerType: got %q", rec.SellerType)
	}
	if rec.Surface == nil || *rec.Surface != 85 {
		t.Errorf("Surface: got %v", rec.Surface)
	}
	if rec.RealEstateType != "Bureaux" || rec.EnergyClass != "C" || rec.GES != "B" || rec.Furnished != "" {
		t.Errorf("labels: %q %q %q %q", rec.RealEstateType, rec.EnergyClass, rec.GES, rec.Furnished)
	}
	if got := len([]rune(rec.Description)); got != 500 {
		t.Errorf("Description runes: got %d, want 500", got)
	}
	if rec.City != "Lyon" || rec.Latitude == nil || *rec.Latitude != 45.76 {
		t.Errorf("location: %q %v", rec.City, rec.Latitude)
	}
	if rec.ImagesCount != 2 || rec.FirstImageURL != "https://img/1.jpg" {
		t.Errorf("images: %d %q", rec.ImagesCount, rec.FirstImageURL)
	}
	if rec.ProStoreName != "Part-Dieu Immo" || rec.ProSiren != "123456789" {
		t.Errorf("pro: %q %q", rec.ProStoreName, rec.ProSiren)
	}
	if !rec.ScrapedAt.Equal(at) {
		t.Errorf("ScrapedAt: got %v", rec.ScrapedAt)
	}

	var decoded map[string]map[string]string
	if err := json.Unmarshal([]byte(rec.RawAttributes), &decoded); err != nil {
		t.Fatalf("raw attributes not JSON: %v", err)
	}
	if decoded["square"]["label"] != "85 m²" {
		t.Errorf("raw attributes square: %v", decoded["square"])
	}
	if !strings.Contains(rec.RawAttributes, "85 m²") {
		t.Errorf("raw attributes should keep UTF-8 unescaped: %s", rec.RawAttributes)
	}
}

func TestNormalizeSparseListing(t *testing.T) {
	rec := fixedNormalizer(time.Now()).Normalize(&models.RawListing{ID: "1"})

	if rec.Failed() {
		t.Fatalf("sparse listing should not fail: %s", rec.Err)
	}
	if rec.SellerType != models.SellerParticular {
		t.Errorf("SellerType: got %q, want particulier", rec.SellerType)
	}
	if rec.Price != nil || rec.Surface != nil || rec.Latitude != nil {
		t.Error("absent optional fields should stay nil")
	}
	if rec.City != "" || rec.SellerName != "" || rec.FirstImageURL != "" {
		t.Error("absent string fields should be empty")
	}
	if rec.RawAttributes != "{}" {
		t.Errorf("RawAttributes: got %q, want {}", rec.RawAttributes)
	}
}

func TestNormalizePrivateSellerWithoutProFlag(t *testing.T) {
	rec := fixedNormalizer(time.Now()).Normalize(&models.RawListing{
		ID:   "2",
		User: &models.User{Name: "Jean"},
	})
	if rec.SellerType != models.SellerParticular || rec.SellerName != "Jean" {
		t.Errorf("got %q / %q", rec.SellerType, rec.SellerName)
	}
}

func TestNormalizeNilListing(t *testing.T) {
	rec := fixedNormalizer(time.Now()).Normalize(nil)
	if !rec.Failed() {
		t.Error("nil listing should produce an error marker")
	}
}

func TestNormalizeRecoversPanic(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	n.now = func() time.Time { panic("clock exploded") }

	rec := n.Normalize(&models.RawListing{ID: "42"})
	if !rec.Failed() {
		t.Fatal("expected error marker")
	}
	if rec.ID != "42" {
		t.Errorf("ID: got %q, want 42", rec.ID)
	}
}
