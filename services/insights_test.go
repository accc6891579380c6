package services

import (
	"bytes"
	"strings"
	"testing"

	"lbc-bureaux-scraper/models"
)

func sampleRecords() []models.Record {
	return []models.Record{
		{ID: "1", City: "Lyon", Price: intPtr(200), SellerType: models.SellerPro},
		{ID: "2", City: "Paris", Price: intPtr(50), SellerType: models.SellerParticular},
		{ID: "3", City: "Lyon", Price: intPtr(120), SellerType: models.SellerPro},
		{ID: "4", City: "Nantes", Price: intPtr(300), SellerType: models.SellerPro},
		{ID: "5", City: "Paris", SellerType: models.SellerParticular},
		{ID: "6", Err: "broken"},
	}
}

func TestInsightCounts(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(sampleRecords())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.UniqueCities != 3 {
		t.Errorf("UniqueCities: got %d, want 3", r.UniqueCities)
	}
}

func TestInsightPrices(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(sampleRecords())
	p := r.Price
	if !p.Present || p.Count != 4 {
		t.Fatalf("price stats: %+v", p)
	}
	if p.Mean != 167.50 {
		t.Errorf("Mean: got %.2f, want 167.50", p.Mean)
	}
	if p.Median != 160 {
		t.Errorf("Median: got %.2f, want 160", p.Median)
	}
	if p.Min != 50 || p.Max != 300 {
		t.Errorf("Min/Max: got %.2f/%.2f, want 50/300", p.Min, p.Max)
	}
}

func TestInsightOddMedian(t *testing.T) {
	recs := []models.Record{
		{ID: "a", Price: intPtr(30)}, {ID: "b", Price: intPtr(10)}, {ID: "c", Price: intPtr(20)},
	}
	r := NewInsightService(newTestLogger()).Generate(recs)
	if r.Price.Median != 20 {
		t.Errorf("Median: got %.2f, want 20", r.Price.Median)
	}
}

func TestInsightNoPrices(t *testing.T) {
	recs := []models.Record{{ID: "a", City: "Lyon"}, {ID: "b", City: "Lyon"}}
	r := NewInsightService(newTestLogger()).Generate(recs)
	if r.Price.Present {
		t.Errorf("price stats should be absent, got %+v", r.Price)
	}
}

func TestInsightSellerTypesSumToTotal(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(sampleRecords())
	sum := 0
	for _, n := range r.SellerTypes {
		sum += n
	}
	if sum != r.TotalListings {
		t.Errorf("seller types sum %d != total %d", sum, r.TotalListings)
	}
	if r.SellerTypes[models.SellerPro] != 3 || r.SellerTypes[models.SellerParticular] != 2 {
		t.Errorf("SellerTypes: %v", r.SellerTypes)
	}
}

func TestInsightTopCitiesTieOrder(t *testing.T) {
	recs := []models.Record{
		{ID: "1", City: "Brest"},
		{ID: "2", City: "Lille"},
		{ID: "3", City: "Lille"},
		{ID: "4", City: "Brest"},
		{ID: "5", City: "Caen"},
		{ID: "6", City: "Dijon"},
		{ID: "7", City: "Dijon"},
		{ID: "8", City: "Dijon"},
	}
	r := NewInsightService(newTestLogger()).Generate(recs)

	want := []models.CityCount{
		{City: "Dijon", Count: 3},
		{City: "Brest", Count: 2},
		{City: "Lille", Count: 2},
		{City: "Caen", Count: 1},
	}
	if len(r.TopCities) != len(want) {
		t.Fatalf("TopCities: got %v", r.TopCities)
	}
	for i := range want {
		if r.TopCities[i] != want[i] {
			t.Errorf("TopCities[%d]: got %v, want %v", i, r.TopCities[i], want[i])
		}
	}
}

func TestInsightTopCitiesLimit(t *testing.T) {
	var recs []models.Record
	for i := 0; i < 15; i++ {
		recs = append(recs, models.Record{ID: string(rune('a' + i)), City: string(rune('A' + i))})
	}
	r := NewInsightService(newTestLogger()).Generate(recs)
	if len(r.TopCities) != 10 {
		t.Errorf("TopCities len: got %d, want 10", len(r.TopCities))
	}
	if r.TopCities[0].City != "A" {
		t.Errorf("first city: got %q, want A", r.TopCities[0].City)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	r := NewInsightService(newTestLogger()).Generate(nil)
	if r.TotalListings != 0 || r.Price.Present {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestInsightPrintShowsMissingPrice(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate([]models.Record{{ID: "1", City: "Lyon"}}))

	out := buf.String()
	if !strings.Contains(out, "n/a") {
		t.Errorf("expected n/a price line, got:\n%s", out)
	}
	if !strings.Contains(out, "Lyon") {
		t.Errorf("expected city in output, got:\n%s", out)
	}
}
