package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"lbc-bureaux-scraper/models"
	"lbc-bureaux-scraper/utils"
)

// ErrNothingToExport is returned when no exportable record is left.
var ErrNothingToExport = errors.New("nothing to export")

const (
	filePrefix      = "leboncoin_bureaux_commerces"
	timestampLayout = "20060102_150405"
)

// Columns is the export schema, in order. raw_attributes is dropped unless
// requested.
var Columns = []string{
	"id", "title", "description", "price", "url",
	"publication_date", "expiration_date", "category", "status", "favorites",
	"city", "zipcode", "department", "region", "latitude", "longitude",
	"seller_type", "seller_name", "has_phone",
	"images_count", "first_image_url",
	"surface", "real_estate_type", "energy_class", "ges", "furnished",
	"raw_attributes", "scraped_at",
	"pro_store_name", "pro_siret", "pro_siren", "pro_activity_sector", "pro_website",
}

// ExportOptions controls naming and content of one export.
type ExportOptions struct {
	// Filename is used as given when non-empty. A bare name is placed in
	// the export directory.
	Filename string
	// City tags synthesized file names; empty means "all".
	City          string
	RawAttributes bool
}

// CSVWriter exports records to UTF-8 CSV files under a directory.
type CSVWriter struct {
	dir    string
	logger *utils.Logger
	now    func() time.Time
}

// NewCSVWriter creates a writer for the given export directory.
func NewCSVWriter(dir string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, logger: logger, now: time.Now}
}

// Export writes the exportable records and returns the path written. An
// existing file is never overwritten: the new content goes to a
// timestamp-suffixed sibling instead.
func (c *CSVWriter) Export(records []models.Record, opts ExportOptions) (string, error) {
	rows := models.ExportableRecords(records)
	if len(rows) == 0 {
		return "", ErrNothingToExport
	}
	if skipped := len(records) - len(rows); skipped > 0 {
		c.logger.Warn("[csv] Skipping %d listing(s) that failed extraction", skipped)
	}

	path := c.targetPath(opts)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("csv: create output dir: %w", err)
	}

	f, path, err := c.createUnique(path)
	if err != nil {
		return "", err
	}

	if err := writeRecords(f, rows, opts.RawAttributes); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("csv: close %q: %w", path, err)
	}

	c.logger.Info("[csv] Saved %d listings to %s", len(rows), path)
	return path, nil
}

func (c *CSVWriter) targetPath(opts ExportOptions) string {
	name := opts.Filename
	if name == "" {
		city := "all"
		if opts.City != "" {
			city = sanitizeTag(opts.City)
		}
		name = fmt.Sprintf("%s_%s_%s.csv", filePrefix, city, c.now().Format(timestampLayout))
	}
	if filepath.Dir(name) == "." {
		return filepath.Join(c.dir, name)
	}
	return name
}

// createUnique opens path for writing, failing if it exists. On collision
// it tries path_<timestamp>.ext, then path_<timestamp>_N.ext.
func (c *CSVWriter) createUnique(path string) (*os.File, string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := c.now().Format(timestampLayout)

	candidate := path
	for i := 0; ; i++ {
		switch i {
		case 0:
		case 1:
			candidate = fmt.Sprintf("%s_%s%s", base, stamp, ext)
		default:
			candidate = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
		}

		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			if i > 0 {
				c.logger.Warn("[csv] %s already exists, writing to %s", path, candidate)
			}
			return f, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("csv: create file %q: %w", candidate, err)
		}
	}
}

func writeRecords(out io.Writer, rows []models.Record, withRaw bool) error {
	w := csv.NewWriter(out)

	header := columns(withRaw)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for i := range rows {
		if err := w.Write(recordRow(&rows[i], withRaw)); err != nil {
			return fmt.Errorf("csv: write row %s: %w", rows[i].ID, err)
		}
	}

	w.Flush()
	return w.Error()
}

func columns(withRaw bool) []string {
	if withRaw {
		return Columns
	}
	out := make([]string, 0, len(Columns)-1)
	for _, col := range Columns {
		if col != "raw_attributes" {
			out = append(out, col)
		}
	}
	return out
}

func recordRow(r *models.Record, withRaw bool) []string {
	row := []string{
		r.ID, r.Title, r.Description, formatInt(r.Price), r.URL,
		r.PublicationDate, r.ExpirationDate, r.Category, r.Status, strconv.Itoa(r.Favorites),
		r.City, r.Zipcode, r.Department, r.Region, formatFloat(r.Latitude), formatFloat(r.Longitude),
		r.SellerType, r.SellerName, strconv.FormatBool(r.HasPhone),
		strconv.Itoa(r.ImagesCount), r.FirstImageURL,
		formatInt(r.Surface), r.RealEstateType, r.EnergyClass, r.GES, r.Furnished,
	}
	if withRaw {
		row = append(row, r.RawAttributes)
	}
	return append(row,
		r.ScrapedAt.Format(time.RFC3339),
		r.ProStoreName, r.ProSiret, r.ProSiren, r.ProActivitySector, r.ProWebsite,
	)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// sanitizeTag keeps letters and digits of a location tag and replaces
// everything else with '-'.
func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, strings.TrimSpace(s))
}
