package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"lbc-bureaux-scraper/models"
)

// pgColumns is the column list of the listings table, in insert order.
var pgColumns = []string{
	"list_id", "run_id", "title", "price", "url", "city", "zipcode",
	"department", "region", "seller_type", "seller_name", "surface",
	"real_estate_type", "energy_class", "ges", "furnished",
	"publication_date", "scraped_at",
}

// PostgresWriter upserts exported records into PostgreSQL, one row per
// listing id. The latest run wins.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lbc_listings (
			list_id          TEXT         PRIMARY KEY,
			run_id           UUID         NOT NULL,
			title            TEXT         NOT NULL DEFAULT '',
			price            INTEGER,
			url              TEXT         NOT NULL DEFAULT '',
			city             TEXT         NOT NULL DEFAULT '',
			zipcode          TEXT         NOT NULL DEFAULT '',
			department       TEXT         NOT NULL DEFAULT '',
			region           TEXT         NOT NULL DEFAULT '',
			seller_type      VARCHAR(16)  NOT NULL,
			seller_name      TEXT         NOT NULL DEFAULT '',
			surface          INTEGER,
			real_estate_type TEXT         NOT NULL DEFAULT '',
			energy_class     TEXT         NOT NULL DEFAULT '',
			ges              TEXT         NOT NULL DEFAULT '',
			furnished        TEXT         NOT NULL DEFAULT '',
			publication_date TEXT         NOT NULL DEFAULT '',
			scraped_at       TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_lbc_listings_city   ON lbc_listings(city);
		CREATE INDEX IF NOT EXISTS idx_lbc_listings_price  ON lbc_listings(price);
		CREATE INDEX IF NOT EXISTS idx_lbc_listings_run_id ON lbc_listings(run_id);
	`)
	return err
}

// Write upserts the exportable records of one run in batches.
func (pw *PostgresWriter) Write(ctx context.Context, runID uuid.UUID, records []models.Record) error {
	rows := models.ExportableRecords(records)
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		query, args := buildUpsert(runID, rows[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

func buildUpsert(runID uuid.UUID, batch []models.Record) (string, []interface{}) {
	width := len(pgColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	// A listing seen twice in one batch would make ON CONFLICT fail.
	seen := make(map[string]struct{}, len(batch))

	for _, r := range batch {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}

		base := len(valueArgs)
		placeholders := make([]string, width)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			r.ID, runID.String(), r.Title, nullInt(r.Price), r.URL, r.City, r.Zipcode,
			r.Department, r.Region, r.SellerType, r.SellerName, nullInt(r.Surface),
			r.RealEstateType, r.EnergyClass, r.GES, r.Furnished,
			r.PublicationDate, r.ScrapedAt)
	}

	updates := make([]string, 0, width-1)
	for _, col := range pgColumns[1:] {
		updates = append(updates, col+" = EXCLUDED."+col)
	}

	query := fmt.Sprintf(`
		INSERT INTO lbc_listings (%s)
		VALUES %s
		ON CONFLICT (list_id) DO UPDATE SET %s
	`, strings.Join(pgColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))

	return query, valueArgs
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

// CountRun returns how many rows the given run last touched.
func (pw *PostgresWriter) CountRun(ctx context.Context, runID uuid.UUID) (int, error) {
	var n int
	err := pw.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lbc_listings WHERE run_id = $1`, runID.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count run: %w", err)
	}
	return n, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
