package storage

import (
	"context"

	"github.com/google/uuid"

	"lbc-bureaux-scraper/models"
)

// RecordExporter writes records to a file and returns its path.
type RecordExporter interface {
	Export(records []models.Record, opts ExportOptions) (string, error)
}

// RecordSink is an additional destination for the records of a run.
type RecordSink interface {
	Write(ctx context.Context, runID uuid.UUID, records []models.Record) error
	Close() error
}
