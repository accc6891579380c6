package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchPage is one page of search results as returned by the marketplace.
type SearchPage struct {
	Listings []*RawListing
	Total    int
	// MaxPages is the last page index the marketplace will serve for the
	// query.
	MaxPages int
}

// Session accumulates the records of one collection run, in discovery
// order. It is only ever appended to.
type Session struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Pages     int
	Records   []Record
}

// NewSession starts an empty session with a fresh run id.
func NewSession() *Session {
	return &Session{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
}

// Append adds records at the end of the session.
func (s *Session) Append(recs ...Record) {
	s.Records = append(s.Records, recs...)
}

// Exportable returns the records that are not extraction-error markers.
func (s *Session) Exportable() []Record {
	return ExportableRecords(s.Records)
}

// ExportableRecords filters out extraction-error markers.
func ExportableRecords(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if !r.Failed() {
			out = append(out, r)
		}
	}
	return out
}
