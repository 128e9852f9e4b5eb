package services

import (
	"context"
	"time"

	"github.com/polyxpand-rgb/sec-insider/src/models"
)

// RegistryClient defines the filings-registry operations the ingestion
// pipeline needs. Implemented by edgar.Client; tests substitute a stub.
type RegistryClient interface {
	FetchFilingMetadata(ctx context.Context, startDate, endDate time.Time) ([]models.FilingMetadata, error)
	FetchRawDocument(ctx context.Context, meta models.FilingMetadata) (string, error)
}

// IngestionService defines the interface for one full ingestion pass over a
// date window. Re-running the same window is always safe: duplicates are
// detected by the store's uniqueness constraint and silently skipped.
type IngestionService interface {
	Ingest(ctx context.Context, startDate, endDate time.Time) (*IngestResult, error)
}

// ReportService defines the read-side queries over the persisted tables.
type ReportService interface {
	TopTrades(startDate, endDate time.Time, limit int) ([]TradeReport, error)
	SectorActivity(startDate, endDate time.Time, sector string) ([]SectorActivityReport, error)
	PersonActivity(name string, days int) ([]TradeReport, error)
}
