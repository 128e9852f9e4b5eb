package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/polyxpand-rgb/sec-insider/src/database"
	"github.com/polyxpand-rgb/sec-insider/src/logger"
	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/polyxpand-rgb/sec-insider/src/parsers"
	"github.com/polyxpand-rgb/sec-insider/src/utils"
)

type ingestionServiceImpl struct {
	client RegistryClient
	parser parsers.Form4Parser
	db     *sql.DB
	// entityCache avoids re-querying companies/insiders that were already
	// resolved earlier in the run. Thousands of filings share issuers.
	entityCache *cache.Cache
}

func NewIngestionService(
	client RegistryClient,
	parser parsers.Form4Parser,
	db *sql.DB,
	entityCache *cache.Cache,
) IngestionService {
	return &ingestionServiceImpl{
		client:      client,
		parser:      parser,
		db:          db,
		entityCache: entityCache,
	}
}

// Ingest drives one full pass: metadata for the window, then per filing
// fetch, normalize, resolve entities, and insert each candidate in its own
// commit. Duplicate and undateable candidates are counted, not fatal.
func (s *ingestionServiceImpl) Ingest(ctx context.Context, startDate, endDate time.Time) (*IngestResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("Ingest START", "startDate", utils.FormatDate(startDate), "endDate", utils.FormatDate(endDate))

	metadataList, err := s.client.FetchFilingMetadata(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("error fetching filing metadata: %w", err)
	}

	result := NewIngestResult()
	for _, meta := range metadataList {
		raw, err := s.client.FetchRawDocument(ctx, meta)
		if err != nil {
			return nil, fmt.Errorf("error fetching filing %s: %w", meta.AccessionNumber, err)
		}
		result.FilingsProcessed++

		records := s.parser.Parse(raw)
		if len(records) == 0 {
			result.UnparsableFilings++
			logger.L.Warn("Filing yielded no transactions", "accession", meta.AccessionNumber)
			continue
		}

		for _, record := range records {
			applyMetadataDefaults(&record, meta)
			reason, err := s.persistRecord(record)
			if err != nil {
				return nil, err
			}
			if reason != SkipNone {
				logger.L.Debug("Skipping transaction candidate",
					"accession", record.AccessionNumber, "reason", string(reason))
			}
			result.recordOutcome(reason)
		}
	}

	logger.L.Info("Ingest END",
		"filings", result.FilingsProcessed,
		"inserted", result.TransactionsInserted,
		"duration", time.Since(overallStartTime))
	return result, nil
}

// applyMetadataDefaults fills filing-level fields the document itself
// omitted. Metadata is the fallback source of truth for them.
func applyMetadataDefaults(record *models.NormalizedTransaction, meta models.FilingMetadata) {
	if record.FilingDate == "" && len(meta.FiledAt) >= 10 {
		record.FilingDate = meta.FiledAt[:10]
	}
	if record.AccessionNumber == "" {
		record.AccessionNumber = meta.AccessionNumber
	}
	if record.FormType == "" {
		record.FormType = meta.FormType
	}
	if record.FormType == "" {
		record.FormType = "4"
	}
}

// persistRecord resolves entities and attempts one transaction insert with
// its own commit, so a failure on one record never discards the others
// already persisted in the run.
func (s *ingestionServiceImpl) persistRecord(record models.NormalizedTransaction) (SkipReason, error) {
	if record.IssuerCIK == "" {
		return SkipMissingIssuer, nil
	}

	company, err := s.resolveCompany(record)
	if err != nil {
		return SkipNone, err
	}
	insider, err := s.resolveInsider(record)
	if err != nil {
		return SkipNone, err
	}

	filingDate := utils.ParseDate(record.FilingDate)
	if filingDate.IsZero() {
		filingDate = utils.ParseDate(record.PeriodOfReport)
	}
	transactionDate := utils.ParseDate(record.TransactionDate)
	if filingDate.IsZero() || transactionDate.IsZero() {
		return SkipUndated, nil
	}

	candidate := models.InsiderTransaction{
		CompanyID:           company.ID,
		InsiderID:           insider.ID,
		FilingDate:          utils.FormatDate(filingDate),
		TransactionDate:     utils.FormatDate(transactionDate),
		FormType:            record.FormType,
		TransactionCode:     record.TransactionCode,
		TransactionType:     record.TransactionType,
		InsiderRelationship: record.OwnerRelationship,
		SecurityTitle:       record.SecurityTitle,
		SharesTraded:        record.SharesTraded,
		SharePrice:          record.SharePrice,
		TransactionValueUSD: record.TransactionValueUSD,
		SharesOwnedAfter:    record.SharesOwnedAfter,
		OwnershipType:       record.OwnershipType,
		AccessionNumber:     record.AccessionNumber,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return SkipNone, fmt.Errorf("error beginning database transaction: %w", err)
	}
	if err := candidate.Insert(tx); err != nil {
		tx.Rollback()
		if database.IsUniqueConstraintErr(err) {
			// Expected on overlapping windows; the uniqueness constraint is
			// the idempotence mechanism.
			return SkipDuplicate, nil
		}
		return SkipNone, fmt.Errorf("error inserting transaction (accession %s): %w", candidate.AccessionNumber, err)
	}
	if err := tx.Commit(); err != nil {
		return SkipNone, fmt.Errorf("error committing transaction (accession %s): %w", candidate.AccessionNumber, err)
	}
	return SkipNone, nil
}

// resolveCompany finds or creates the company for the record's issuer CIK and
// refreshes mutable display fields when a newer filing disagrees.
func (s *ingestionServiceImpl) resolveCompany(record models.NormalizedTransaction) (*models.Company, error) {
	cacheKey := "company:" + record.IssuerCIK

	var company *models.Company
	if cached, found := s.entityCache.Get(cacheKey); found {
		company = cached.(*models.Company)
	} else {
		var err error
		company, err = models.GetCompanyByCIK(s.db, record.IssuerCIK)
		if err != nil {
			return nil, err
		}
	}

	issuerName := record.IssuerName
	if issuerName == "" {
		issuerName = "Unknown"
	}

	if company == nil {
		company = &models.Company{
			IssuerCIK: record.IssuerCIK,
			Name:      issuerName,
			Ticker:    record.IssuerTicker,
		}
		if err := company.Create(s.db); err != nil {
			if !database.IsUniqueConstraintErr(err) {
				return nil, err
			}
			// Lost a creation race; the winner's row is authoritative.
			company, err = models.GetCompanyByCIK(s.db, record.IssuerCIK)
			if err != nil {
				return nil, err
			}
			if company == nil {
				return nil, fmt.Errorf("company %s vanished after uniqueness conflict", record.IssuerCIK)
			}
		}
	} else {
		changed := false
		if record.IssuerName != "" && company.Name != record.IssuerName {
			company.Name = record.IssuerName
			changed = true
		}
		if record.IssuerTicker != "" && company.Ticker != record.IssuerTicker {
			company.Ticker = record.IssuerTicker
			changed = true
		}
		if changed {
			if err := company.UpdateIdentity(s.db); err != nil {
				return nil, err
			}
		}
	}

	s.entityCache.Set(cacheKey, company, cache.DefaultExpiration)
	return company, nil
}

// resolveInsider finds or creates the reporting person, matching by owner CIK
// when present and by normalized name otherwise. A CIK observed for a
// name-matched row is backfilled.
func (s *ingestionServiceImpl) resolveInsider(record models.NormalizedTransaction) (*models.Insider, error) {
	ownerName := record.OwnerName
	if ownerName == "" {
		ownerName = "Unknown"
	}
	normalizedName := models.NormalizeOwnerName(ownerName)

	cacheKey := "insider:name:" + normalizedName
	if record.OwnerCIK != "" {
		cacheKey = "insider:cik:" + record.OwnerCIK
	}
	if cached, found := s.entityCache.Get(cacheKey); found {
		return cached.(*models.Insider), nil
	}

	var insider *models.Insider
	var err error
	if record.OwnerCIK != "" {
		insider, err = models.GetInsiderByCIK(s.db, record.OwnerCIK)
		if err != nil {
			return nil, err
		}
		if insider == nil {
			// The person may exist from an earlier filing that omitted the
			// CIK; match by name and record the CIK on that row.
			byName, err := models.GetInsiderByNormalizedName(s.db, normalizedName)
			if err != nil {
				return nil, err
			}
			if byName != nil && byName.OwnerCIK == "" {
				if err := byName.BackfillCIK(s.db, record.OwnerCIK); err != nil {
					return nil, err
				}
				insider = byName
			}
		}
	} else {
		insider, err = models.GetInsiderByNormalizedName(s.db, normalizedName)
		if err != nil {
			return nil, err
		}
	}

	if insider == nil {
		insider = &models.Insider{
			OwnerCIK:       record.OwnerCIK,
			Name:           ownerName,
			NormalizedName: normalizedName,
		}
		if err := insider.Create(s.db); err != nil {
			if !database.IsUniqueConstraintErr(err) || record.OwnerCIK == "" {
				return nil, err
			}
			insider, err = models.GetInsiderByCIK(s.db, record.OwnerCIK)
			if err != nil {
				return nil, err
			}
			if insider == nil {
				return nil, fmt.Errorf("insider %s vanished after uniqueness conflict", record.OwnerCIK)
			}
		}
	}

	s.entityCache.Set(cacheKey, insider, cache.DefaultExpiration)
	return insider, nil
}
