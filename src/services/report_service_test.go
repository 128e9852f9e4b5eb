package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReportService(t *testing.T, db *sql.DB) ReportService {
	t.Helper()
	return NewReportService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
}

func seedCompany(t *testing.T, db *sql.DB, cik, name, ticker, sector string) *models.Company {
	t.Helper()
	company := &models.Company{IssuerCIK: cik, Name: name, Ticker: ticker, Sector: sector}
	require.NoError(t, company.Create(db))
	return company
}

func seedInsider(t *testing.T, db *sql.DB, cik, name string) *models.Insider {
	t.Helper()
	insider := &models.Insider{OwnerCIK: cik, Name: name}
	require.NoError(t, insider.Create(db))
	return insider
}

func seedTransaction(t *testing.T, db *sql.DB, companyID, insiderID int64, date, txType, accession string, value *decimal.Decimal) {
	t.Helper()
	shares := decimal.NewFromInt(100)
	candidate := models.InsiderTransaction{
		CompanyID:       companyID,
		InsiderID:       insiderID,
		FilingDate:      date,
		TransactionDate: date,
		FormType:        "4",
		TransactionType: txType,
		SharesTraded:    &shares,
		// value stays nil for rows that reported no price
		TransactionValueUSD: value,
		AccessionNumber:     accession,
	}
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, candidate.Insert(tx))
	require.NoError(t, tx.Commit())
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestTopTradesOrdersByValue(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "Technology")
	exxon := seedCompany(t, db, "0000034088", "Exxon Mobil Corp", "XOM", "Energy")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")

	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-25", models.TransactionTypeSell, "acc-1", dec("95000.00"))
	seedTransaction(t, db, exxon.ID, cook.ID, "2024-01-24", models.TransactionTypeBuy, "acc-2", dec("250000.00"))
	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-23", models.TransactionTypeBuy, "acc-3", dec("1200.50"))
	// Valueless rows never appear in the report.
	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-22", models.TransactionTypeOther, "acc-4", nil)

	service := newTestReportService(t, db)
	start, end := testWindow()
	reports, err := service.TopTrades(start, end, 2)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, "Exxon Mobil Corp", reports[0].CompanyName)
	require.NotNil(t, reports[0].TransactionValueUSD)
	assert.Equal(t, "250000.00", reports[0].TransactionValueUSD.StringFixed(2))
	assert.Equal(t, "Apple Inc.", reports[1].CompanyName)
	assert.Equal(t, "95000.00", reports[1].TransactionValueUSD.StringFixed(2))
}

func TestTopTradesRespectsDateWindow(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")

	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-25", models.TransactionTypeSell, "acc-in", dec("95000.00"))
	seedTransaction(t, db, apple.ID, cook.ID, "2023-12-01", models.TransactionTypeSell, "acc-out", dec("500000.00"))

	service := newTestReportService(t, db)
	start, end := testWindow()
	reports, err := service.TopTrades(start, end, 10)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "2024-01-25", reports[0].TransactionDate)
}

func TestTopTradesServesCachedResult(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")
	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-25", models.TransactionTypeSell, "acc-1", dec("95000.00"))

	service := newTestReportService(t, db)
	start, end := testWindow()
	first, err := service.TopTrades(start, end, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A row inserted after the first query is invisible until the cache
	// entry expires.
	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-26", models.TransactionTypeBuy, "acc-2", dec("1000.00"))
	second, err := service.TopTrades(start, end, 10)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestSectorActivityAggregatesExactly(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "Technology")
	msft := seedCompany(t, db, "0000789019", "Microsoft Corporation", "MSFT", "Technology")
	exxon := seedCompany(t, db, "0000034088", "Exxon Mobil Corp", "XOM", "Energy")
	nosector := seedCompany(t, db, "0000000001", "Mystery Holdings", "", "")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")

	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-25", models.TransactionTypeSell, "acc-1", dec("0.10"))
	seedTransaction(t, db, msft.ID, cook.ID, "2024-01-24", models.TransactionTypeBuy, "acc-2", dec("0.20"))
	seedTransaction(t, db, exxon.ID, cook.ID, "2024-01-23", models.TransactionTypeBuy, "acc-3", dec("50000.00"))
	seedTransaction(t, db, nosector.ID, cook.ID, "2024-01-22", models.TransactionTypeOther, "acc-4", dec("1.00"))

	service := newTestReportService(t, db)
	start, end := testWindow()
	reports, err := service.SectorActivity(start, end, "")
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, "Energy", reports[0].Sector)
	assert.Equal(t, "50000.00", reports[0].TotalValueUSD.StringFixed(2))

	bySector := make(map[string]SectorActivityReport)
	for _, r := range reports {
		bySector[r.Sector] = r
	}
	tech := bySector["Technology"]
	assert.Equal(t, 2, tech.TradeCount)
	// 0.10 + 0.20 must come out exactly 0.30, not a float artifact.
	assert.True(t, tech.TotalValueUSD.Equal(decimal.RequireFromString("0.30")))
	assert.Equal(t, 1, bySector["UNKNOWN"].TradeCount)
}

func TestSectorActivityFiltersBySector(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "Technology")
	exxon := seedCompany(t, db, "0000034088", "Exxon Mobil Corp", "XOM", "Energy")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")

	seedTransaction(t, db, apple.ID, cook.ID, "2024-01-25", models.TransactionTypeSell, "acc-1", dec("95000.00"))
	seedTransaction(t, db, exxon.ID, cook.ID, "2024-01-24", models.TransactionTypeBuy, "acc-2", dec("250000.00"))

	service := newTestReportService(t, db)
	start, end := testWindow()
	reports, err := service.SectorActivity(start, end, "Energy")
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "Energy", reports[0].Sector)
	assert.Equal(t, 1, reports[0].TradeCount)
}

func TestPersonActivityMatchesNormalizedName(t *testing.T) {
	db := newTestDB(t)
	apple := seedCompany(t, db, "0000320193", "Apple Inc.", "AAPL", "")
	cook := seedInsider(t, db, "0001214156", "COOK TIMOTHY D")
	other := seedInsider(t, db, "0009999999", "NADELLA SATYA")

	recent := time.Now().AddDate(0, 0, -5).Format("2006-01-02")
	older := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	stale := time.Now().AddDate(0, 0, -400).Format("2006-01-02")

	seedTransaction(t, db, apple.ID, cook.ID, recent, models.TransactionTypeSell, "acc-1", dec("95000.00"))
	seedTransaction(t, db, apple.ID, cook.ID, older, models.TransactionTypeBuy, "acc-2", dec("1000.00"))
	seedTransaction(t, db, apple.ID, cook.ID, stale, models.TransactionTypeBuy, "acc-3", dec("7.00"))
	seedTransaction(t, db, apple.ID, other.ID, recent, models.TransactionTypeBuy, "acc-4", dec("500.00"))

	service := newTestReportService(t, db)
	reports, err := service.PersonActivity("  Cook Timothy D  ", 90)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, recent, reports[0].TransactionDate)
	assert.Equal(t, older, reports[1].TransactionDate)
	for _, r := range reports {
		assert.Equal(t, "COOK TIMOTHY D", r.InsiderName)
	}
}
