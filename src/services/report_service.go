package services

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/polyxpand-rgb/sec-insider/src/logger"
	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/polyxpand-rgb/sec-insider/src/utils"
	"github.com/shopspring/decimal"
)

const (
	ckTopTrades      = "report_top_trades_%s_%s_%d"
	ckSectorActivity = "report_sector_activity_%s_%s_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// TradeReport is one row of the top-trades and person-activity reports.
type TradeReport struct {
	CompanyName         string           `json:"company_name"`
	Ticker              string           `json:"ticker,omitempty"`
	InsiderName         string           `json:"insider_name"`
	TransactionDate     string           `json:"transaction_date"`
	TransactionType     string           `json:"transaction_type"`
	SharesTraded        *decimal.Decimal `json:"shares_traded,omitempty"`
	SharePrice          *decimal.Decimal `json:"share_price,omitempty"`
	TransactionValueUSD *decimal.Decimal `json:"transaction_value_usd,omitempty"`
}

// SectorActivityReport aggregates transaction count and value per sector.
type SectorActivityReport struct {
	Sector        string          `json:"sector"`
	TradeCount    int             `json:"trade_count"`
	TotalValueUSD decimal.Decimal `json:"total_value_usd"`
}

type reportServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
}

func NewReportService(db *sql.DB, reportCache *cache.Cache) ReportService {
	return &reportServiceImpl{db: db, reportCache: reportCache}
}

const tradeReportSelect = `
	SELECT c.name, COALESCE(c.ticker, ''), i.name, t.transaction_date, t.transaction_type,
	       t.shares_traded, t.share_price, t.transaction_value_usd
	FROM insider_transactions t
	JOIN companies c ON c.id = t.company_id
	JOIN insiders i ON i.id = t.insider_id`

func scanTradeReports(rows *sql.Rows) ([]TradeReport, error) {
	var reports []TradeReport
	for rows.Next() {
		var r TradeReport
		var shares, price, value sql.NullString
		if err := rows.Scan(&r.CompanyName, &r.Ticker, &r.InsiderName, &r.TransactionDate,
			&r.TransactionType, &shares, &price, &value); err != nil {
			return nil, fmt.Errorf("error scanning trade report row: %w", err)
		}
		r.SharesTraded = models.ScanDecimal(shares)
		r.SharePrice = models.ScanDecimal(price)
		r.TransactionValueUSD = models.ScanDecimal(value)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// TopTrades returns the highest-value transactions in the window, descending
// by USD value. Rows without a derived value are excluded.
func (s *reportServiceImpl) TopTrades(startDate, endDate time.Time, limit int) ([]TradeReport, error) {
	if limit <= 0 {
		limit = 10
	}
	cacheKey := fmt.Sprintf(ckTopTrades, utils.FormatDate(startDate), utils.FormatDate(endDate), limit)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]TradeReport), nil
	}

	query := tradeReportSelect + `
	WHERE t.transaction_date BETWEEN ? AND ? AND t.transaction_value_usd IS NOT NULL
	ORDER BY CAST(t.transaction_value_usd AS REAL) DESC
	LIMIT ?`
	rows, err := s.db.Query(query, utils.FormatDate(startDate), utils.FormatDate(endDate), limit)
	if err != nil {
		return nil, fmt.Errorf("error querying top trades: %w", err)
	}
	defer rows.Close()

	reports, err := scanTradeReports(rows)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(cacheKey, reports, cache.DefaultExpiration)
	return reports, nil
}

// SectorActivity aggregates value and count per sector over the window. The
// summation is done in decimal arithmetic, not in SQL, to keep the totals
// exact.
func (s *reportServiceImpl) SectorActivity(startDate, endDate time.Time, sector string) ([]SectorActivityReport, error) {
	cacheKey := fmt.Sprintf(ckSectorActivity, utils.FormatDate(startDate), utils.FormatDate(endDate), sector)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]SectorActivityReport), nil
	}

	query := `
	SELECT COALESCE(c.sector, 'UNKNOWN'), t.transaction_value_usd
	FROM insider_transactions t
	JOIN companies c ON c.id = t.company_id
	WHERE t.transaction_date BETWEEN ? AND ?`
	args := []interface{}{utils.FormatDate(startDate), utils.FormatDate(endDate)}
	if sector != "" {
		query += ` AND c.sector = ?`
		args = append(args, sector)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying sector activity: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]*SectorActivityReport)
	for rows.Next() {
		var sectorName string
		var value sql.NullString
		if err := rows.Scan(&sectorName, &value); err != nil {
			return nil, fmt.Errorf("error scanning sector activity row: %w", err)
		}
		summary, ok := totals[sectorName]
		if !ok {
			summary = &SectorActivityReport{Sector: sectorName}
			totals[sectorName] = summary
		}
		summary.TradeCount++
		if d := models.ScanDecimal(value); d != nil {
			summary.TotalValueUSD = summary.TotalValueUSD.Add(*d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reports := make([]SectorActivityReport, 0, len(totals))
	for _, summary := range totals {
		reports = append(reports, *summary)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].TotalValueUSD.GreaterThan(reports[j].TotalValueUSD)
	})

	s.reportCache.Set(cacheKey, reports, cache.DefaultExpiration)
	return reports, nil
}

// PersonActivity returns a reporting person's transactions over the trailing
// window, matched by normalized name.
func (s *reportServiceImpl) PersonActivity(name string, days int) ([]TradeReport, error) {
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	query := tradeReportSelect + `
	WHERE i.normalized_name = ? AND t.transaction_date >= ?
	ORDER BY t.transaction_date DESC`
	rows, err := s.db.Query(query, models.NormalizeOwnerName(name), utils.FormatDate(cutoff))
	if err != nil {
		return nil, fmt.Errorf("error querying person activity: %w", err)
	}
	defer rows.Close()

	reports, err := scanTradeReports(rows)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("Person activity query", "name", name, "days", days, "rows", len(reports))
	return reports, nil
}
