package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Company represents a filer/issuer. One row per issuer CIK.
type Company struct {
	ID        int64     `json:"id"`
	IssuerCIK string    `json:"issuer_cik"`
	Name      string    `json:"name"`
	Ticker    string    `json:"ticker,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetCompanyByCIK returns the company for the given issuer CIK, or nil when
// no row exists.
func GetCompanyByCIK(db *sql.DB, issuerCIK string) (*Company, error) {
	query := `SELECT id, issuer_cik, name, COALESCE(ticker, ''), COALESCE(sector, ''), COALESCE(industry, '')
		FROM companies WHERE issuer_cik = ?`
	var c Company
	err := db.QueryRow(query, issuerCIK).Scan(&c.ID, &c.IssuerCIK, &c.Name, &c.Ticker, &c.Sector, &c.Industry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying company by CIK %s: %w", issuerCIK, err)
	}
	return &c, nil
}

// Create inserts the company and stores the generated row id on c.
func (c *Company) Create(db *sql.DB) error {
	query := `INSERT INTO companies (issuer_cik, name, ticker, sector, industry) VALUES (?, ?, ?, ?, ?)`
	result, err := db.Exec(query, c.IssuerCIK, c.Name, nullIfEmpty(c.Ticker), nullIfEmpty(c.Sector), nullIfEmpty(c.Industry))
	if err != nil {
		return fmt.Errorf("error inserting company (CIK %s): %w", c.IssuerCIK, err)
	}
	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error retrieving company id (CIK %s): %w", c.IssuerCIK, err)
	}
	return nil
}

// UpdateIdentity refreshes the mutable display fields of an existing company.
func (c *Company) UpdateIdentity(db *sql.DB) error {
	query := `UPDATE companies SET name = ?, ticker = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := db.Exec(query, c.Name, nullIfEmpty(c.Ticker), c.ID); err != nil {
		return fmt.Errorf("error updating company %d: %w", c.ID, err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
