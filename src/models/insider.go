package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Insider represents a reporting person (officer/director/owner). Resolved by
// owner CIK when present, otherwise by normalized name.
type Insider struct {
	ID             int64     `json:"id"`
	OwnerCIK       string    `json:"owner_cik,omitempty"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	PersonType     string    `json:"person_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NormalizeOwnerName lowers and trims a reporting-person name so filings that
// spell the same owner differently dedup to one row.
func NormalizeOwnerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const insiderColumns = `id, COALESCE(owner_cik, ''), name, normalized_name, COALESCE(person_type, 'INSIDER')`

func scanInsider(row *sql.Row) (*Insider, error) {
	var i Insider
	err := row.Scan(&i.ID, &i.OwnerCIK, &i.Name, &i.NormalizedName, &i.PersonType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetInsiderByCIK returns the insider with the given owner CIK, or nil.
func GetInsiderByCIK(db *sql.DB, ownerCIK string) (*Insider, error) {
	row := db.QueryRow(`SELECT `+insiderColumns+` FROM insiders WHERE owner_cik = ?`, ownerCIK)
	insider, err := scanInsider(row)
	if err != nil {
		return nil, fmt.Errorf("error querying insider by CIK %s: %w", ownerCIK, err)
	}
	return insider, nil
}

// GetInsiderByNormalizedName returns the insider with the given normalized
// name, or nil. Fallback lookup for filings that omit the owner CIK.
func GetInsiderByNormalizedName(db *sql.DB, normalizedName string) (*Insider, error) {
	row := db.QueryRow(`SELECT `+insiderColumns+` FROM insiders WHERE normalized_name = ?`, normalizedName)
	insider, err := scanInsider(row)
	if err != nil {
		return nil, fmt.Errorf("error querying insider by name %q: %w", normalizedName, err)
	}
	return insider, nil
}

// Create inserts the insider and stores the generated row id on i.
func (i *Insider) Create(db *sql.DB) error {
	if i.NormalizedName == "" {
		i.NormalizedName = NormalizeOwnerName(i.Name)
	}
	if i.PersonType == "" {
		i.PersonType = "INSIDER"
	}
	query := `INSERT INTO insiders (owner_cik, name, normalized_name, person_type) VALUES (?, ?, ?, ?)`
	result, err := db.Exec(query, nullIfEmpty(i.OwnerCIK), i.Name, i.NormalizedName, i.PersonType)
	if err != nil {
		return fmt.Errorf("error inserting insider %q: %w", i.Name, err)
	}
	i.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error retrieving insider id for %q: %w", i.Name, err)
	}
	return nil
}

// BackfillCIK records a newly observed owner CIK on a row that was matched by
// normalized name before the CIK was known.
func (i *Insider) BackfillCIK(db *sql.DB, ownerCIK string) error {
	query := `UPDATE insiders SET owner_cik = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := db.Exec(query, ownerCIK, i.ID); err != nil {
		return fmt.Errorf("error backfilling CIK for insider %d: %w", i.ID, err)
	}
	i.OwnerCIK = ownerCIK
	return nil
}
