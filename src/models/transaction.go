package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// InsiderTransaction is one reported trade/grant line within a filing. Rows
// are never mutated or deleted by the pipeline; the UNIQUE constraint on
// (accession_number, insider_id, transaction_date, shares_traded) is the sole
// de-duplication key.
type InsiderTransaction struct {
	ID                  int64            `json:"id"`
	CompanyID           int64            `json:"company_id"`
	InsiderID           int64            `json:"insider_id"`
	FilingDate          string           `json:"filing_date"`      // YYYY-MM-DD
	TransactionDate     string           `json:"transaction_date"` // YYYY-MM-DD
	FormType            string           `json:"form_type"`
	TransactionCode     string           `json:"transaction_code,omitempty"`
	TransactionType     string           `json:"transaction_type"`
	InsiderRelationship string           `json:"insider_relationship,omitempty"`
	SecurityTitle       string           `json:"security_title,omitempty"`
	SharesTraded        *decimal.Decimal `json:"shares_traded,omitempty"`
	SharePrice          *decimal.Decimal `json:"share_price,omitempty"`
	TransactionValueUSD *decimal.Decimal `json:"transaction_value_usd,omitempty"`
	SharesOwnedAfter    *decimal.Decimal `json:"shares_owned_after,omitempty"`
	OwnershipType       string           `json:"ownership_type,omitempty"`
	AccessionNumber     string           `json:"accession_number"`
	CreatedAt           time.Time        `json:"created_at"`
}

// Insert writes the transaction inside the given database transaction.
// A uniqueness violation is returned untranslated so the caller can treat it
// as the expected duplicate-skip outcome.
func (t *InsiderTransaction) Insert(tx *sql.Tx) error {
	query := `INSERT INTO insider_transactions
		(company_id, insider_id, filing_date, transaction_date, form_type, transaction_code,
		 transaction_type, insider_relationship, security_title, shares_traded, share_price,
		 transaction_value_usd, shares_owned_after, ownership_type, accession_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.Exec(query,
		t.CompanyID, t.InsiderID, t.FilingDate, t.TransactionDate, t.FormType,
		nullIfEmpty(t.TransactionCode), t.TransactionType, nullIfEmpty(t.InsiderRelationship),
		nullIfEmpty(t.SecurityTitle), decimalToValue(t.SharesTraded), decimalToValue(t.SharePrice),
		decimalToValue(t.TransactionValueUSD), decimalToValue(t.SharesOwnedAfter),
		nullIfEmpty(t.OwnershipType), t.AccessionNumber)
	return err
}

// decimalToValue stores decimals as their exact string form. REAL columns
// would reintroduce the float rounding the decimal type exists to avoid.
func decimalToValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// ScanDecimal converts a nullable TEXT column back into a decimal pointer.
func ScanDecimal(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}
