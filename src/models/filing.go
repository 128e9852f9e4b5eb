package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FilingMetadata represents one hit from the EDGAR full-text search API.
type FilingMetadata struct {
	AccessionNumber string `json:"accession_no"`
	FiledAt         string `json:"filed_at"` // e.g. "2024-01-26T18:31:02-05:00"
	FormType        string `json:"form_type"`
	CompanyName     string `json:"company_name"`
	CIK             string `json:"cik"`
	PrimaryDocument string `json:"primary_document"`
	LinkToFiling    string `json:"link_to_filing"`
}

// Transaction type derived from the regulatory transaction code.
const (
	TransactionTypeBuy      = "BUY"
	TransactionTypeSell     = "SELL"
	TransactionTypeExercise = "EXERCISE"
	TransactionTypeOther    = "OTHER"
)

var transactionCodeMap = map[string]string{
	"P": TransactionTypeBuy,
	"S": TransactionTypeSell,
	"M": TransactionTypeExercise,
}

// TransactionTypeFromCode maps a raw Form 4 transaction code to its semantic
// type. Unknown or absent codes map to OTHER.
func TransactionTypeFromCode(code string) string {
	if code == "" {
		return TransactionTypeOther
	}
	if t, ok := transactionCodeMap[strings.ToUpper(code)]; ok {
		return t
	}
	return TransactionTypeOther
}

// NormalizedTransaction is one parsed trade/grant line extracted from a Form 4
// filing, independent of storage. Nil pointer fields mean the filing did not
// carry the value.
type NormalizedTransaction struct {
	IssuerCIK    string
	IssuerName   string
	IssuerTicker string

	OwnerCIK          string
	OwnerName         string
	OwnerRelationship string

	FilingDate      string // YYYY-MM-DD, falls back to periodOfReport
	PeriodOfReport  string
	FormType        string
	AccessionNumber string

	TransactionDate     string // YYYY-MM-DD as reported
	TransactionCode     string
	TransactionType     string
	SecurityTitle       string
	SharesTraded        *decimal.Decimal
	SharePrice          *decimal.Decimal
	TransactionValueUSD *decimal.Decimal
	SharesOwnedAfter    *decimal.Decimal
	OwnershipType       string // "D" direct / "I" indirect
}
