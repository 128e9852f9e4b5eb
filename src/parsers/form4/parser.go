package form4

import (
	"encoding/xml"
	"strings"

	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/shopspring/decimal"
)

// --- XML Data Structures ---

// ownershipDocument mirrors the Form 4 XML layout. No XMLName is declared so
// the decoder accepts whatever root element a filing uses.
type ownershipDocument struct {
	DocumentType    string           `xml:"documentType"`
	PeriodOfReport  string           `xml:"periodOfReport"`
	AccessionNumber string           `xml:"accessionNumber"`
	Issuer          issuer           `xml:"issuer"`
	ReportingOwners []reportingOwner `xml:"reportingOwner"`

	NonDerivativeTable *nonDerivativeTable `xml:"nonDerivativeTable"`
	DerivativeTable    *derivativeTable    `xml:"derivativeTable"`
}

type issuer struct {
	CIK           string `xml:"issuerCik"`
	Name          string `xml:"issuerName"`
	TradingSymbol string `xml:"issuerTradingSymbol"`
}

type reportingOwner struct {
	ID           reportingOwnerID `xml:"reportingOwnerId"`
	Relationship *ownerRelation   `xml:"reportingOwnerRelationship"`
}

type reportingOwnerID struct {
	CIK  string `xml:"rptOwnerCik"`
	Name string `xml:"rptOwnerName"`
}

type ownerRelation struct {
	IsDirector        string `xml:"isDirector"`
	IsOfficer         string `xml:"isOfficer"`
	IsTenPercentOwner string `xml:"isTenPercentOwner"`
	IsOther           string `xml:"isOther"`
	OfficerTitle      string `xml:"officerTitle"`
}

type nonDerivativeTable struct {
	Transactions []transactionEntry `xml:"nonDerivativeTransaction"`
}

type derivativeTable struct {
	Transactions []transactionEntry `xml:"derivativeTransaction"`
}

// transactionEntry covers the fields shared by non-derivative and derivative
// transaction rows. Missing nested elements simply decode to empty values.
type transactionEntry struct {
	SecurityTitle   valueElem `xml:"securityTitle"`
	TransactionDate valueElem `xml:"transactionDate"`
	Coding          struct {
		TransactionCode string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares        valueElem `xml:"transactionShares"`
		PricePerShare valueElem `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
	PostAmounts struct {
		SharesOwned valueElem `xml:"sharesOwnedFollowingTransaction"`
	} `xml:"postTransactionAmounts"`
	Ownership struct {
		DirectOrIndirect valueElem `xml:"directOrIndirectOwnership"`
	} `xml:"ownershipNature"`
}

// valueElem is the Form 4 convention of wrapping values in a <value> child.
type valueElem struct {
	Value string `xml:"value"`
}

// --- Parser Implementation ---

// Parser implements the parsers.Form4Parser interface for SEC Form 4
// ownership documents.
type Parser struct{}

// NewParser creates a new instance of the Form 4 parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse normalizes one raw Form 4 filing into transaction records. An
// unparsable document yields an empty slice so a bad filing never aborts an
// ingestion run.
func (p *Parser) Parse(rawFiling string) []models.NormalizedTransaction {
	var doc ownershipDocument
	if err := xml.Unmarshal([]byte(rawFiling), &doc); err != nil {
		return nil
	}

	issuerCIK := text(doc.Issuer.CIK)
	issuerName := text(doc.Issuer.Name)
	issuerTicker := text(doc.Issuer.TradingSymbol)

	var ownerCIK, ownerName, ownerRelationship string
	if len(doc.ReportingOwners) > 0 {
		owner := doc.ReportingOwners[0]
		ownerCIK = text(owner.ID.CIK)
		ownerName = text(owner.ID.Name)
		ownerRelationship = deriveRelationship(owner.Relationship)
	}

	periodOfReport := text(doc.PeriodOfReport)
	accessionNumber := text(doc.AccessionNumber)
	formType := text(doc.DocumentType)

	shared := models.NormalizedTransaction{
		IssuerCIK:         issuerCIK,
		IssuerName:        issuerName,
		IssuerTicker:      issuerTicker,
		OwnerCIK:          ownerCIK,
		OwnerName:         ownerName,
		OwnerRelationship: ownerRelationship,
		FilingDate:        periodOfReport,
		PeriodOfReport:    periodOfReport,
		FormType:          formType,
		AccessionNumber:   accessionNumber,
	}

	var transactions []models.NormalizedTransaction
	if doc.NonDerivativeTable != nil {
		for _, entry := range doc.NonDerivativeTable.Transactions {
			transactions = append(transactions, normalizeEntry(shared, entry))
		}
	}
	if doc.DerivativeTable != nil {
		for _, entry := range doc.DerivativeTable.Transactions {
			transactions = append(transactions, normalizeEntry(shared, entry))
		}
	}
	return transactions
}

func normalizeEntry(shared models.NormalizedTransaction, entry transactionEntry) models.NormalizedTransaction {
	record := shared

	record.TransactionDate = text(entry.TransactionDate.Value)
	record.TransactionCode = text(entry.Coding.TransactionCode)
	record.TransactionType = models.TransactionTypeFromCode(record.TransactionCode)
	record.SecurityTitle = text(entry.SecurityTitle.Value)
	record.SharesTraded = parseDecimal(entry.Amounts.Shares.Value)
	record.SharePrice = parseDecimal(entry.Amounts.PricePerShare.Value)
	record.SharesOwnedAfter = parseDecimal(entry.PostAmounts.SharesOwned.Value)
	record.OwnershipType = text(entry.Ownership.DirectOrIndirect.Value)

	if record.SharesTraded != nil && record.SharePrice != nil {
		value := record.SharesTraded.Mul(*record.SharePrice)
		record.TransactionValueUSD = &value
	}
	return record
}

// deriveRelationship renders the relationship block as a comma-separated
// summary of the set flags plus any officer title.
func deriveRelationship(rel *ownerRelation) string {
	if rel == nil {
		return ""
	}
	var parts []string
	flags := []struct {
		value string
		label string
	}{
		{rel.IsDirector, "Director"},
		{rel.IsOfficer, "Officer"},
		{rel.IsTenPercentOwner, "10% Owner"},
		{rel.IsOther, "Other"},
	}
	for _, flag := range flags {
		if isFlagSet(flag.value) {
			parts = append(parts, flag.label)
		}
	}
	if title := text(rel.OfficerTitle); title != "" {
		parts = append(parts, title)
	}
	return strings.Join(parts, ", ")
}

func isFlagSet(value string) bool {
	switch strings.ToLower(text(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// parseDecimal parses a numeric field as an exact decimal quantity.
// Unparsable text yields nil, never an error.
func parseDecimal(value string) *decimal.Decimal {
	value = text(value)
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil
	}
	return &d
}

func text(s string) string {
	return strings.TrimSpace(s)
}
