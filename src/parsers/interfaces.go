package parsers

import (
	"github.com/polyxpand-rgb/sec-insider/src/models"
)

// Form4Parser defines the interface for normalizing raw Form 4 documents.
// This interface is implemented by parsers/form4.
type Form4Parser interface {
	// Parse extracts zero or more normalized transactions from one raw
	// filing document. Pure: no I/O, and malformed input yields an empty
	// slice rather than an error.
	Parse(rawFiling string) []models.NormalizedTransaction
}
