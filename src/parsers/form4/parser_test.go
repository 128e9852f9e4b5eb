package form4

import (
	"testing"

	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const saleFiling = `<?xml version="1.0"?>
<ownershipDocument>
	<documentType>4</documentType>
	<periodOfReport>2024-01-26</periodOfReport>
	<issuer>
		<issuerCik>0000320193</issuerCik>
		<issuerName>Apple Inc.</issuerName>
		<issuerTradingSymbol>AAPL</issuerTradingSymbol>
	</issuer>
	<reportingOwner>
		<reportingOwnerId>
			<rptOwnerCik>0001214156</rptOwnerCik>
			<rptOwnerName>COOK TIMOTHY D</rptOwnerName>
		</reportingOwnerId>
		<reportingOwnerRelationship>
			<isDirector>0</isDirector>
			<isOfficer>1</isOfficer>
			<isTenPercentOwner>0</isTenPercentOwner>
			<isOther>0</isOther>
			<officerTitle>Chief Executive Officer</officerTitle>
		</reportingOwnerRelationship>
	</reportingOwner>
	<nonDerivativeTable>
		<nonDerivativeTransaction>
			<securityTitle>
				<value>Common Stock</value>
			</securityTitle>
			<transactionDate>
				<value>2024-01-25</value>
			</transactionDate>
			<transactionCoding>
				<transactionCode>S</transactionCode>
			</transactionCoding>
			<transactionAmounts>
				<transactionShares>
					<value>500</value>
				</transactionShares>
				<transactionPricePerShare>
					<value>190.00</value>
				</transactionPricePerShare>
			</transactionAmounts>
			<postTransactionAmounts>
				<sharesOwnedFollowingTransaction>
					<value>3280511</value>
				</sharesOwnedFollowingTransaction>
			</postTransactionAmounts>
			<ownershipNature>
				<directOrIndirectOwnership>
					<value>D</value>
				</directOrIndirectOwnership>
			</ownershipNature>
		</nonDerivativeTransaction>
	</nonDerivativeTable>
	<derivativeTable>
		<derivativeTransaction>
			<securityTitle>
				<value>Restricted Stock Unit</value>
			</securityTitle>
			<transactionDate>
				<value>2024-01-24</value>
			</transactionDate>
			<transactionCoding>
				<transactionCode>M</transactionCode>
			</transactionCoding>
			<transactionAmounts>
				<transactionShares>
					<value>1000</value>
				</transactionShares>
			</transactionAmounts>
		</derivativeTransaction>
	</derivativeTable>
</ownershipDocument>`

func TestParseSaleFiling(t *testing.T) {
	parser := NewParser()
	records := parser.Parse(saleFiling)
	require.Len(t, records, 2)

	sale := records[0]
	assert.Equal(t, "0000320193", sale.IssuerCIK)
	assert.Equal(t, "Apple Inc.", sale.IssuerName)
	assert.Equal(t, "AAPL", sale.IssuerTicker)
	assert.Equal(t, "0001214156", sale.OwnerCIK)
	assert.Equal(t, "COOK TIMOTHY D", sale.OwnerName)
	assert.Equal(t, "Officer, Chief Executive Officer", sale.OwnerRelationship)
	assert.Equal(t, "2024-01-26", sale.FilingDate)
	assert.Equal(t, "4", sale.FormType)
	assert.Equal(t, "2024-01-25", sale.TransactionDate)
	assert.Equal(t, "S", sale.TransactionCode)
	assert.Equal(t, models.TransactionTypeSell, sale.TransactionType)
	assert.Equal(t, "Common Stock", sale.SecurityTitle)
	assert.Equal(t, "D", sale.OwnershipType)

	require.NotNil(t, sale.SharesTraded)
	require.NotNil(t, sale.SharePrice)
	require.NotNil(t, sale.TransactionValueUSD)
	assert.True(t, sale.SharesTraded.Equal(decimal.RequireFromString("500")))
	assert.True(t, sale.SharePrice.Equal(decimal.RequireFromString("190.00")))
	assert.True(t, sale.TransactionValueUSD.Equal(decimal.RequireFromString("95000.00")))
	assert.Equal(t, "95000.00", sale.TransactionValueUSD.StringFixed(2))

	require.NotNil(t, sale.SharesOwnedAfter)
	assert.True(t, sale.SharesOwnedAfter.Equal(decimal.RequireFromString("3280511")))

	exercise := records[1]
	assert.Equal(t, models.TransactionTypeExercise, exercise.TransactionType)
	assert.Equal(t, "2024-01-24", exercise.TransactionDate)
	require.NotNil(t, exercise.SharesTraded)
	// No price reported, so no derived value.
	assert.Nil(t, exercise.SharePrice)
	assert.Nil(t, exercise.TransactionValueUSD)
}

func TestParseDerivedValueExact(t *testing.T) {
	// 100 shares at 12.50 must be exactly 1250.00, not a float approximation.
	parser := NewParser()
	records := parser.Parse(`<ownershipDocument>
		<issuer><issuerCik>0000000001</issuerCik></issuer>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<transactionDate><value>2024-03-01</value></transactionDate>
				<transactionCoding><transactionCode>P</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>100</value></transactionShares>
					<transactionPricePerShare><value>12.50</value></transactionPricePerShare>
				</transactionAmounts>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
	</ownershipDocument>`)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].TransactionValueUSD)
	assert.Equal(t, "1250.00", records[0].TransactionValueUSD.StringFixed(2))
	assert.True(t, records[0].TransactionValueUSD.Equal(decimal.RequireFromString("1250.00")))
}

func TestTransactionCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"P", models.TransactionTypeBuy},
		{"p", models.TransactionTypeBuy},
		{"S", models.TransactionTypeSell},
		{"M", models.TransactionTypeExercise},
		{"X", models.TransactionTypeOther},
		{"", models.TransactionTypeOther},
	}
	for _, tc := range tests {
		t.Run("code "+tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, models.TransactionTypeFromCode(tc.code))
		})
	}
}

func TestParseMalformedDocument(t *testing.T) {
	parser := NewParser()
	assert.Empty(t, parser.Parse("this is not xml at all"))
	assert.Empty(t, parser.Parse("<unclosed><tag>"))
	assert.Empty(t, parser.Parse(""))
}

func TestParseDocumentWithoutTransactions(t *testing.T) {
	parser := NewParser()
	records := parser.Parse(`<ownershipDocument>
		<issuer><issuerCik>0000320193</issuerCik><issuerName>Apple Inc.</issuerName></issuer>
	</ownershipDocument>`)
	assert.Empty(t, records)
}

func TestParseMissingFieldsYieldNilValues(t *testing.T) {
	parser := NewParser()
	records := parser.Parse(`<ownershipDocument>
		<issuer><issuerCik>0000000002</issuerCik></issuer>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<transactionCoding><transactionCode>G</transactionCode></transactionCoding>
				<transactionAmounts>
					<transactionShares><value>not-a-number</value></transactionShares>
				</transactionAmounts>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
	</ownershipDocument>`)
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, "", record.TransactionDate)
	assert.Equal(t, models.TransactionTypeOther, record.TransactionType)
	assert.Nil(t, record.SharesTraded)
	assert.Nil(t, record.SharePrice)
	assert.Nil(t, record.TransactionValueUSD)
	assert.Nil(t, record.SharesOwnedAfter)
	assert.Equal(t, "", record.OwnerRelationship)
}

func TestDeriveRelationshipFlags(t *testing.T) {
	parser := NewParser()
	records := parser.Parse(`<ownershipDocument>
		<issuer><issuerCik>0000000003</issuerCik></issuer>
		<reportingOwner>
			<reportingOwnerId><rptOwnerName>DOE JANE</rptOwnerName></reportingOwnerId>
			<reportingOwnerRelationship>
				<isDirector>true</isDirector>
				<isTenPercentOwner>1</isTenPercentOwner>
			</reportingOwnerRelationship>
		</reportingOwner>
		<nonDerivativeTable>
			<nonDerivativeTransaction>
				<transactionDate><value>2024-02-02</value></transactionDate>
			</nonDerivativeTransaction>
		</nonDerivativeTable>
	</ownershipDocument>`)
	require.Len(t, records, 1)
	assert.Equal(t, "Director, 10% Owner", records[0].OwnerRelationship)
}
