package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

// sampleInvoice is a plausible single-rendering of the layout family,
// carrying every labeled field the pattern library knows about.
const sampleInvoice = `ACME CORP  TAX INVOICE
Name : Retailer One Phone No. : 9876543210
Bill To Party : 1023
Address : (KOL-02) 14 Park Street,
Kolkata 700016
Delivery at : 2047
INVOICE No. : 778 Date : 05-Jan-2024
PHONE No. : 9876543210
E-Mail : retailer.one@example.com
Fax No. : 033-222333 cfa.desk@carrier.example.com
Invoiced by : Eastern Carrying Co
TOTAL INVOICE AMOUNT (ROUND OFF) : 1,200.00
''You May Also IMPS/RTGS/NEFT to STATE BANK OF INDIA, IFSC Code: SBIN0001234 Your Account is 30123456789
`

func TestExtract_FullDocument(t *testing.T) {
	fields := Extract(sampleInvoice)

	assert.Equal(t, "ACME CORP", fields[FieldAnchorName])
	assert.Equal(t, "Retailer One", fields[FieldDistributorName])
	assert.Equal(t, "1023", fields[FieldDistributorCode])
	assert.Equal(t, "2047", fields[FieldDeliveryCode])
	assert.Equal(t, "778", fields[FieldInvoiceNo])
	assert.Equal(t, "1,200.00", fields[FieldInvoiceAmount])
	assert.Equal(t, "05-Jan-2024", fields[FieldInvoiceDate])
	assert.Equal(t, "9876543210", fields[FieldPhoneNo])
	assert.Equal(t, "retailer.one@example.com", fields[FieldDistributorEmail])
	assert.Equal(t, "cfa.desk@carrier.example.com", fields[FieldCFAEmail])
	assert.Equal(t, "Eastern Carrying Co", fields[FieldCFAName])
}

func TestExtract_EmptyTextYieldsAllSentinels(t *testing.T) {
	fields := Extract("")

	assert.Len(t, fields, len(fieldPatterns))
	assert.Equal(t, entity.SentinelAnchorName, fields[FieldAnchorName])
	assert.Equal(t, entity.SentinelDistributorName, fields[FieldDistributorName])
	assert.Equal(t, entity.SentinelDistributorCode, fields[FieldDistributorCode])
	assert.Equal(t, entity.SentinelDeliveryCode, fields[FieldDeliveryCode])
	assert.Equal(t, entity.SentinelInvoiceNo, fields[FieldInvoiceNo])
	assert.Equal(t, entity.SentinelInvoiceAmount, fields[FieldInvoiceAmount])
	assert.Equal(t, entity.SentinelInvoiceDate, fields[FieldInvoiceDate])
	assert.Equal(t, entity.SentinelPhoneNo, fields[FieldPhoneNo])
	assert.Equal(t, entity.SentinelDistributorEmail, fields[FieldDistributorEmail])
	assert.Equal(t, entity.SentinelCFAEmail, fields[FieldCFAEmail])
	assert.Equal(t, entity.SentinelCFAName, fields[FieldCFAName])
}

func TestExtract_PartialMatchKeepsOthersIndependent(t *testing.T) {
	// Only the invoice number is present; every other field resolves to
	// its own sentinel.
	fields := Extract("INVOICE No. : 42")

	assert.Equal(t, "42", fields[FieldInvoiceNo])
	assert.Equal(t, entity.SentinelAnchorName, fields[FieldAnchorName])
	assert.Equal(t, entity.SentinelInvoiceAmount, fields[FieldInvoiceAmount])
	// The date is only trusted directly after the invoice number, and
	// there is none here.
	assert.Equal(t, entity.SentinelInvoiceDate, fields[FieldInvoiceDate])
}

func TestExtract_DateRequiresInvoiceNumberContext(t *testing.T) {
	// A free-standing date without the preceding invoice number must not
	// be picked up.
	fields := Extract("Date : 05-Jan-2024")

	assert.Equal(t, entity.SentinelInvoiceDate, fields[FieldInvoiceDate])
}

func TestExtract_FirstOccurrenceWins(t *testing.T) {
	text := "Bill To Party : 111\nBill To Party : 222"
	fields := Extract(text)

	assert.Equal(t, "111", fields[FieldDistributorCode])
}

func TestExtract_CaseInsensitive(t *testing.T) {
	fields := Extract("bill to party : 333")

	assert.Equal(t, "333", fields[FieldDistributorCode])
}

func TestExtract_DistributorNameStopsAtNextLabel(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "stops before a numbered label",
			text:     "Name : Retailer One Phone No. : 987",
			expected: "Retailer One",
		},
		{
			name:     "stops before a colon label",
			text:     "Name : Retailer Two GSTIN : 22AAAAA0000A1Z5",
			expected: "Retailer Two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := Extract(tt.text)
			assert.Equal(t, tt.expected, fields[FieldDistributorName])
		})
	}
}
