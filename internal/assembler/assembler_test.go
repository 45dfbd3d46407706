package assembler

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/entity"
	"github.com/meramerchant/invoiceflow/internal/normalize"
)

const testInvoice = `ACME CORP TAX INVOICE
Name : Retailer One Phone No. : 9876543210
Bill To Party : 1023
Address : (KOL-02) 14 Park Street,
Kolkata 700016
Delivery at : 2047
INVOICE No. : 778 Date : 05-Jan-2024
E-Mail : retailer.one@example.com
TOTAL INVOICE AMOUNT (ROUND OFF) : 1,200.00
''You May Also IMPS/RTGS/NEFT to STATE BANK OF INDIA, IFSC Code: SBIN0001234 Your Account is 30123456789
`

func newTestAssembler() *Assembler {
	logger := zap.NewNop()
	return NewAssembler(normalize.NewNormalizer(logger), logger)
}

func TestAssemble(t *testing.T) {
	a := newTestAssembler()

	rec := a.Assemble(testInvoice, testInvoice, testInvoice, "/in/inv-778.pdf")

	assert.Equal(t, "ACME CORP", rec.AnchorName)
	assert.Equal(t, "Retailer One", rec.DistributorName)
	assert.Equal(t, "1023", rec.DistributorCode)
	assert.Equal(t, "2047", rec.DeliveryCode)
	assert.Equal(t, "778", rec.InvoiceNo)
	assert.True(t, rec.InvoiceAmount.Equal(decimal.RequireFromString("1200.00")),
		"got amount %s", rec.InvoiceAmount)
	require.NotNil(t, rec.InvoiceDate)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), *rec.InvoiceDate)
	assert.Equal(t, "retailer.one@example.com", rec.DistributorEmail)

	assert.Equal(t, "IMPS/RTGS/NEFT", rec.PaymentType)
	assert.Equal(t, "STATE BANK OF INDIA", rec.RemittanceBank)
	assert.Equal(t, "SBIN0001234", rec.RemittanceBankCode)
	assert.Equal(t, "30123456789", rec.RemittanceBankAccountNo)

	assert.Equal(t, "14 Park Street, Kolkata 700016", rec.DeliveryAddress)
	assert.Equal(t, "/in/inv-778.pdf", rec.SourcePath)
}

func TestAssemble_EmptyDocumentDefaultsEveryField(t *testing.T) {
	a := newTestAssembler()

	rec := a.Assemble("", "", "", "/in/blank.pdf")

	assert.Equal(t, entity.SentinelAnchorName, rec.AnchorName)
	assert.Equal(t, entity.SentinelDistributorName, rec.DistributorName)
	assert.Equal(t, entity.SentinelDeliveryCode, rec.DeliveryCode)
	assert.Equal(t, entity.SentinelInvoiceNo, rec.InvoiceNo)
	assert.Equal(t, entity.SentinelPayment, rec.PaymentType)
	assert.Equal(t, entity.SentinelAddress, rec.DeliveryAddress)

	// The missing-amount marker becomes a typed zero, the missing-date
	// marker a typed absence.
	assert.True(t, rec.InvoiceAmount.IsZero())
	assert.Nil(t, rec.InvoiceDate)

	// The bill-to-party marker is longer than the destination column and
	// gets capped like any other value.
	assert.Equal(t, normalize.Truncate(entity.SentinelDistributorCode, normalize.MaxDistributorCodeLen),
		rec.DistributorCode)
	assert.Len(t, rec.DistributorCode, normalize.MaxDistributorCodeLen)
}

func TestAssemble_CapsLengthLimitedFields(t *testing.T) {
	a := newTestAssembler()
	longName := strings.Repeat("A", 80)

	rec := a.Assemble("Name : "+longName+" Phone No. : 1", "", "", "/in/long.pdf")

	assert.Len(t, rec.DistributorName, normalize.MaxDistributorNameLen)
	assert.Equal(t, longName[:normalize.MaxDistributorNameLen], rec.DistributorName)
}

func TestAssembleBatch_IsolatesFailedSources(t *testing.T) {
	a := newTestAssembler()

	sources := []Source{
		{Path: "/in/a.pdf", Text: "INVOICE No. : 1"},
		{Path: "/in/b.pdf", Err: errors.New("encrypted document")},
		{Path: "/in/c.pdf", Text: "INVOICE No. : 3"},
	}

	records := a.AssembleBatch(sources)

	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].InvoiceNo)
	assert.Equal(t, "/in/a.pdf", records[0].SourcePath)
	assert.Equal(t, "3", records[1].InvoiceNo)
	assert.Equal(t, "/in/c.pdf", records[1].SourcePath)
}

func TestAssembleBatch_Empty(t *testing.T) {
	a := newTestAssembler()

	assert.Empty(t, a.AssembleBatch(nil))
}
