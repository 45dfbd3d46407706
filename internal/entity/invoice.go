package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel values written by the extraction layer when a pattern finds
// nothing. They mirror what the destination table has always stored, so
// downstream consumers can tell "not found" apart from genuinely empty
// data. Only InvoiceAmount and InvoiceDate use typed absence instead.
const (
	SentinelAnchorName       = "Company name not found"
	SentinelDistributorName  = "Name not found"
	SentinelDistributorCode  = "Bill to party not found"
	SentinelDeliveryCode     = "Delivery at not found"
	SentinelInvoiceNo        = "Invoice no not found"
	SentinelInvoiceAmount    = "Invoice amount not found"
	SentinelInvoiceDate      = "Invoice date not found"
	SentinelPhoneNo          = "Phone no not found"
	SentinelDistributorEmail = "Distributor email address not found"
	SentinelCFAEmail         = "CFA Email not found"
	SentinelCFAName          = "CFA Name not found"
	SentinelPayment          = "Not found"
	SentinelAddress          = "Address not found"
)

// InvoiceRecord is one logical invoice assembled from a single source
// document. It is immutable once normalization completes and is consumed
// exactly once by the deduplicating writer.
type InvoiceRecord struct {
	AnchorName       string          `json:"AnchorName"`
	DistributorName  string          `json:"DistributorName"`
	DistributorCode  string          `json:"DistributorCode"`
	DeliveryCode     string          `json:"DeliveryCode"`
	InvoiceNo        string          `json:"InvoiceNo"`
	InvoiceAmount    decimal.Decimal `json:"InvoiceAmount"`
	InvoiceDate      *time.Time      `json:"InvoiceDate"`
	PhoneNo          string          `json:"PhoneNo"`
	DistributorEmail string          `json:"DistributorEmailAddress"`
	CFAEmail         string          `json:"CFA_Email"`
	CFAName          string          `json:"CFAName"`

	PaymentType             string `json:"PaymentType"`
	RemittanceBank          string `json:"RemittanceBank"`
	RemittanceBankCode      string `json:"RemittanceBankCode"`
	RemittanceBankAccountNo string `json:"RemittanceBankAccountNo"`

	DeliveryAddress string `json:"DeliveryAddress"`

	// SourcePath identifies the originating document. Audit only, never
	// a business key.
	SourcePath string `json:"pdf_path"`
}

// StoredInvoiceRow is the persisted counterpart of InvoiceRecord: the
// record plus the system-generated opaque code assigned at insert time.
type StoredInvoiceRow struct {
	Code string `json:"code"`
	InvoiceRecord
	CreatedAt time.Time `json:"created_at"`
}
