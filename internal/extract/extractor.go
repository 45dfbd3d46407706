// Package extract locates the fixed field set of the known invoice layout
// family inside free-form PDF text. Extraction is pattern-based only; an
// unmatched pattern is a normal outcome resolved to the field's sentinel.
package extract

import (
	"regexp"
	"strings"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

// Field names used as keys in the extracted mapping. They double as the
// JSON keys of the audit snapshots.
const (
	FieldAnchorName       = "AnchorName"
	FieldDistributorName  = "DistributorName"
	FieldDistributorCode  = "DistributorCode"
	FieldDeliveryCode     = "DeliveryCode"
	FieldInvoiceNo        = "InvoiceNo"
	FieldInvoiceAmount    = "InvoiceAmount"
	FieldInvoiceDate      = "InvoiceDate"
	FieldPhoneNo          = "PhoneNo"
	FieldDistributorEmail = "DistributorEmailAddress"
	FieldCFAEmail         = "CFA_Email"
	FieldCFAName          = "CFAName"
)

// fieldPattern pairs a compiled pattern with the sentinel used when the
// pattern finds nothing. Exactly one capture group per pattern.
type fieldPattern struct {
	name     string
	re       *regexp.Regexp
	sentinel string
}

// fieldPatterns is the fixed pattern library for the invoice layout
// family. All patterns run case-insensitively with "." spanning
// newlines, matching the first occurrence in the document.
//
// The distributor name stops at the next labeled field ("<word> No." or
// "<word> :"); the terminator is consumed rather than looked ahead at,
// which leaves the captured group identical.
var fieldPatterns = []fieldPattern{
	{FieldAnchorName, regexp.MustCompile(`(?is)^(.+?)\s+TAX INVOICE`), entity.SentinelAnchorName},
	{FieldDistributorName, regexp.MustCompile(`(?is)Name\s*:\s*(.+?)\s+(?:\w+\sNo\.|\w+\s:)`), entity.SentinelDistributorName},
	{FieldDistributorCode, regexp.MustCompile(`(?is)Bill To Party\s*:\s*(\d+)`), entity.SentinelDistributorCode},
	{FieldDeliveryCode, regexp.MustCompile(`(?is)Delivery at\s*:\s*(\d+)`), entity.SentinelDeliveryCode},
	{FieldInvoiceNo, regexp.MustCompile(`(?is)INVOICE No\. :\s*(\d+)`), entity.SentinelInvoiceNo},
	{FieldInvoiceAmount, regexp.MustCompile(`(?is)TOTAL INVOICE AMOUNT \(ROUND OFF\) :\s*([0-9,\.]+)`), entity.SentinelInvoiceAmount},
	// The invoice date is only trusted in the context directly following
	// the invoice number; free-standing dates elsewhere are ignored.
	{FieldInvoiceDate, regexp.MustCompile(`(?is)INVOICE No\. :\s*\d+\s+Date\s*:\s*(\d{2}-\w{3}-\d{4})`), entity.SentinelInvoiceDate},
	{FieldPhoneNo, regexp.MustCompile(`(?is)PHONE No\. :\s*(\d+)`), entity.SentinelPhoneNo},
	{FieldDistributorEmail, regexp.MustCompile(`(?is)E-Mail\s*:\s*([^\n]+)`), entity.SentinelDistributorEmail},
	{FieldCFAEmail, regexp.MustCompile(`(?is)Fax No\.\s*:.*?([\w\.-]+@[\w\.-]+\.\w+)`), entity.SentinelCFAEmail},
	{FieldCFAName, regexp.MustCompile(`(?is)Invoiced by\s*:\s*([^\n]+)`), entity.SentinelCFAName},
}

// Extract applies the full pattern library to a text blob. Every
// configured field is present in the result: the trimmed first capture on
// a match, the field's sentinel otherwise. Pure; never fails, whatever
// the input looks like.
func Extract(text string) map[string]string {
	fields := make(map[string]string, len(fieldPatterns))
	for _, fp := range fieldPatterns {
		fields[fp.name] = firstGroup(fp.re, text, fp.sentinel)
	}
	return fields
}

// firstGroup returns the trimmed first capture group of the first match,
// or the fallback when the pattern does not match.
func firstGroup(re *regexp.Regexp, text, fallback string) string {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return fallback
}
