package extract

import (
	"regexp"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

// Payment field names.
const (
	FieldPaymentType             = "PaymentType"
	FieldRemittanceBank          = "RemittanceBank"
	FieldRemittanceBankCode      = "RemittanceBankCode"
	FieldRemittanceBankAccountNo = "RemittanceBankAccountNo"
)

// Payment routing patterns, anchored on the remittance boilerplate the
// layout family prints near the footer. Each field resolves on its own;
// one pattern missing does not disturb the others.
var paymentPatterns = []fieldPattern{
	{FieldPaymentType, regexp.MustCompile(`(?is)''You May Also\s+(IMPS/RTGS/NEFT)\s+to`), entity.SentinelPayment},
	{FieldRemittanceBank, regexp.MustCompile(`(?is)/RTGS/NEFT to\s+([A-Z\s]+),`), entity.SentinelPayment},
	{FieldRemittanceBankCode, regexp.MustCompile(`(?is)IFSC Code: (\w+)`), entity.SentinelPayment},
	{FieldRemittanceBankAccountNo, regexp.MustCompile(`(?is)Your Account is\s+(\d+)`), entity.SentinelPayment},
}

// ExtractPayment pulls the remittance routing group out of a text blob.
// All four fields are always present, defaulting to "Not found".
func ExtractPayment(text string) map[string]string {
	fields := make(map[string]string, len(paymentPatterns))
	for _, fp := range paymentPatterns {
		fields[fp.name] = firstGroup(fp.re, text, fp.sentinel)
	}
	return fields
}
