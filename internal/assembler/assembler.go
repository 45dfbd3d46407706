// Package assembler merges the independently extracted field groups of a
// document into one normalized invoice record.
package assembler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/entity"
	"github.com/meramerchant/invoiceflow/internal/extract"
	"github.com/meramerchant/invoiceflow/internal/normalize"
)

// Source is one document's raw text as produced by the text-extraction
// collaborator. Err is set when that collaborator failed on the document.
type Source struct {
	Path string
	Text string
	Err  error
}

// Assembler builds InvoiceRecords from extracted text.
type Assembler struct {
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// NewAssembler creates a new record assembler.
func NewAssembler(normalizer *normalize.Normalizer, logger *zap.Logger) *Assembler {
	return &Assembler{
		normalizer: normalizer,
		logger:     logger,
	}
}

// Assemble merges the labeled-field, payment and address extraction
// results plus the source path into a single record, then normalizes the
// amount, date and length-capped fields.
//
// The original system ran two text engines over each PDF, so the labeled
// fields and the payment/address groups may come from different renderings
// of the same document; callers with a single rendering pass it for all
// three.
func (a *Assembler) Assemble(docText, paymentText, addressText, sourcePath string) *entity.InvoiceRecord {
	fields := extract.Extract(docText)
	payment := extract.ExtractPayment(paymentText)

	rec := &entity.InvoiceRecord{
		AnchorName:       fields[extract.FieldAnchorName],
		DistributorName:  normalize.Truncate(fields[extract.FieldDistributorName], normalize.MaxDistributorNameLen),
		DistributorCode:  normalize.Truncate(fields[extract.FieldDistributorCode], normalize.MaxDistributorCodeLen),
		DeliveryCode:     fields[extract.FieldDeliveryCode],
		InvoiceNo:        fields[extract.FieldInvoiceNo],
		PhoneNo:          fields[extract.FieldPhoneNo],
		DistributorEmail: fields[extract.FieldDistributorEmail],
		CFAEmail:         fields[extract.FieldCFAEmail],
		CFAName:          fields[extract.FieldCFAName],

		PaymentType:             payment[extract.FieldPaymentType],
		RemittanceBank:          payment[extract.FieldRemittanceBank],
		RemittanceBankCode:      payment[extract.FieldRemittanceBankCode],
		RemittanceBankAccountNo: payment[extract.FieldRemittanceBankAccountNo],

		DeliveryAddress: extract.ExtractAddress(addressText),
		SourcePath:      sourcePath,
	}

	rawAmount := fields[extract.FieldInvoiceAmount]
	if rawAmount == entity.SentinelInvoiceAmount {
		rawAmount = ""
	}
	rec.InvoiceAmount = a.normalizer.ParseAmount(rawAmount)
	rec.InvoiceDate = a.normalizer.ParseDate(fields[extract.FieldInvoiceDate])

	return rec
}

// AssembleBatch assembles every source in order, isolating failures to
// the document that caused them. Sources whose text extraction failed,
// and documents that panic any extractor, are logged and omitted; the
// surviving records keep their input order. No partial record is ever
// returned.
func (a *Assembler) AssembleBatch(sources []Source) []*entity.InvoiceRecord {
	records := make([]*entity.InvoiceRecord, 0, len(sources))
	for _, src := range sources {
		rec, err := a.assembleOne(src)
		if err != nil {
			a.logger.Error("Skipping document",
				zap.String("path", src.Path),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (a *Assembler) assembleOne(src Source) (rec *entity.InvoiceRecord, err error) {
	if src.Err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", src.Err)
	}
	defer func() {
		if p := recover(); p != nil {
			rec = nil
			err = fmt.Errorf("extraction panicked: %v", p)
		}
	}()
	return a.Assemble(src.Text, src.Text, src.Text, src.Path), nil
}
