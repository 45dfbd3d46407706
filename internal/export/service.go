// Package export renders stored invoice rows as an XLSX workbook for
// accounting handoff.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/repository"
)

const sheetName = "Invoices"

// headers mirror the raw_imports column order.
var headers = []string{
	"Code",
	"Anchor Name",
	"Distributor Name",
	"Distributor Code",
	"Delivery Code",
	"Invoice No",
	"Invoice Amount",
	"Invoice Date",
	"Phone No",
	"Distributor Email",
	"CFA Email",
	"CFA Name",
	"Source File",
	"Payment Type",
	"Remittance Bank",
	"Remittance Bank Code",
	"Remittance Account No",
	"Delivery Address",
}

// Service produces XLSX bytes from the invoice store.
type Service struct {
	store  repository.InvoiceStore
	logger *zap.Logger
}

// NewService creates an export service.
func NewService(store repository.InvoiceStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// ExportXLSX returns a workbook with one row per stored invoice.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	invoices, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for rowNum, inv := range invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		invoiceDate := ""
		if inv.InvoiceDate != nil {
			invoiceDate = inv.InvoiceDate.Format("2006-01-02")
		}

		write(1, inv.Code)
		write(2, inv.AnchorName)
		write(3, inv.DistributorName)
		write(4, inv.DistributorCode)
		write(5, inv.DeliveryCode)
		write(6, inv.InvoiceNo)
		write(7, inv.InvoiceAmount.String())
		write(8, invoiceDate)
		write(9, inv.PhoneNo)
		write(10, inv.DistributorEmail)
		write(11, inv.CFAEmail)
		write(12, inv.CFAName)
		write(13, inv.SourcePath)
		write(14, inv.PaymentType)
		write(15, inv.RemittanceBank)
		write(16, inv.RemittanceBankCode)
		write(17, inv.RemittanceBankAccountNo)
		write(18, inv.DeliveryAddress)
	}

	_ = f.SetColWidth(sheetName, "B", "C", 28)
	_ = f.SetColWidth(sheetName, "G", "H", 14)
	_ = f.SetColWidth(sheetName, "M", "M", 48)
	_ = f.SetColWidth(sheetName, "R", "R", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("Invoice export generated",
		zap.Int("rows", len(invoices)),
		zap.Duration("elapsed", time.Since(start)))
	return buf.Bytes(), nil
}
