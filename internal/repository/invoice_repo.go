// Package repository owns the only mutating access to the raw_imports
// table.
package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

// InsertStatus is the outcome of a write attempt for a single record.
type InsertStatus int

const (
	// Inserted means a fresh row was stored.
	Inserted InsertStatus = iota
	// SkippedDuplicate means a row with the same invoice number already
	// existed; nothing was written.
	SkippedDuplicate
)

// codeLen is the length of the opaque row identifier.
const codeLen = 10

const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InvoiceStore is the write/read contract of the deduplicating writer.
type InvoiceStore interface {
	// Exists reports whether a row with the given invoice number is
	// already persisted.
	Exists(ctx context.Context, invoiceNo string) (bool, error)

	// Insert stores the record unless its invoice number is already
	// present. On SkippedDuplicate the returned row is nil and no write
	// happened.
	Insert(ctx context.Context, rec *entity.InvoiceRecord) (*entity.StoredInvoiceRow, InsertStatus, error)

	// List returns all stored rows, newest first.
	List(ctx context.Context) ([]*entity.StoredInvoiceRow, error)
}

// InvoiceRepository implements InvoiceStore on a relational table with a
// UNIQUE(invoice_no) constraint. The application-level existence check is
// an early exit only; the constraint is the authoritative guard against
// two concurrent runs passing the check for the same invoice.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Exists checks the store for a row keyed on invoice number equality.
func (r *InvoiceRepository) Exists(ctx context.Context, invoiceNo string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM raw_imports WHERE invoice_no = $1)`,
		invoiceNo,
	).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check invoice existence",
			zap.String("invoice_no", invoiceNo),
			zap.Error(err))
		return false, fmt.Errorf("failed to check invoice existence: %w", err)
	}
	return exists, nil
}

// Insert stores the record with a freshly generated code. Duplicates are
// a logged no-op, never an error: a duplicate found by the early
// existence check and one found by the unique constraint during the
// insert race both report SkippedDuplicate.
func (r *InvoiceRepository) Insert(ctx context.Context, rec *entity.InvoiceRecord) (*entity.StoredInvoiceRow, InsertStatus, error) {
	exists, err := r.Exists(ctx, rec.InvoiceNo)
	if err != nil {
		return nil, 0, err
	}
	if exists {
		r.logger.Info("Invoice already imported, skipping",
			zap.String("invoice_no", rec.InvoiceNo),
			zap.String("source", rec.SourcePath))
		return nil, SkippedDuplicate, nil
	}

	row := &entity.StoredInvoiceRow{
		Code:          GenerateCode(),
		InvoiceRecord: *rec,
	}

	query := `
		INSERT INTO raw_imports (
			code, anchor_name, distributor_name, distributor_code, delivery_code,
			invoice_no, invoice_amount, invoice_date, phone_no,
			distributor_email_address, cfa_email, cfa_name, pdf_path,
			payment_type, remittance_bank, remittance_bank_code,
			remittance_bank_account_no, delivery_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (invoice_no) DO NOTHING
		RETURNING created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		row.Code,
		rec.AnchorName,
		rec.DistributorName,
		rec.DistributorCode,
		rec.DeliveryCode,
		rec.InvoiceNo,
		rec.InvoiceAmount,
		rec.InvoiceDate,
		rec.PhoneNo,
		rec.DistributorEmail,
		rec.CFAEmail,
		rec.CFAName,
		rec.SourcePath,
		rec.PaymentType,
		rec.RemittanceBank,
		rec.RemittanceBankCode,
		rec.RemittanceBankAccountNo,
		rec.DeliveryAddress,
	).Scan(&row.CreatedAt)
	if err == sql.ErrNoRows {
		// Lost the race to a concurrent run.
		r.logger.Info("Invoice inserted concurrently, skipping",
			zap.String("invoice_no", rec.InvoiceNo))
		return nil, SkippedDuplicate, nil
	}
	if err != nil {
		r.logger.Error("Failed to insert invoice",
			zap.String("invoice_no", rec.InvoiceNo),
			zap.Error(err))
		return nil, 0, fmt.Errorf("failed to insert invoice %s: %w", rec.InvoiceNo, err)
	}

	return row, Inserted, nil
}

// List returns every stored row, newest first.
func (r *InvoiceRepository) List(ctx context.Context) ([]*entity.StoredInvoiceRow, error) {
	query := `
		SELECT code, anchor_name, distributor_name, distributor_code, delivery_code,
			invoice_no, invoice_amount, invoice_date, phone_no,
			distributor_email_address, cfa_email, cfa_name, pdf_path,
			payment_type, remittance_bank, remittance_bank_code,
			remittance_bank_account_no, delivery_address, created_at
		FROM raw_imports
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var result []*entity.StoredInvoiceRow
	for rows.Next() {
		var row entity.StoredInvoiceRow
		var invoiceDate sql.NullTime

		err := rows.Scan(
			&row.Code,
			&row.AnchorName,
			&row.DistributorName,
			&row.DistributorCode,
			&row.DeliveryCode,
			&row.InvoiceNo,
			&row.InvoiceAmount,
			&invoiceDate,
			&row.PhoneNo,
			&row.DistributorEmail,
			&row.CFAEmail,
			&row.CFAName,
			&row.SourcePath,
			&row.PaymentType,
			&row.RemittanceBank,
			&row.RemittanceBankCode,
			&row.RemittanceBankAccountNo,
			&row.DeliveryAddress,
			&row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		if invoiceDate.Valid {
			row.InvoiceDate = &invoiceDate.Time
		}
		result = append(result, &row)
	}

	return result, rows.Err()
}

// GenerateCode returns a random 10-character alphanumeric identifier.
// Codes are assigned once at insertion and never reused.
func GenerateCode() string {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf)
}

// Verify interface compliance
var _ InvoiceStore = (*InvoiceRepository)(nil)
