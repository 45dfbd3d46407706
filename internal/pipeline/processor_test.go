package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/assembler"
	"github.com/meramerchant/invoiceflow/internal/entity"
	"github.com/meramerchant/invoiceflow/internal/normalize"
	"github.com/meramerchant/invoiceflow/internal/repository"
	"github.com/meramerchant/invoiceflow/internal/snapshot"
)

// MockInvoiceStore mocks the InvoiceStore interface
type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) Exists(ctx context.Context, invoiceNo string) (bool, error) {
	args := m.Called(ctx, invoiceNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceStore) Insert(ctx context.Context, rec *entity.InvoiceRecord) (*entity.StoredInvoiceRow, repository.InsertStatus, error) {
	args := m.Called(ctx, rec)
	row, _ := args.Get(0).(*entity.StoredInvoiceRow)
	return row, args.Get(1).(repository.InsertStatus), args.Error(2)
}

func (m *MockInvoiceStore) List(ctx context.Context) ([]*entity.StoredInvoiceRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]*entity.StoredInvoiceRow)
	return rows, args.Error(1)
}

// fileLoader reads documents as plain text files, standing in for the
// PDF engine.
type fileLoader struct{}

func (fileLoader) LoadText(path string) (string, error) {
	content, err := os.ReadFile(path)
	return string(content), err
}

func newTestProcessor(t *testing.T, store repository.InvoiceStore) *Processor {
	t.Helper()
	logger := zap.NewNop()
	asm := assembler.NewAssembler(normalize.NewNormalizer(logger), logger)
	snapshots := snapshot.NewWriter(t.TempDir(), logger)
	return NewProcessor(fileLoader{}, asm, snapshots, store, logger)
}

func writeDoc(t *testing.T, dir, name, invoiceNo string) {
	t.Helper()
	text := "ACME CORP TAX INVOICE\nINVOICE No. : " + invoiceNo + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0644))
}

func TestProcessor_Run(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "a.pdf", "100")
	writeDoc(t, inputDir, "b.pdf", "200")

	store := new(MockInvoiceStore)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(rec *entity.InvoiceRecord) bool {
		return rec.InvoiceNo == "100"
	})).Return(&entity.StoredInvoiceRow{Code: "aaaaaaaaaa"}, repository.Inserted, nil)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(rec *entity.InvoiceRecord) bool {
		return rec.InvoiceNo == "200"
	})).Return(&entity.StoredInvoiceRow{Code: "bbbbbbbbbb"}, repository.Inserted, nil)

	p := newTestProcessor(t, store)
	result, err := p.Run(context.Background(), inputDir)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Failed)
	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestProcessor_Run_EmptyDirectory(t *testing.T) {
	store := new(MockInvoiceStore)

	p := newTestProcessor(t, store)
	result, err := p.Run(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	store.AssertNotCalled(t, "Insert")
}

func TestProcessor_Run_RepeatedRunReportsDuplicates(t *testing.T) {
	inputDir := t.TempDir()
	writeDoc(t, inputDir, "a.pdf", "100")

	store := new(MockInvoiceStore)
	store.On("Insert", mock.Anything, mock.Anything).
		Return(&entity.StoredInvoiceRow{Code: "aaaaaaaaaa"}, repository.Inserted, nil).Once()
	store.On("Insert", mock.Anything, mock.Anything).
		Return(nil, repository.SkippedDuplicate, nil).Once()

	p := newTestProcessor(t, store)

	first, err := p.Run(context.Background(), inputDir)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)
	assert.Equal(t, 0, first.Duplicates)

	second, err := p.Run(context.Background(), inputDir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)
	assert.Equal(t, 1, second.Processed)
}

func TestProcessor_Process_StorageFailureDoesNotAbortBatch(t *testing.T) {
	store := new(MockInvoiceStore)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(rec *entity.InvoiceRecord) bool {
		return rec.InvoiceNo == "1"
	})).Return(nil, repository.InsertStatus(0), errors.New("connection reset"))
	store.On("Insert", mock.Anything, mock.MatchedBy(func(rec *entity.InvoiceRecord) bool {
		return rec.InvoiceNo == "2"
	})).Return(&entity.StoredInvoiceRow{Code: "cccccccccc"}, repository.Inserted, nil)

	p := newTestProcessor(t, store)
	result := p.Process(context.Background(), []assembler.Source{
		{Path: "/in/a.pdf", Text: "INVOICE No. : 1"},
		{Path: "/in/b.pdf", Text: "INVOICE No. : 2"},
	})

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Failed)
	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestProcessor_Process_UnreadableSourceCountedFailed(t *testing.T) {
	store := new(MockInvoiceStore)
	store.On("Insert", mock.Anything, mock.Anything).
		Return(&entity.StoredInvoiceRow{Code: "dddddddddd"}, repository.Inserted, nil)

	p := newTestProcessor(t, store)
	result := p.Process(context.Background(), []assembler.Source{
		{Path: "/in/broken.pdf", Err: errors.New("damaged xref table")},
		{Path: "/in/ok.pdf", Text: "INVOICE No. : 7"},
	})

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Inserted)
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestProcessor_WritesSnapshotPerRecord(t *testing.T) {
	outputDir := t.TempDir()
	logger := zap.NewNop()
	asm := assembler.NewAssembler(normalize.NewNormalizer(logger), logger)
	snapshots := snapshot.NewWriter(outputDir, logger)

	store := new(MockInvoiceStore)
	store.On("Insert", mock.Anything, mock.Anything).
		Return(&entity.StoredInvoiceRow{Code: "eeeeeeeeee"}, repository.Inserted, nil)

	p := NewProcessor(fileLoader{}, asm, snapshots, store, logger)
	p.Process(context.Background(), []assembler.Source{
		{Path: "/in/inv-778.pdf", Text: "INVOICE No. : 778"},
	})

	_, err := os.Stat(filepath.Join(outputDir, "inv-778.json"))
	assert.NoError(t, err)
}
