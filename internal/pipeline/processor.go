// Package pipeline runs the extraction-normalization-dedup pipeline over
// a batch of documents.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/assembler"
	"github.com/meramerchant/invoiceflow/internal/pdftext"
	"github.com/meramerchant/invoiceflow/internal/repository"
	"github.com/meramerchant/invoiceflow/internal/snapshot"
)

// Result summarizes one run. Processed counts successfully assembled
// documents, which is what the triggering collaborator reports; the
// remaining counters are diagnostics.
type Result struct {
	Processed  int `json:"processed"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Processor wires the collaborators of one import run. Documents are
// handled one at a time, in lexical path order, with no overlap between
// extraction and persistence.
type Processor struct {
	loader    pdftext.Loader
	assembler *assembler.Assembler
	snapshots *snapshot.Writer
	store     repository.InvoiceStore
	logger    *zap.Logger
}

// NewProcessor creates a pipeline processor.
func NewProcessor(
	loader pdftext.Loader,
	asm *assembler.Assembler,
	snapshots *snapshot.Writer,
	store repository.InvoiceStore,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		loader:    loader,
		assembler: asm,
		snapshots: snapshots,
		store:     store,
		logger:    logger,
	}
}

// Run processes every PDF under inputDir. Individual document and record
// failures are logged and counted but never abort the batch; only a
// failure to enumerate the input directory is a run-level error.
func (p *Processor) Run(ctx context.Context, inputDir string) (*Result, error) {
	paths, err := pdftext.ListPDFs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate input documents: %w", err)
	}
	p.logger.Info("Starting import run",
		zap.String("input_dir", inputDir),
		zap.Int("documents", len(paths)))

	sources := make([]assembler.Source, 0, len(paths))
	for _, path := range paths {
		text, err := p.loader.LoadText(path)
		sources = append(sources, assembler.Source{Path: path, Text: text, Err: err})
	}

	return p.Process(ctx, sources), nil
}

// Process runs assembly and persistence over pre-loaded sources, in
// order. Each assembled record is snapshotted (best effort) and handed to
// the deduplicating writer exactly once.
func (p *Processor) Process(ctx context.Context, sources []assembler.Source) *Result {
	result := &Result{}

	records := p.assembler.AssembleBatch(sources)
	result.Processed = len(records)
	result.Failed = len(sources) - len(records)

	for _, rec := range records {
		if err := p.snapshots.Write(rec); err != nil {
			// Snapshots are a non-authoritative audit trail; the record
			// still goes to the store.
			p.logger.Warn("Failed to write snapshot",
				zap.String("source", rec.SourcePath),
				zap.Error(err))
		}

		_, status, err := p.store.Insert(ctx, rec)
		if err != nil {
			p.logger.Error("Failed to store invoice",
				zap.String("invoice_no", rec.InvoiceNo),
				zap.String("source", rec.SourcePath),
				zap.Error(err))
			result.Failed++
			continue
		}
		if status == repository.SkippedDuplicate {
			result.Duplicates++
			continue
		}
		result.Inserted++
	}

	p.logger.Info("Import run finished",
		zap.Int("processed", result.Processed),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed))
	return result
}
