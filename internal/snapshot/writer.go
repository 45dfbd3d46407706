// Package snapshot persists one JSON file per assembled record as a
// non-authoritative audit trail. Snapshot failures never affect the
// database path.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

// Writer writes per-document JSON snapshots under a base directory.
type Writer struct {
	baseDir string
	logger  *zap.Logger
}

// NewWriter creates a snapshot writer rooted at baseDir.
func NewWriter(baseDir string, logger *zap.Logger) *Writer {
	return &Writer{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Write stores the record as <baseDir>/<document base name>.json,
// creating the directory if needed.
func (w *Writer) Write(rec *entity.InvoiceRecord) error {
	name := strings.TrimSuffix(filepath.Base(rec.SourcePath), filepath.Ext(rec.SourcePath)) + ".json"
	fullPath := filepath.Join(w.baseDir, name)

	if err := w.validatePath(fullPath); err != nil {
		return err
	}

	content, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		w.logger.Error("Failed to create snapshot directory",
			zap.String("dir", w.baseDir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		w.logger.Error("Failed to write snapshot",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	w.logger.Debug("Snapshot saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return nil
}

// validatePath rejects document names that would escape the base
// directory.
func (w *Writer) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(w.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes snapshot directory: %s", fullPath)
	}
	return nil
}
