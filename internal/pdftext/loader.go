// Package pdftext is the boundary to the PDF text-extraction capability.
package pdftext

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Loader extracts the raw text of a single document.
type Loader interface {
	LoadText(path string) (string, error)
}

// FitzLoader extracts text with MuPDF.
type FitzLoader struct{}

// NewFitzLoader creates a MuPDF-backed loader.
func NewFitzLoader() *FitzLoader {
	return &FitzLoader{}
}

// LoadText joins the text of every page with newlines. A failure on the
// document as a whole is the caller's per-document error; a failing
// single page is skipped like an empty page.
func (l *FitzLoader) LoadText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var pages []string
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

// ListPDFs returns the PDF paths under dir in stable lexical order, the
// processing order of a run.
func ListPDFs(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("failed to list PDFs in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
