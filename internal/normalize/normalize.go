// Package normalize converts raw extracted strings into the typed values
// the destination table stores. Malformed input never fails the pipeline:
// amounts fall back to zero, dates to absent, with a warning either way.
package normalize

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// invoiceDateFormat is the fixed source format of the layout family,
// e.g. "05-Jan-2024".
const invoiceDateFormat = "02-Jan-2006"

const dateNotFound = "invoice date not found"

// Length caps required by the destination schema.
const (
	MaxDistributorCodeLen = 20
	MaxDistributorNameLen = 50
)

// Normalizer converts extracted strings to typed values.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a normalizer that reports parse fallbacks on the
// given logger at warning level.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// ParseAmount parses a locale-formatted monetary amount after stripping
// thousands-separator commas. Empty or unparsable input yields exactly
// zero and a warning; it is never an error.
func (n *Normalizer) ParseAmount(raw string) decimal.Decimal {
	if raw == "" {
		n.logger.Warn("Invoice amount missing, defaulting to zero")
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		n.logger.Warn("Invalid invoice amount, defaulting to zero",
			zap.String("raw", raw))
		return decimal.Zero
	}
	return amount
}

// ParseDate parses a "02-Jan-2006" date. Empty input and the extractor's
// not-found sentinel (case-insensitive) return nil silently; anything
// else that fails to parse returns nil with a warning naming the
// offending string.
func (n *Normalizer) ParseDate(raw string) *time.Time {
	if raw == "" || strings.ToLower(raw) == dateNotFound {
		return nil
	}
	t, err := time.Parse(invoiceDateFormat, raw)
	if err != nil {
		n.logger.Warn("Invalid invoice date format",
			zap.String("raw", raw),
			zap.Error(err))
		return nil
	}
	return &t
}

// Truncate caps s at max characters. Empty input stays empty rather than
// becoming a truncated empty string.
func Truncate(s string, max int) string {
	if s == "" || len(s) <= max {
		return s
	}
	return s[:max]
}
