package extract

import (
	"regexp"
	"strings"

	"github.com/meramerchant/invoiceflow/internal/entity"
)

var (
	addressRe = regexp.MustCompile(`(?is)Address\s*:\s*(.+?)\s*\n\s*Delivery at :`)

	// A branch code in parentheses sometimes precedes the address proper,
	// e.g. "(KOL-02) 14 Park Street ...". Dot stays line-bound here so the
	// prefix is only stripped off the first line.
	branchPrefixRe = regexp.MustCompile(`^.+?\)`)

	spaceRunRe = regexp.MustCompile(`[\s]+`)
)

// ExtractAddress captures the delivery address between the "Address:"
// label and the following "Delivery at:" label. A leading
// parenthesis-terminated branch prefix is stripped, and all embedded
// newlines, tabs and space runs collapse to single spaces. Returns
// "Address not found" when the span is absent.
func ExtractAddress(text string) string {
	m := addressRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return entity.SentinelAddress
	}
	address := strings.TrimSpace(m[1])
	if prefix := branchPrefixRe.FindString(address); prefix != "" {
		address = strings.TrimPrefix(address, prefix)
	}
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(address, " "))
}
