package parser

import (
	"regexp"
	"strings"
)

var reZeroToken = regexp.MustCompile(`\b0\.0\b`)

// ExtractTipo derives a clean display label from the raw "data" field: the
// first line with every standalone "0.0" token removed, trimmed. Total
// function; may return an empty string.
func ExtractTipo(dataField string) string {
	firstLine := dataField
	if idx := strings.IndexAny(dataField, "\r\n"); idx >= 0 {
		firstLine = dataField[:idx]
	}
	if firstLine == "" {
		firstLine = dataField
	}
	return strings.TrimSpace(reZeroToken.ReplaceAllString(firstLine, ""))
}
