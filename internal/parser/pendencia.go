package parser

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// PendenciaItem is one pending action extracted from the extra-info block.
// PrazoDate is nil when the deadline line could not be parsed; DeltaDias is
// nil whenever PrazoDate is. A positive delta means the deadline is in the
// past (overdue), negative means it is in the future.
type PendenciaItem struct {
	Acao        string     `json:"acao"`
	Responsavel string     `json:"responsavel"`
	PrazoText   string     `json:"prazoText,omitempty"`
	PrazoDate   *time.Time `json:"prazoDate"`
	DeltaDias   *int       `json:"deltaDias"`
}

var (
	// Relative-age phrases such as "há 28d 01h". Kept as display text only.
	reRelativeAge = regexp.MustCompile(`(?i)^h[áa]\s+\d+d`)

	// Abbreviated English month prefix, used both to detect the optional
	// "created at" line and to recognize short timestamps.
	reMonthPrefix = regexp.MustCompile(`(?i)^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`)
)

// Deadline layouts tried in order; first success wins.
var brDateLayouts = []string{"02/01/2006", "02/01/2006 15:04"}

// ParseExtraInfo decomposes a raw multi-line extra-info block into an
// ordered list of pending actions. Empty or whitespace-only input yields an
// empty list.
func ParseExtraInfo(extraInfo string) []PendenciaItem {
	return parseExtraInfoAt(extraInfo, time.Now())
}

// parseExtraInfoAt is the clock-injected implementation. Items are groups
// of 3 or 4 consecutive non-empty lines: action, responsible party,
// deadline, and an optional "created at" line recognized by an abbreviated
// English month prefix. The 3-vs-4 grouping is a documented heuristic: a
// fourth line that merely happens to start with a month name is consumed
// as well. That mirrors how the upstream renders these blocks.
func parseExtraInfoAt(extraInfo string, now time.Time) []PendenciaItem {
	var lines []string
	for _, raw := range strings.Split(extraInfo, "\n") {
		if s := strings.TrimSpace(raw); s != "" {
			lines = append(lines, s)
		}
	}

	items := make([]PendenciaItem, 0, len(lines)/3)
	i := 0
	for i < len(lines) {
		acao := lines[i]

		var responsavel, prazoLine, maybeCreated string
		if i+1 < len(lines) {
			responsavel = lines[i+1]
		}
		if i+2 < len(lines) {
			prazoLine = lines[i+2]
		}
		if i+3 < len(lines) {
			maybeCreated = lines[i+3]
		}

		item := PendenciaItem{Acao: acao, Responsavel: responsavel}
		if prazoLine != "" {
			item.PrazoText, item.PrazoDate = extractPrazo(prazoLine, maybeCreated, now)
		}
		if item.PrazoDate != nil {
			delta := int(math.Round(now.Sub(*item.PrazoDate).Hours() / 24))
			item.DeltaDias = &delta
		}
		items = append(items, item)

		if prazoLine != "" && maybeCreated != "" && reMonthPrefix.MatchString(maybeCreated) {
			i += 4
		} else {
			i += 3
		}
	}

	return items
}

// extractPrazo interprets one deadline line. Candidates, first success wins:
// absolute dd/MM/yyyy[ HH:mm], relative "há Nd..." phrase (date taken from
// the following line when it is an English short timestamp), English short
// "Mon d, HH:mm" with the current year. Anything else keeps the raw text
// with no date.
func extractPrazo(line, nextLine string, now time.Time) (string, *time.Time) {
	trimmed := strings.TrimSpace(line)

	if d := tryParseBrDate(trimmed); d != nil {
		return trimmed, d
	}

	if reRelativeAge.MatchString(trimmed) {
		var d *time.Time
		if nextLine != "" {
			d = tryParseEnShort(strings.TrimSpace(nextLine), now)
		}
		return trimmed, d
	}

	if d := tryParseEnShort(trimmed, now); d != nil {
		return trimmed, d
	}

	return trimmed, nil
}

// tryParseBrDate parses dd/MM/yyyy with an optional HH:mm suffix.
func tryParseBrDate(s string) *time.Time {
	for _, layout := range brDateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &d
		}
	}
	return nil
}

// tryParseEnShort parses timestamps like "Sep 12, 14:07", assuming the
// current year because the upstream omits it.
func tryParseEnShort(s string, now time.Time) *time.Time {
	d, err := time.ParseInLocation("Jan 2, 15:04", s, time.Local)
	if err != nil {
		return nil
	}
	d = time.Date(now.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), 0, 0, time.Local)
	return &d
}
