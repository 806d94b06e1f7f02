package parser

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtraInfoEmpty(t *testing.T) {
	assert.Empty(t, ParseExtraInfo(""))
	assert.Empty(t, ParseExtraInfo("   \n\t\n  "))
}

func TestParseExtraInfoAbsoluteDate(t *testing.T) {
	now := time.Date(2025, time.July, 30, 12, 0, 0, 0, time.Local)
	items := parseExtraInfoAt("Ação X\nFulano\n01/12/2024 10:00", now)

	require.Len(t, items, 1)
	assert.Equal(t, "Ação X", items[0].Acao)
	assert.Equal(t, "Fulano", items[0].Responsavel)
	assert.Equal(t, "01/12/2024 10:00", items[0].PrazoText)

	require.NotNil(t, items[0].PrazoDate)
	want := time.Date(2024, time.December, 1, 10, 0, 0, 0, time.Local)
	assert.Equal(t, want, *items[0].PrazoDate)

	require.NotNil(t, items[0].DeltaDias)
	wantDelta := int(math.Round(now.Sub(want).Hours() / 24))
	assert.Equal(t, wantDelta, *items[0].DeltaDias)
	assert.Positive(t, *items[0].DeltaDias, "past deadline must be overdue")
}

func TestParseExtraInfoDateWithoutTime(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.Local)
	items := parseExtraInfoAt("Vistoria\nEquipe A\n05/01/2025", now)

	require.Len(t, items, 1)
	require.NotNil(t, items[0].PrazoDate)
	assert.Equal(t, time.Date(2025, time.January, 5, 0, 0, 0, 0, time.Local), *items[0].PrazoDate)
	require.NotNil(t, items[0].DeltaDias)
	assert.Equal(t, 5, *items[0].DeltaDias)
}

func TestParseExtraInfoFutureDeadlineNegativeDelta(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.Local)
	items := parseExtraInfoAt("Entrega\nEquipe B\n11/01/2025", now)

	require.Len(t, items, 1)
	require.NotNil(t, items[0].DeltaDias)
	assert.Equal(t, -10, *items[0].DeltaDias)
}

func TestParseExtraInfoRelativeAgeKeepsText(t *testing.T) {
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.Local)
	items := parseExtraInfoAt("Regularizar cadastro\nSetor comercial\nhá 28d 01h", now)

	require.Len(t, items, 1)
	assert.Equal(t, "há 28d 01h", items[0].PrazoText)
	assert.Nil(t, items[0].PrazoDate)
	assert.Nil(t, items[0].DeltaDias)
}

func TestParseExtraInfoRelativeAgeWithCreatedLine(t *testing.T) {
	// The relative phrase stays as display text, but the parsed date comes
	// from the English short timestamp on the following line, and the item
	// consumes all four lines.
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.Local)
	extra := "Regularizar cadastro\nSetor comercial\nhá 28d 01h\nSep 12, 14:07"
	items := parseExtraInfoAt(extra, now)

	require.Len(t, items, 1)
	assert.Equal(t, "há 28d 01h", items[0].PrazoText)
	require.NotNil(t, items[0].PrazoDate)
	assert.Equal(t, time.Date(2025, time.September, 12, 14, 7, 0, 0, time.Local), *items[0].PrazoDate)
	require.NotNil(t, items[0].DeltaDias)
	assert.Equal(t, 28, *items[0].DeltaDias)
}

func TestParseExtraInfoEnglishShortTimestamp(t *testing.T) {
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.Local)
	items := parseExtraInfoAt("Ação\nResponsável\nSep 12, 14:07", now)

	require.Len(t, items, 1)
	require.NotNil(t, items[0].PrazoDate)
	assert.Equal(t, 2025, items[0].PrazoDate.Year(), "year assumed from the clock")
	assert.Equal(t, time.September, items[0].PrazoDate.Month())
}

func TestParseExtraInfoUnparseableDeadline(t *testing.T) {
	items := ParseExtraInfo("Ação\nFulano\nassim que possível")

	require.Len(t, items, 1)
	assert.Equal(t, "assim que possível", items[0].PrazoText)
	assert.Nil(t, items[0].PrazoDate)
	assert.Nil(t, items[0].DeltaDias)
}

func TestParseExtraInfoMultipleItemsVariableWidth(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.Local)
	extra := "Primeira ação\nFulano\n01/05/2025\nMay 2, 09:30\n" +
		"Segunda ação\nBeltrano\n15/05/2025\n" +
		"Terceira ação\nSicrano"
	items := parseExtraInfoAt(extra, now)

	require.Len(t, items, 3)

	// Four-line group: the created-at line was consumed, not parsed as an item.
	assert.Equal(t, "Primeira ação", items[0].Acao)
	require.NotNil(t, items[0].PrazoDate)
	assert.Equal(t, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.Local), *items[0].PrazoDate)

	// Three-line group.
	assert.Equal(t, "Segunda ação", items[1].Acao)
	assert.Equal(t, "Beltrano", items[1].Responsavel)

	// Trailing partial group: no deadline line at all.
	assert.Equal(t, "Terceira ação", items[2].Acao)
	assert.Equal(t, "Sicrano", items[2].Responsavel)
	assert.Empty(t, items[2].PrazoText)
	assert.Nil(t, items[2].PrazoDate)
}

func TestParseExtraInfoCRLFAndBlankLines(t *testing.T) {
	items := ParseExtraInfo("Ação A\r\n\r\nFulano\r\n01/12/2024\r\n")

	require.Len(t, items, 1)
	assert.Equal(t, "Ação A", items[0].Acao)
	assert.Equal(t, "Fulano", items[0].Responsavel)
	assert.Equal(t, "01/12/2024", items[0].PrazoText)
}
