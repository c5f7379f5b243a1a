package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestDecodeCSV_UTF8(t *testing.T) {
	csv := "語,ます形,て形\n食べる,食べます,食べて\n飲む,飲みます,飲んで\n"

	table, err := DecodeCSV(strings.NewReader(csv), "verb")

	require.NoError(t, err)
	assert.Equal(t, "verb", table.Source)
	assert.Equal(t, []string{"語", "ます形", "て形"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"食べる", "食べます", "食べて"}, table.Rows[0])
}

func TestDecodeCSV_UTF8BOM(t *testing.T) {
	csv := "\xEF\xBB\xBFword,form\nrun,running\n"

	table, err := DecodeCSV(strings.NewReader(csv), "verb")

	require.NoError(t, err)
	assert.Equal(t, []string{"word", "form"}, table.Columns)
}

func TestDecodeCSV_ShiftJIS(t *testing.T) {
	utf8CSV := "語,読み\n走る,はしる\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), utf8CSV)
	require.NoError(t, err)

	table, err := DecodeCSV(strings.NewReader(encoded), "verb")

	require.NoError(t, err)
	assert.Equal(t, []string{"語", "読み"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"走る", "はしる"}, table.Rows[0])
}

func TestDecodeCSV_RaggedRowsPadded(t *testing.T) {
	csv := "a,b,c\n1,2\n3,4,5\n"

	table, err := DecodeCSV(strings.NewReader(csv), "verb")

	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	assert.Equal(t, []string{"3", "4", "5"}, table.Rows[1])
}

func TestDecodeCSV_Empty(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader(""), "verb")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no rows")
}

func TestDecodeCSV_MalformedQuote(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("a,b\n\"unterminated,1\n"), "verb")

	assert.Error(t, err)
}

func TestDecodeText_EncodingOrder(t *testing.T) {
	// Valid UTF-8 must be taken as-is, not run through another decoder.
	text, enc, err := decodeText([]byte("日本語"))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, "日本語", text)

	// Shift_JIS bytes are invalid UTF-8 and fall through to the next codec.
	sjis, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte("日本語"))
	require.NoError(t, err)
	text, enc, err = decodeText(sjis)
	require.NoError(t, err)
	assert.Equal(t, "shift_jis", enc)
	assert.Equal(t, "日本語", text)
}
