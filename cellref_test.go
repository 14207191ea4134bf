package xltpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		in    string
		sheet string
		row   int
		col   int
	}{
		{"A1", "", 1, 1},
		{"B5", "", 5, 2},
		{"AA10", "", 10, 27},
		{"$C$3", "", 3, 3},
		{"Sheet1!B5", "Sheet1", 5, 2},
		{"'Unit Mix'!D12", "Unit Mix", 12, 4},
		{"  a1  ", "", 1, 1},
	}
	for _, tt := range tests {
		ref, err := ParseCellRef(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.sheet, ref.Sheet, tt.in)
		assert.Equal(t, tt.row, ref.Row, tt.in)
		assert.Equal(t, tt.col, ref.Col, tt.in)
	}
}

func TestParseCellRefErrors(t *testing.T) {
	for _, in := range []string{"", "123", "ABC", "A0", "B-2", "Sheet1!"} {
		_, err := ParseCellRef(in)
		assert.Error(t, err, in)
	}
}

func TestCellRefFormatting(t *testing.T) {
	ref := NewCellRef("UnitMix", 5, 2)
	assert.Equal(t, "B5", ref.CellName())
	assert.Equal(t, "UnitMix!B5", ref.String())
	assert.Equal(t, "B", ref.ColumnLetter())

	bare := NewCellRef("", 1, 28)
	assert.Equal(t, "AB1", bare.String())
}

func TestColumnNameRoundTrip(t *testing.T) {
	for _, col := range []int{1, 2, 26, 27, 52, 702, 703} {
		name := ColToName(col)
		back, err := NameToCol(name)
		require.NoError(t, err, name)
		assert.Equal(t, col, back, name)
	}

	n, err := NameToCol("aa")
	require.NoError(t, err)
	assert.Equal(t, 27, n)

	_, err = NameToCol("A1")
	assert.Error(t, err)
	_, err = NameToCol("")
	assert.Error(t, err)
}

func TestParseAreaRef(t *testing.T) {
	area, err := ParseAreaRef("A1:C5")
	require.NoError(t, err)
	assert.Equal(t, 1, area.First.Row)
	assert.Equal(t, 5, area.Last.Row)
	assert.Equal(t, 3, area.Last.Col)
	assert.Equal(t, "A1", area.Master().CellName())

	single, err := ParseAreaRef("B2")
	require.NoError(t, err)
	assert.Equal(t, single.First, single.Last)

	sheeted, err := ParseAreaRef("Sheet1!A1:C5")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheeted.Last.Sheet)

	_, err = ParseAreaRef("A1:xyz")
	assert.Error(t, err)
}

func TestAreaContains(t *testing.T) {
	area, err := ParseAreaRef("B2:D4")
	require.NoError(t, err)

	assert.True(t, area.Contains(NewCellRef("", 2, 2)))
	assert.True(t, area.Contains(NewCellRef("", 4, 4)))
	assert.True(t, area.Contains(NewCellRef("", 3, 3)))
	assert.False(t, area.Contains(NewCellRef("", 1, 2)))
	assert.False(t, area.Contains(NewCellRef("", 2, 5)))
}
