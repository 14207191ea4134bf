package xltpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergedRegion(t *testing.T, rng string) MergedRegion {
	t.Helper()
	area, err := ParseAreaRef(rng)
	require.NoError(t, err)
	return MergedRegion{Range: rng, StartCell: area.First.CellName(), area: area}
}

func TestMergedRegionIndexResolve(t *testing.T) {
	ix := NewMergedRegionIndex([]MergedRegion{
		mergedRegion(t, "A1:B2"),
		mergedRegion(t, "D5:D8"),
	})

	master, merged := ix.Resolve(NewCellRef("", 2, 2))
	assert.True(t, merged)
	assert.Equal(t, "A1", master.CellName())

	master, merged = ix.Resolve(NewCellRef("", 6, 4))
	assert.True(t, merged)
	assert.Equal(t, "D5", master.CellName())

	// outside any region resolves to itself
	self, merged := ix.Resolve(NewCellRef("", 3, 3))
	assert.False(t, merged)
	assert.Equal(t, "C3", self.CellName())
}

func TestMergedRegionIndexIsSlave(t *testing.T) {
	ix := NewMergedRegionIndex([]MergedRegion{mergedRegion(t, "A1:C1")})

	assert.False(t, ix.IsSlave(NewCellRef("", 1, 1)))
	assert.True(t, ix.IsSlave(NewCellRef("", 1, 2)))
	assert.True(t, ix.IsSlave(NewCellRef("", 1, 3)))
	assert.False(t, ix.IsSlave(NewCellRef("", 2, 1)))
}
