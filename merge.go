package xltpl

// MergedRegionIndex resolves cell coordinates to their merge master.
// Built once per sheet; lookups are O(1).
type MergedRegionIndex struct {
	regions []MergedRegion
	byCell  map[[2]int]int // (row, col) → index into regions
}

// NewMergedRegionIndex builds an index over the given merged regions.
func NewMergedRegionIndex(regions []MergedRegion) *MergedRegionIndex {
	ix := &MergedRegionIndex{
		regions: regions,
		byCell:  make(map[[2]int]int),
	}
	for i, r := range regions {
		for row := r.area.First.Row; row <= r.area.Last.Row; row++ {
			for col := r.area.First.Col; col <= r.area.Last.Col; col++ {
				ix.byCell[[2]int{row, col}] = i
			}
		}
	}
	return ix
}

// Resolve returns the master cell for ref and whether ref lies inside a
// merged region. Coordinates outside any region resolve to themselves.
func (ix *MergedRegionIndex) Resolve(ref CellRef) (CellRef, bool) {
	i, ok := ix.byCell[[2]int{ref.Row, ref.Col}]
	if !ok {
		return ref, false
	}
	return ix.regions[i].Master(), true
}

// IsSlave reports whether ref is a non-master cell inside a merged region.
// Slave cells are non-addressable and excluded from the schema.
func (ix *MergedRegionIndex) IsSlave(ref CellRef) bool {
	master, merged := ix.Resolve(ref)
	return merged && !master.SamePosition(ref)
}
