package xltpl

import (
	"fmt"
	"strings"
)

// CellRef identifies a single cell in a workbook. Rows and columns are
// 1-based, matching both the A1 notation and the schema JSON output.
type CellRef struct {
	Sheet string // sheet name (empty = unspecified)
	Row   int
	Col   int
}

// NewCellRef creates a CellRef with explicit sheet, row, col (1-based).
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses a cell reference string like "A1", "Sheet1!B5", or "$A$1".
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}

	var sheet string
	cellPart := s

	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		sheet = strings.Trim(s[:idx], "'")
		cellPart = s[idx+1:]
	}

	cellPart = strings.ReplaceAll(cellPart, "$", "")
	if cellPart == "" {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	i := 0
	for i < len(cellPart) && isAlpha(cellPart[i]) {
		i++
	}
	if i == 0 || i == len(cellPart) {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}

	col, err := NameToCol(cellPart[:i])
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	row := 0
	for _, ch := range cellPart[i:] {
		if ch < '0' || ch > '9' {
			return CellRef{}, fmt.Errorf("invalid row in cell reference: %q", s)
		}
		row = row*10 + int(ch-'0')
	}
	if row < 1 {
		return CellRef{}, fmt.Errorf("invalid row number in cell reference: %q", s)
	}

	return CellRef{Sheet: sheet, Row: row, Col: col}, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	name := c.CellName()
	if c.Sheet != "" {
		return c.Sheet + "!" + name
	}
	return name
}

// CellName returns just the cell part like "A1" without the sheet name.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + fmt.Sprintf("%d", c.Row)
}

// ColumnLetter returns the column part of the reference, e.g. "B" for column 2.
func (c CellRef) ColumnLetter() string {
	return ColToName(c.Col)
}

// SamePosition reports whether two references point at the same grid cell,
// ignoring the sheet component.
func (c CellRef) SamePosition(other CellRef) bool {
	return c.Row == other.Row && c.Col == other.Col
}

// ColToName converts a 1-based column number to a column name.
// 1→"A", 26→"Z", 27→"AA"
func ColToName(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 1-based column number.
// "A"→1, "Z"→26, "AA"→27
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col, nil
}

// AreaRef represents a rectangular range defined by two cell references.
type AreaRef struct {
	First CellRef
	Last  CellRef
}

// ParseAreaRef parses a range string like "A1:C5" or "Sheet1!A1:C5".
// A single-cell reference is accepted and yields a 1x1 area.
func ParseAreaRef(s string) (AreaRef, error) {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)

	first, err := ParseCellRef(parts[0])
	if err != nil {
		return AreaRef{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if len(parts) == 1 {
		return AreaRef{First: first, Last: first}, nil
	}

	last, err := ParseCellRef(parts[1])
	if err != nil {
		return AreaRef{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if last.Sheet == "" && first.Sheet != "" {
		last.Sheet = first.Sheet
	}
	return AreaRef{First: first, Last: last}, nil
}

// String formats the AreaRef as "Sheet1!A1:C5" or "A1:C5".
func (a AreaRef) String() string {
	if a.First.Sheet != "" {
		return a.First.Sheet + "!" + a.First.CellName() + ":" + a.Last.CellName()
	}
	return a.First.CellName() + ":" + a.Last.CellName()
}

// Contains reports whether the given cell falls inside this area.
// An area with no sheet name matches any sheet.
func (a AreaRef) Contains(ref CellRef) bool {
	if a.First.Sheet != "" && ref.Sheet != "" && a.First.Sheet != ref.Sheet {
		return false
	}
	return ref.Row >= a.First.Row && ref.Row <= a.Last.Row &&
		ref.Col >= a.First.Col && ref.Col <= a.Last.Col
}

// Master returns the top-left cell of the area, the only addressable cell
// of a merged region.
func (a AreaRef) Master() CellRef {
	return a.First
}
