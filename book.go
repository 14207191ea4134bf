package xltpl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is a read-only snapshot of a single template cell: raw value, formula,
// and the style facts classification depends on.
type Cell struct {
	Ref     CellRef
	Value   string // raw stored value, unformatted
	Formula string // formula expression without the leading "="
	StyleID int
	Bold    bool
	HasFill bool
	NumFmt  string // number format code; "" or "General" means default

	stringType bool // stored with a string cell type
}

// IsEmpty reports whether the cell holds neither a value nor a formula.
func (c *Cell) IsEmpty() bool {
	return c.Formula == "" && strings.TrimSpace(c.Value) == ""
}

// IsFormula reports whether the cell is a formula cell, either by stored
// formula or by a literal value starting with the formula marker.
func (c *Cell) IsFormula() bool {
	return c.Formula != "" || strings.HasPrefix(strings.TrimSpace(c.Value), "=")
}

// IsTextual reports whether the cell holds text rather than a number.
func (c *Cell) IsTextual() bool {
	if c.stringType {
		return true
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err != nil
}

// NumericValue returns the cell value as a number, if it is one.
// Text-typed cells never qualify, even when their text parses as a number.
func (c *Cell) NumericValue() (float64, bool) {
	if c.stringType {
		return 0, false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MergedRegion is a rectangular merged range; only its master (top-left)
// cell is addressable.
type MergedRegion struct {
	Range     string `json:"range"`
	StartCell string `json:"start_cell"`

	area AreaRef
}

// Master returns the master cell of the region.
func (m MergedRegion) Master() CellRef { return m.area.Master() }

// Contains reports whether ref lies inside the region.
func (m MergedRegion) Contains(ref CellRef) bool { return m.area.Contains(ref) }

// ValidationRule is a data validation rule copied verbatim from the sheet.
type ValidationRule struct {
	Type       string `json:"type"`
	Ranges     string `json:"ranges,omitempty"`
	Formula1   string `json:"formula1,omitempty"`
	Formula2   string `json:"formula2,omitempty"`
	AllowBlank bool   `json:"allow_blank"`
}

// Sheet is a read-only snapshot of one worksheet.
type Sheet struct {
	Name        string
	Dimensions  string
	MaxRow      int
	MaxCol      int
	Cells       map[CellRef]*Cell
	Merged      []MergedRegion
	Validations []ValidationRule
}

// Cell returns the cell at (row, col), or nil when the position is empty.
func (s *Sheet) Cell(row, col int) *Cell {
	return s.Cells[NewCellRef(s.Name, row, col)]
}

// Workbook provides snapshot access to a template file via excelize.
type Workbook struct {
	file   *excelize.File
	path   string
	styles map[int]styleInfo
}

type styleInfo struct {
	bold    bool
	hasFill bool
	numFmt  string
}

// OpenWorkbook opens an xlsx file for analysis.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return &Workbook{file: f, path: path, styles: make(map[int]styleInfo)}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Path returns the file path the workbook was opened from.
func (w *Workbook) Path() string { return w.path }

// SheetNames returns all sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// ReadSheet snapshots one worksheet: every non-empty cell with its formula
// and style facts, plus merged regions and data validation rules.
func (w *Workbook) ReadSheet(name string) (*Sheet, error) {
	rows, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", name, err)
	}

	s := &Sheet{
		Name:   name,
		MaxRow: len(rows),
		Cells:  make(map[CellRef]*Cell),
	}
	if dim, err := w.file.GetSheetDimension(name); err == nil {
		s.Dimensions = dim
	}

	for ri, row := range rows {
		if len(row) > s.MaxCol {
			s.MaxCol = len(row)
		}
		for ci, val := range row {
			ref := NewCellRef(name, ri+1, ci+1)
			cellName := ref.CellName()

			formula, _ := w.file.GetCellFormula(name, cellName)
			if val == "" && formula == "" {
				continue
			}

			cell := &Cell{Ref: ref, Value: val, Formula: formula}
			if ct, err := w.file.GetCellType(name, cellName); err == nil {
				cell.stringType = ct == excelize.CellTypeSharedString || ct == excelize.CellTypeInlineString
			}
			if styleID, err := w.file.GetCellStyle(name, cellName); err == nil {
				cell.StyleID = styleID
				si := w.styleFor(styleID)
				cell.Bold = si.bold
				cell.HasFill = si.hasFill
				cell.NumFmt = si.numFmt
			}
			s.Cells[ref] = cell
		}
	}

	merges, err := w.file.GetMergeCells(name)
	if err != nil {
		return nil, fmt.Errorf("read merged cells from sheet %q: %w", name, err)
	}
	for _, mc := range merges {
		rng := mc.GetStartAxis() + ":" + mc.GetEndAxis()
		area, err := ParseAreaRef(rng)
		if err != nil {
			continue
		}
		area.First.Sheet = name
		area.Last.Sheet = name
		s.Merged = append(s.Merged, MergedRegion{
			Range:     rng,
			StartCell: mc.GetStartAxis(),
			area:      area,
		})
	}

	dvs, err := w.file.GetDataValidations(name)
	if err == nil {
		for _, dv := range dvs {
			s.Validations = append(s.Validations, ValidationRule{
				Type:       dv.Type,
				Ranges:     dv.Sqref,
				Formula1:   dv.Formula1,
				Formula2:   dv.Formula2,
				AllowBlank: dv.AllowBlank,
			})
		}
	}

	return s, nil
}

// styleFor resolves a style ID to the facts classification needs, caching
// lookups since templates reuse a handful of styles across many cells.
func (w *Workbook) styleFor(styleID int) styleInfo {
	if si, ok := w.styles[styleID]; ok {
		return si
	}
	var si styleInfo
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		si.bold = style.Font != nil && style.Font.Bold
		si.hasFill = style.Fill.Type == "pattern" && style.Fill.Pattern > 0
		si.numFmt = numFmtCode(style)
	}
	w.styles[styleID] = si
	return si
}

// builtinNumFmts maps the builtin number format IDs that matter for data
// type inference to their format codes.
var builtinNumFmts = map[int]string{
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  "$#,##0;($#,##0)",
	6:  "$#,##0;[Red]($#,##0)",
	7:  "$#,##0.00;($#,##0.00)",
	8:  "$#,##0.00;[Red]($#,##0.00)",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0;(#,##0)",
	38: "#,##0;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	44: `_("$"* #,##0.00_);_("$"* (#,##0.00);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

func numFmtCode(style *excelize.Style) string {
	if style.CustomNumFmt != nil {
		return *style.CustomNumFmt
	}
	if code, ok := builtinNumFmts[style.NumFmt]; ok {
		return code
	}
	return ""
}
