package xltpl

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TemplateSchema is the reverse-engineered structural description of a
// spreadsheet's editable surface, built once per template and read-only
// afterward.
type TemplateSchema struct {
	TemplateName string         `json:"template_name"`
	FilePath     string         `json:"file_path"`
	AnalyzedAt   string         `json:"analysis_date"`
	SheetCount   int            `json:"sheet_count"`
	Sheets       []*SheetSchema `json:"sheets"`
	Summary      *SchemaSummary `json:"summary"`
}

// SheetSchema holds the classified cells of one sheet. A sheet that could
// not be read carries an Error instead of field lists.
type SheetSchema struct {
	Name            string         `json:"name"`
	Dimensions      string         `json:"dimensions,omitempty"`
	MaxRow          int            `json:"max_row,omitempty"`
	MaxCol          int            `json:"max_col,omitempty"`
	InputFields     []*FieldInfo   `json:"input_fields"`
	FormulaFields   []*FieldInfo   `json:"formula_fields"`
	Labels          []*FieldInfo   `json:"labels"`
	Headers         []*FieldInfo   `json:"headers"`
	MergedRegions   []MergedRegion `json:"merged_regions"`
	DataValidations []ValidationRule `json:"data_validations"`
	Error           string         `json:"error,omitempty"`
}

// FieldInfo describes one classified cell.
type FieldInfo struct {
	Cell         string `json:"cell"`
	Row          int    `json:"row"`
	Column       int    `json:"column"`
	ColumnLetter string `json:"column_letter"`
	Type         string `json:"type"`
	IsMerged     bool   `json:"is_merged,omitempty"`
	MergeMaster  string `json:"merge_master,omitempty"`
	IsBold       bool   `json:"is_bold,omitempty"`
	HasFill      bool   `json:"has_fill,omitempty"`

	// formula fields
	Formula     string `json:"formula,omitempty"`
	Description string `json:"description,omitempty"`

	// labels and headers
	Text string `json:"text,omitempty"`

	// input fields
	CurrentValue string `json:"current_value,omitempty"`
	DataType     string `json:"data_type,omitempty"`
	NumberFormat string `json:"number_format,omitempty"`
	Label        string `json:"label,omitempty"`
	LabelCell    string `json:"label_cell,omitempty"`
}

// SchemaSummary aggregates counts across sheets.
type SchemaSummary struct {
	TotalInputFields   int           `json:"total_input_fields"`
	TotalFormulaFields int           `json:"total_formula_fields"`
	TotalLabels        int           `json:"total_labels"`
	Sheets             []SheetCounts `json:"sheets"`
}

// SheetCounts is the per-sheet portion of the summary.
type SheetCounts struct {
	Name          string `json:"name"`
	InputFields   int    `json:"input_fields"`
	FormulaFields int    `json:"formula_fields"`
	Labels        int    `json:"labels"`
}

// AnalyzeTemplate reverse-engineers a template into its schema. A sheet that
// fails to read contributes an error entry without aborting the others; a
// file that cannot be opened at all returns an error and no partial schema.
func AnalyzeTemplate(path string) (*TemplateSchema, error) {
	wb, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	schema := &TemplateSchema{
		TemplateName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FilePath:     path,
		AnalyzedAt:   time.Now().Format(time.RFC3339),
		SheetCount:   len(names),
	}

	for _, name := range names {
		sheet, err := wb.ReadSheet(name)
		if err != nil {
			schema.Sheets = append(schema.Sheets, &SheetSchema{Name: name, Error: err.Error()})
			continue
		}
		schema.Sheets = append(schema.Sheets, buildSheetSchema(sheet))
	}

	schema.Summary = summarize(schema)
	return schema, nil
}

// buildSheetSchema classifies every addressable cell of a sheet and
// associates labels to inputs.
func buildSheetSchema(s *Sheet) *SheetSchema {
	ss := &SheetSchema{
		Name:            s.Name,
		Dimensions:      s.Dimensions,
		MaxRow:          s.MaxRow,
		MaxCol:          s.MaxCol,
		InputFields:     []*FieldInfo{},
		FormulaFields:   []*FieldInfo{},
		Labels:          []*FieldInfo{},
		Headers:         []*FieldInfo{},
		MergedRegions:   s.Merged,
		DataValidations: s.Validations,
	}
	if ss.MergedRegions == nil {
		ss.MergedRegions = []MergedRegion{}
	}
	if ss.DataValidations == nil {
		ss.DataValidations = []ValidationRule{}
	}

	index := NewMergedRegionIndex(s.Merged)
	headers := headerRowSet(s)

	for row := 1; row <= s.MaxRow; row++ {
		for col := 1; col <= s.MaxCol; col++ {
			cell := s.Cell(row, col)
			if cell == nil {
				continue
			}
			if index.IsSlave(cell.Ref) {
				continue
			}
			kind := Classify(cell, headers[row])
			if kind == KindEmpty {
				continue
			}
			fi := fieldInfo(cell, kind, index)
			switch kind {
			case KindFormula:
				ss.FormulaFields = append(ss.FormulaFields, fi)
			case KindInput:
				ss.InputFields = append(ss.InputFields, fi)
			case KindHeader:
				ss.Headers = append(ss.Headers, fi)
			case KindLabel:
				ss.Labels = append(ss.Labels, fi)
			}
		}
	}

	associateLabels(ss.InputFields, ss.Labels, ss.Headers)
	return ss
}

// headerRowSet detects likely header rows. Row 1 qualifies when any of its
// first ten columns holds text; any of the first ten rows qualifies when,
// among its first twenty columns, bold text cells outnumber half of all
// text cells.
func headerRowSet(s *Sheet) map[int]bool {
	headers := make(map[int]bool)

	if s.MaxRow >= 1 {
		for col := 1; col <= 10 && col <= s.MaxCol; col++ {
			if c := s.Cell(1, col); c != nil && c.IsTextual() && !c.IsEmpty() {
				headers[1] = true
				break
			}
		}
	}

	for row := 1; row <= 10 && row <= s.MaxRow; row++ {
		textCount, boldCount := 0, 0
		for col := 1; col <= 20 && col <= s.MaxCol; col++ {
			c := s.Cell(row, col)
			if c == nil || c.IsEmpty() || !c.IsTextual() {
				continue
			}
			textCount++
			if c.Bold {
				boldCount++
			}
		}
		if textCount > 0 && float64(boldCount)/float64(textCount) > 0.5 {
			headers[row] = true
		}
	}

	return headers
}

func fieldInfo(c *Cell, kind CellKind, index *MergedRegionIndex) *FieldInfo {
	fi := &FieldInfo{
		Cell:         c.Ref.CellName(),
		Row:          c.Ref.Row,
		Column:       c.Ref.Col,
		ColumnLetter: c.Ref.ColumnLetter(),
		Type:         kind.String(),
		IsBold:       c.Bold,
		HasFill:      c.HasFill,
	}

	if master, merged := index.Resolve(c.Ref); merged {
		fi.IsMerged = true
		fi.MergeMaster = master.CellName()
	}

	switch kind {
	case KindFormula:
		formula := c.Value
		if c.Formula != "" {
			formula = "=" + c.Formula
		}
		fi.Formula = formula
		fi.Description = describeFormula(formula)
	case KindLabel, KindHeader:
		fi.Text = c.Value
	case KindInput:
		fi.CurrentValue = c.Value
		fi.DataType = inferDataType(c)
		fi.NumberFormat = c.NumFmt
		if fi.NumberFormat == "" {
			fi.NumberFormat = "General"
		}
	}

	return fi
}

// associateLabels links each input to its describing text, first match wins:
// label directly left, label directly above, then a header in the same
// column. Labels themselves are never mutated.
func associateLabels(inputs, labels, headers []*FieldInfo) {
	findLabel := func(row, col int) *FieldInfo {
		for _, l := range labels {
			if l.Row == row && l.Column == col {
				return l
			}
		}
		return nil
	}

	for _, in := range inputs {
		if l := findLabel(in.Row, in.Column-1); l != nil {
			in.Label = l.Text
			in.LabelCell = l.Cell
			continue
		}
		if l := findLabel(in.Row-1, in.Column); l != nil {
			in.Label = l.Text
			in.LabelCell = l.Cell
			continue
		}
		for _, h := range headers {
			if h.Column == in.Column {
				in.Label = h.Text
				in.LabelCell = h.Cell
				break
			}
		}
	}
}

// inferDataType guesses the expected input type from the number format
// first, then from the stored value.
func inferDataType(c *Cell) string {
	code := c.NumFmt
	switch {
	case strings.Contains(code, "$") || strings.Contains(code, "Currency"):
		return "currency"
	case strings.Contains(code, "%"):
		return "percentage"
	case isDateFormat(code):
		return "date"
	}

	v := strings.TrimSpace(c.Value)
	if v == "TRUE" || v == "FALSE" {
		return "boolean"
	}
	if f, ok := c.NumericValue(); ok {
		if f == float64(int64(f)) && !strings.Contains(v, ".") {
			return "integer"
		}
		return "number"
	}
	return "text"
}

// describeFormula produces a short human-readable description of a formula,
// keyed off its leading function or operator.
func describeFormula(formula string) string {
	upper := strings.ToUpper(formula)
	switch {
	case strings.HasPrefix(upper, "=SUM("):
		return "Sum calculation"
	case strings.HasPrefix(upper, "=AVERAGE("):
		return "Average calculation"
	case strings.HasPrefix(upper, "=IF("):
		return "Conditional calculation"
	case strings.HasPrefix(upper, "=VLOOKUP("), strings.HasPrefix(upper, "=XLOOKUP("):
		return "Lookup reference"
	case strings.Contains(formula, "*"):
		return "Multiplication calculation"
	case strings.Contains(formula, "/"):
		return "Division calculation"
	case strings.Contains(formula, "+"):
		return "Addition calculation"
	case strings.Contains(formula, "-"):
		return "Subtraction calculation"
	}
	return "Formula calculation"
}

func summarize(schema *TemplateSchema) *SchemaSummary {
	summary := &SchemaSummary{Sheets: []SheetCounts{}}
	for _, sheet := range schema.Sheets {
		counts := SheetCounts{
			Name:          sheet.Name,
			InputFields:   len(sheet.InputFields),
			FormulaFields: len(sheet.FormulaFields),
			Labels:        len(sheet.Labels),
		}
		summary.TotalInputFields += counts.InputFields
		summary.TotalFormulaFields += counts.FormulaFields
		summary.TotalLabels += counts.Labels
		summary.Sheets = append(summary.Sheets, counts)
	}
	return summary
}

// cellAddr formats a column letter + 1-based row, e.g. ("B", 5) → "B5".
func cellAddr(col string, row int) string {
	return col + strconv.Itoa(row)
}
