package xltpl

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Repeating row block defaults, used when the sheet config is silent.
const (
	defaultRowStart      = 1
	defaultMaxRows       = 25
	defaultAnchorColumn  = "B"
	defaultCategoryField = "bed"
)

// fillArray populates a repeating row block on one sheet: find the Total
// anchor to size the block, clear the data columns, write one row per
// qualifying array item, then delete the trailing unused rows so the Total
// row closes the gap.
func (f *Filler) fillArray(wf *excelize.File, sheet string, sc *SheetMappings, data any, report *FillReport) {
	rowStart := sc.RowStart
	if rowStart <= 0 {
		rowStart = defaultRowStart
	}
	maxRows := sc.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	anchor := sc.AnchorColumn
	if anchor == "" {
		anchor = defaultAnchorColumn
	}
	category := sc.CategoryField
	if category == "" {
		category = defaultCategoryField
	}

	totalRow, found := findTotalRow(wf, sheet, anchor, rowStart, f.opts.scanWindow)
	capacity := maxRows
	if found {
		capacity = totalRow - rowStart
	}
	if capacity <= 0 {
		report.add(StatusError, &FieldResult{
			Sheet: sheet,
			Error: fmt.Sprintf("no room for data rows: total row %d at or above row_start %d", totalRow, rowStart),
		})
		return
	}

	f.clearBlock(wf, sheet, sc, rowStart, capacity)

	items, ok := Resolve(data, sc.ArraySource).([]any)
	if !ok || len(items) == 0 {
		report.add(StatusSkipped, &FieldResult{
			Sheet:  sheet,
			Reason: fmt.Sprintf("no array data found at: %s", sc.ArraySource),
		})
		return
	}

	filled := 0
	for _, item := range items {
		rowData, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if isSummaryRow(rowData, category) {
			continue
		}
		if filled >= capacity {
			report.add(StatusSkipped, &FieldResult{
				Sheet:  sheet,
				Reason: fmt.Sprintf("row capacity %d exhausted, remaining array items dropped", capacity),
			})
			break
		}

		rowNum := rowStart + filled
		for _, m := range sc.Mappings {
			if m.Column == "" {
				continue
			}
			value, ok := f.columnValue(m, rowData)
			if !ok {
				continue
			}
			cell := cellAddr(m.Column, rowNum)
			protected, err := isFormulaCell(wf, sheet, cell)
			if err != nil {
				report.add(StatusError, &FieldResult{Sheet: sheet, Cell: cell, Error: err.Error()})
				continue
			}
			if protected {
				report.add(StatusSkipped, &FieldResult{
					Sheet:  sheet,
					Cell:   cell,
					Reason: "cell contains formula, not overwriting",
				})
				continue
			}
			if err := wf.SetCellValue(sheet, cell, value); err != nil {
				report.add(StatusError, &FieldResult{Sheet: sheet, Cell: cell, Error: err.Error()})
				continue
			}
			report.add(StatusFilled, &FieldResult{
				Sheet:    sheet,
				Cell:     cell,
				Label:    m.Label,
				Value:    value,
				JSONPath: m.JSONField,
			})
		}
		filled++
	}

	if sc.deleteEmpty() && filled < capacity {
		if err := f.deleteRows(wf, sheet, rowStart+filled, capacity-filled); err != nil {
			report.add(StatusError, &FieldResult{Sheet: sheet, Error: err.Error()})
		}
	}
}

// columnValue resolves one column mapping against a source row. ok=false
// means the cell is left untouched.
func (f *Filler) columnValue(m *Mapping, rowData map[string]any) (any, bool) {
	if fn, ok := f.transforms.Row(m.Transform); ok {
		return fn(rowData)
	}
	if m.JSONField == "" {
		if src, ok := strings.CutPrefix(m.Transform, exprPrefix); ok {
			result, err := f.transforms.evalExpr(src, map[string]any{"row": rowData})
			if err != nil || result == nil {
				return nil, false
			}
			return result, true
		}
		return nil, false
	}
	value := Resolve(rowData, m.JSONField)
	if value == nil {
		return nil, false
	}
	return f.transforms.Apply(m.Transform, value), true
}

// clearBlock blanks the data columns across the block's capacity so stale
// template placeholders never survive a partial fill. Formula cells are
// left alone.
func (f *Filler) clearBlock(wf *excelize.File, sheet string, sc *SheetMappings, rowStart, capacity int) {
	columns := sc.ClearColumns
	if len(columns) == 0 {
		for _, m := range sc.Mappings {
			if m.Column != "" {
				columns = append(columns, m.Column)
			}
		}
	}
	for row := rowStart; row < rowStart+capacity; row++ {
		for _, col := range columns {
			cell := cellAddr(col, row)
			if protected, err := isFormulaCell(wf, sheet, cell); err != nil || protected {
				continue
			}
			wf.SetCellValue(sheet, cell, nil)
		}
	}
}

// findTotalRow scans the anchor column downward from rowStart for a cell
// reading "Total"/"Totals", which marks the end of the repeating block.
func findTotalRow(wf *excelize.File, sheet, anchorCol string, rowStart, window int) (int, bool) {
	for row := rowStart; row < rowStart+window; row++ {
		value, err := wf.GetCellValue(sheet, cellAddr(anchorCol, row))
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "total", "totals":
			return row, true
		}
	}
	return 0, false
}

// isSummaryRow filters aggregate items ("All 2 Bed", "Total") out of the
// source array so only concrete rows land in the block.
func isSummaryRow(rowData map[string]any, categoryField string) bool {
	s, ok := rowData[categoryField].(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	return strings.Contains(s, "total") || strings.Contains(s, "all")
}

// deleteRows removes count rows starting at row, shifting everything below
// upward. excelize adjusts formulas and merged ranges on each shift, so the
// Total row's aggregate formulas stay anchored to the block.
func (f *Filler) deleteRows(wf *excelize.File, sheet string, row, count int) error {
	for i := 0; i < count; i++ {
		if err := wf.RemoveRow(sheet, row); err != nil {
			return fmt.Errorf("delete row %d on %s: %w", row, sheet, err)
		}
	}
	return nil
}
