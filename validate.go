package xltpl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
)

// Severity grades a validation issue. Errors mean the mapping cannot work
// as written; warnings mean the fill will proceed with degraded behavior.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding from checking a mapping config against a
// template schema.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Sheet    string   `json:"sheet,omitempty"`
	Cell     string   `json:"cell,omitempty"`
	Message  string   `json:"message"`
}

func (i ValidationIssue) String() string {
	loc := i.Sheet
	if i.Cell != "" {
		loc = i.Sheet + "!" + i.Cell
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(string(i.Severity)), i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(i.Severity)), loc, i.Message)
}

// ValidateMappings cross-checks a mapping config against an analyzed
// template schema before any fill runs: targets that would collide with
// formulas or merged slaves are errors, degraded-but-workable configs are
// warnings. Options carry custom transforms so their names validate.
func ValidateMappings(cfg *MappingConfig, schema *TemplateSchema, opts ...Option) []ValidationIssue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	reg := newTransformRegistry(o.now)
	for name, fn := range o.transforms {
		reg.Register(name, fn)
	}

	sheets := make(map[string]*SheetSchema, len(schema.Sheets))
	for _, ss := range schema.Sheets {
		sheets[ss.Name] = ss
	}

	names := make([]string, 0, len(cfg.Sheets))
	for name := range cfg.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []ValidationIssue
	for _, name := range names {
		sc := cfg.Sheets[name]
		if sc == nil {
			continue
		}
		ss, ok := sheets[name]
		if !ok {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Sheet:    name,
				Message:  "sheet not found in template schema",
			})
			continue
		}
		if sc.ArraySource != "" {
			issues = append(issues, validateArrayBlock(name, sc, ss, reg, o.scanWindow)...)
			continue
		}
		issues = append(issues, validateCellMappings(name, sc, ss, reg)...)
	}
	return issues
}

func validateCellMappings(sheet string, sc *SheetMappings, ss *SheetSchema, reg *TransformRegistry) []ValidationIssue {
	formulas := make(map[string]bool, len(ss.FormulaFields))
	for _, fi := range ss.FormulaFields {
		formulas[fi.Cell] = true
	}
	slaves := slaveCellSet(ss.MergedRegions)

	var issues []ValidationIssue
	for _, m := range sc.Mappings {
		if m.Source == SourceExternal {
			continue
		}
		ref, err := ParseCellRef(m.Cell)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    sheet,
				Cell:     m.Cell,
				Message:  fmt.Sprintf("invalid cell reference: %v", err),
			})
			continue
		}
		addr := ref.CellName()
		if formulas[addr] {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    sheet,
				Cell:     addr,
				Message:  "mapping targets a formula cell; the value would never be written",
			})
		}
		if slaves[addr] {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    sheet,
				Cell:     addr,
				Message:  "mapping targets a non-master cell of a merged region",
			})
		}
		issues = append(issues, checkTransform(sheet, addr, m.Transform, reg)...)
		issues = append(issues, checkTransform(sheet, addr, m.FallbackTransform, reg)...)
	}
	return issues
}

func validateArrayBlock(sheet string, sc *SheetMappings, ss *SheetSchema, reg *TransformRegistry, scanWindow int) []ValidationIssue {
	var issues []ValidationIssue

	if sc.RowStart < 0 {
		issues = append(issues, ValidationIssue{
			Severity: SeverityError,
			Sheet:    sheet,
			Message:  fmt.Sprintf("row_start %d is negative", sc.RowStart),
		})
	}

	for _, m := range sc.Mappings {
		if m.Column == "" {
			continue
		}
		if _, err := NameToCol(m.Column); err != nil {
			issues = append(issues, ValidationIssue{
				Severity: SeverityError,
				Sheet:    sheet,
				Message:  fmt.Sprintf("invalid column letter %q: %v", m.Column, err),
			})
			continue
		}
		issues = append(issues, checkTransform(sheet, m.Column, m.Transform, reg)...)
	}

	if !anchorPresent(ss, sc, scanWindow) {
		issues = append(issues, ValidationIssue{
			Severity: SeverityWarning,
			Sheet:    sheet,
			Message: fmt.Sprintf("no Total anchor found in column %s below row %d; row capacity will fall back to max_rows",
				anchorOrDefault(sc), rowStartOrDefault(sc)),
		})
	}

	return issues
}

func checkTransform(sheet, cell, name string, reg *TransformRegistry) []ValidationIssue {
	if name == "" {
		return nil
	}
	if src, ok := strings.CutPrefix(name, exprPrefix); ok {
		if _, err := expr.Compile(src, expr.AllowUndefinedVariables()); err != nil {
			return []ValidationIssue{{
				Severity: SeverityError,
				Sheet:    sheet,
				Cell:     cell,
				Message:  fmt.Sprintf("transform expression does not compile: %v", err),
			}}
		}
		return nil
	}
	if !reg.Knows(name) {
		return []ValidationIssue{{
			Severity: SeverityWarning,
			Sheet:    sheet,
			Cell:     cell,
			Message:  fmt.Sprintf("unknown transform %q; value will be written unchanged", name),
		}}
	}
	return nil
}

// slaveCellSet enumerates the non-master cells of every merged region by
// address. Regions parse from their Range string, so schemas restored from
// JSON validate the same as freshly analyzed ones.
func slaveCellSet(regions []MergedRegion) map[string]bool {
	slaves := make(map[string]bool)
	for _, r := range regions {
		area, err := ParseAreaRef(r.Range)
		if err != nil {
			continue
		}
		master := area.Master()
		for row := area.First.Row; row <= area.Last.Row; row++ {
			for col := area.First.Col; col <= area.Last.Col; col++ {
				if row == master.Row && col == master.Col {
					continue
				}
				slaves[cellAddr(ColToName(col), row)] = true
			}
		}
	}
	return slaves
}

// anchorPresent scans the schema's text cells for a Total marker in the
// anchor column at or below row_start, mirroring the scan the filler does
// against the live workbook.
func anchorPresent(ss *SheetSchema, sc *SheetMappings, window int) bool {
	anchor := anchorOrDefault(sc)
	rowStart := rowStartOrDefault(sc)

	match := func(fields []*FieldInfo) bool {
		for _, fi := range fields {
			if fi.ColumnLetter != anchor || fi.Row < rowStart || fi.Row >= rowStart+window {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(fi.Text)) {
			case "total", "totals":
				return true
			}
		}
		return false
	}
	return match(ss.Labels) || match(ss.Headers)
}

func anchorOrDefault(sc *SheetMappings) string {
	if sc.AnchorColumn != "" {
		return sc.AnchorColumn
	}
	return defaultAnchorColumn
}

func rowStartOrDefault(sc *SheetMappings) int {
	if sc.RowStart > 0 {
		return sc.RowStart
	}
	return defaultRowStart
}
