package xltpl

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeUnitMixFixture builds a repeating-block template: data rows 5-8,
// a Total anchor at B9 with an aggregate formula beside it, and stale
// placeholder values in the block.
func writeUnitMixFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"
	require.NoError(t, f.SetSheetName(sheet, "UnitMix"))

	require.NoError(t, f.SetCellValue("UnitMix", "B4", "Unit Type"))
	require.NoError(t, f.SetCellValue("UnitMix", "C4", "Units"))
	for row := 5; row <= 8; row++ {
		require.NoError(t, f.SetCellValue("UnitMix", cellAddr("B", row), "placeholder"))
		require.NoError(t, f.SetCellValue("UnitMix", cellAddr("C", row), 0))
	}
	require.NoError(t, f.SetCellValue("UnitMix", "B9", "Total"))
	require.NoError(t, f.SetCellFormula("UnitMix", "C9", "SUM(C5:C8)"))

	path := filepath.Join(t.TempDir(), "unitmix.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func unitMixConfig() *MappingConfig {
	return &MappingConfig{
		JSONRoot: DefaultJSONRoot,
		Sheets: map[string]*SheetMappings{
			"UnitMix": {
				ArraySource:  "unitMix.rows",
				RowStart:     5,
				AnchorColumn: "B",
				Mappings: []*Mapping{
					{Column: "B", Transform: "bed_bath_label"},
					{Column: "C", JSONField: "units"},
				},
			},
		},
	}
}

const unitMixDoc = `{
	"structured_data": [{
		"unitMix": {
			"rows": [
				{"bed": 2, "bath": 1, "units": 96},
				{"bed": "All 2 Bed", "units": 96},
				{"bed": 3, "bath": 2, "units": 52},
				{"bed": "Total", "units": 148}
			]
		}
	}]
}`

func TestFillArrayReconcilesRows(t *testing.T) {
	template := writeUnitMixFixture(t)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, unitMixDoc)

	report, err := Fill(template, doc, out, WithMappings(unitMixConfig()))
	require.NoError(t, err)
	assert.Equal(t, "success", report.Status)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	get := func(cell string) string {
		v, err := f.GetCellValue("UnitMix", cell)
		require.NoError(t, err)
		return v
	}

	// two concrete rows land at the top of the block; summary items are
	// filtered out
	assert.Equal(t, "2B/1Ba", get("B5"))
	assert.Equal(t, "96", get("C5"))
	assert.Equal(t, "3B/2Ba", get("B6"))
	assert.Equal(t, "52", get("C6"))

	// the two unused rows are deleted, so the Total row closes the gap
	assert.Equal(t, "Total", get("B7"))
	assert.NotEqual(t, "Total", get("B9"))
	assert.NotEqual(t, "placeholder", get("B7"))
	assert.NotEqual(t, "placeholder", get("B8"))

	// the aggregate formula followed the shift and still anchors the block
	formula, err := f.GetCellFormula("UnitMix", "C7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(formula, "SUM(C5:"), "formula was %q", formula)
}

func TestFillArrayKeepsRowsWhenDisabled(t *testing.T) {
	template := writeUnitMixFixture(t)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, unitMixDoc)

	cfg := unitMixConfig()
	no := false
	cfg.Sheets["UnitMix"].DeleteEmptyRows = &no

	_, err := Fill(template, doc, out, WithMappings(cfg))
	require.NoError(t, err)

	// Total stays put; the unused rows are merely cleared
	assert.Equal(t, "Total", cellValue(t, out, "UnitMix", "B9"))
	assert.Empty(t, cellValue(t, out, "UnitMix", "B7"))
	assert.Empty(t, cellValue(t, out, "UnitMix", "C8"))
}

func TestFillArrayFallsBackToMaxRows(t *testing.T) {
	// no Total anchor anywhere: capacity comes from max_rows
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "UnitMix"))
	template := filepath.Join(t.TempDir(), "anchorless.xlsx")
	require.NoError(t, f.SaveAs(template))

	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, unitMixDoc)

	cfg := unitMixConfig()
	cfg.Sheets["UnitMix"].MaxRows = 3
	no := false
	cfg.Sheets["UnitMix"].DeleteEmptyRows = &no

	report, err := Fill(template, doc, out, WithMappings(cfg))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Summary.TotalFilled) // 2 rows x 2 columns
	assert.Equal(t, "2B/1Ba", cellValue(t, out, "UnitMix", "B5"))
	assert.Equal(t, "3B/2Ba", cellValue(t, out, "UnitMix", "B6"))
}

func TestFillArrayCapacityExhausted(t *testing.T) {
	template := writeUnitMixFixture(t)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, `{
		"structured_data": [{
			"unitMix": {"rows": [
				{"bed": 1, "bath": 1, "units": 10},
				{"bed": 2, "bath": 1, "units": 20},
				{"bed": 2, "bath": 2, "units": 30},
				{"bed": 3, "bath": 2, "units": 40},
				{"bed": 4, "bath": 3, "units": 50}
			]}
		}]
	}`)

	report, err := Fill(template, doc, out, WithMappings(unitMixConfig()))
	require.NoError(t, err)

	// block holds four rows (5..8); the fifth item is dropped and reported
	assert.Equal(t, "1B/1Ba", cellValue(t, out, "UnitMix", "B5"))
	assert.Equal(t, "3B/2Ba", cellValue(t, out, "UnitMix", "B8"))
	assert.Equal(t, "Total", cellValue(t, out, "UnitMix", "B9"))

	found := false
	for _, skip := range report.SkippedFields {
		if strings.Contains(skip.Reason, "capacity") {
			found = true
		}
	}
	assert.True(t, found, "expected a capacity-exhausted skip entry")
}

func TestFillArrayNoData(t *testing.T) {
	template := writeUnitMixFixture(t)
	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, `{"structured_data": [{"unitMix": {}}]}`)

	report, err := Fill(template, doc, out, WithMappings(unitMixConfig()))
	require.NoError(t, err)

	require.Len(t, report.SkippedFields, 1)
	assert.Equal(t, "no array data found at: unitMix.rows", report.SkippedFields[0].Reason)

	// the block was cleared but no rows were deleted
	assert.Empty(t, cellValue(t, out, "UnitMix", "B5"))
	assert.Equal(t, "Total", cellValue(t, out, "UnitMix", "B9"))
}

func TestFillArrayProtectsFormulaCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "UnitMix"))
	// C5 computes instead of accepting data
	require.NoError(t, f.SetCellFormula("UnitMix", "C5", "D5*2"))
	require.NoError(t, f.SetCellValue("UnitMix", "B9", "Total"))
	template := filepath.Join(t.TempDir(), "formulas.xlsx")
	require.NoError(t, f.SaveAs(template))

	out := filepath.Join(t.TempDir(), "out.xlsx")
	doc := decodeJSON(t, `{"structured_data": [{"unitMix": {"rows": [{"bed": 2, "bath": 1, "units": 96}]}}]}`)

	cfg := unitMixConfig()
	report, err := Fill(template, doc, out, WithMappings(cfg))
	require.NoError(t, err)

	fo, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer fo.Close()
	formula, err := fo.GetCellFormula("UnitMix", "C5")
	require.NoError(t, err)
	assert.Equal(t, "D5*2", formula)

	found := false
	for _, skip := range report.SkippedFields {
		if skip.Cell == "C5" && strings.Contains(skip.Reason, "formula") {
			found = true
		}
	}
	assert.True(t, found, "expected a formula-protection skip for C5")
}
