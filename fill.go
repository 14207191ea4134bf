package xltpl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Filler populates template copies from extracted documents according to a
// mapping config. A Filler holds no per-run state; independent fills may
// run concurrently.
type Filler struct {
	opts       *Options
	transforms *TransformRegistry
}

// NewFiller creates a Filler with the given options.
func NewFiller(opts ...Option) *Filler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	reg := newTransformRegistry(o.now)
	for name, fn := range o.transforms {
		reg.Register(name, fn)
	}
	return &Filler{opts: o, transforms: reg}
}

// Fill populates a copy of the template at templatePath with values from
// doc and writes it to outputPath, returning the fill report. An empty
// outputPath derives a timestamped sibling of the template.
func Fill(templatePath string, doc any, outputPath string, opts ...Option) (*FillReport, error) {
	return NewFiller(opts...).Fill(templatePath, doc, outputPath)
}

// Fill runs one fill. The template itself is never mutated: all writes go
// to a fresh copy, and a failure before save removes the partial copy.
// Per-mapping failures are recorded in the report; only structural failures
// (unreadable config, unresolvable data root, unopenable template) return
// an error.
func (f *Filler) Fill(templatePath string, doc any, outputPath string) (*FillReport, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = defaultOutputPath(templatePath, f.opts.now())
	}
	if err := copyFile(templatePath, outputPath); err != nil {
		return nil, fmt.Errorf("copy template: %w", err)
	}

	wf, err := excelize.OpenFile(outputPath)
	if err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("open template copy: %w", err)
	}
	defer wf.Close()

	root := cfg.JSONRoot
	if root == "" {
		root = DefaultJSONRoot
	}
	data := Resolve(doc, root)
	if data == nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("resolve json_root %q: %w", root, ErrDataRootNotFound)
	}

	report := newFillReport(outputPath, f.opts.now())

	names := make([]string, 0, len(cfg.Sheets))
	for name := range cfg.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sc := cfg.Sheets[name]
		if sc == nil {
			continue
		}
		if idx, _ := wf.GetSheetIndex(name); idx < 0 {
			report.add(StatusError, &FieldResult{Sheet: name, Error: "sheet not found in template"})
			continue
		}
		if sc.ArraySource != "" {
			f.fillArray(wf, name, sc, data, report)
			continue
		}
		for _, m := range sc.Mappings {
			res, status := f.fillCell(wf, name, m, data, doc)
			res.Sheet = name
			report.add(status, res)
		}
	}

	if err := wf.Save(); err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("save filled template: %w", err)
	}

	report.finalize()
	return report, nil
}

// config returns the mapping config, loading it from the configured path
// when it was not supplied directly.
func (f *Filler) config() (*MappingConfig, error) {
	if f.opts.mappings != nil {
		return f.opts.mappings, nil
	}
	if f.opts.mappingsPath != "" {
		return LoadMappingConfig(f.opts.mappingsPath)
	}
	return nil, ErrNoMappings
}

// fillCell resolves one single-cell mapping. Resolution order: external
// short-circuit, primary path against the data root (or the whole document
// when a root override is present), fallback path against the whole
// document, transform, formula protection, write.
func (f *Filler) fillCell(wf *excelize.File, sheet string, m *Mapping, data, doc any) (*FieldResult, string) {
	res := &FieldResult{Cell: m.Cell, Label: m.Label}

	if m.Source == SourceExternal || m.JSONPath == "" {
		res.Notes = m.Notes
		return res, StatusExternal
	}

	base := data
	if m.JSONRootOverride != nil {
		base = doc
	}
	value := Resolve(base, m.JSONPath)

	if value == nil && m.FallbackPath != "" {
		value = Resolve(doc, m.FallbackPath)
		if value != nil && m.FallbackTransform != "" {
			value = f.transforms.Apply(m.FallbackTransform, value)
		}
	}

	if value == nil {
		res.Reason = fmt.Sprintf("no value found at path: %s", m.JSONPath)
		return res, StatusSkipped
	}

	value = f.transforms.Apply(m.Transform, value)

	if _, err := ParseCellRef(m.Cell); err != nil {
		res.Error = err.Error()
		return res, StatusError
	}

	protected, err := isFormulaCell(wf, sheet, m.Cell)
	if err != nil {
		res.Error = err.Error()
		return res, StatusError
	}
	if protected {
		res.Reason = "cell contains formula, not overwriting"
		return res, StatusSkipped
	}

	if err := wf.SetCellValue(sheet, m.Cell, value); err != nil {
		res.Error = err.Error()
		return res, StatusError
	}

	res.Value = value
	res.JSONPath = m.JSONPath
	return res, StatusFilled
}

// isFormulaCell reports whether a cell is formula-protected, either by a
// stored formula or a literal value starting with the formula marker.
func isFormulaCell(wf *excelize.File, sheet, cell string) (bool, error) {
	formula, err := wf.GetCellFormula(sheet, cell)
	if err != nil {
		return false, err
	}
	if formula != "" {
		return true, nil
	}
	value, err := wf.GetCellValue(sheet, cell)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.TrimSpace(value), "="), nil
}

// defaultOutputPath derives "<name>_filled_<timestamp>.xlsx" next to the
// template.
func defaultOutputPath(templatePath string, now time.Time) string {
	base := filepath.Base(templatePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_filled_%s.xlsx", stem, now.Format("20060102_150405"))
	return filepath.Join(filepath.Dir(templatePath), name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
