package xltpl

import (
	"regexp"
	"strings"
)

// CellKind is the semantic classification of a template cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindFormula
	KindInput
	KindLabel
	KindHeader
)

// String returns the schema JSON name for the kind.
func (k CellKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindFormula:
		return "formula"
	case KindInput:
		return "input"
	case KindLabel:
		return "label"
	case KindHeader:
		return "header"
	default:
		return "unknown"
	}
}

// classifyRule is one entry in the ranked classification rule list.
// The first rule that matches decides the kind.
type classifyRule struct {
	name    string
	kind    CellKind
	matches func(c *Cell, headerRow bool) bool
}

var classifyRules = []classifyRule{
	{"empty", KindEmpty, func(c *Cell, _ bool) bool {
		return c.IsEmpty()
	}},
	{"formula-marker", KindFormula, func(c *Cell, _ bool) bool {
		return c.IsFormula()
	}},
	{"header-row-text", KindHeader, func(c *Cell, headerRow bool) bool {
		return headerRow && c.IsTextual()
	}},
	{"label-heuristic", KindLabel, func(c *Cell, _ bool) bool {
		return c.IsTextual() && isLikelyLabel(c)
	}},
	{"input-value", KindInput, func(c *Cell, _ bool) bool {
		return isLikelyInput(c)
	}},
	{"residual-text", KindLabel, func(c *Cell, _ bool) bool {
		return c.IsTextual()
	}},
	{"residual", KindInput, func(*Cell, bool) bool {
		return true
	}},
}

// Classify determines the semantic kind of a cell. Pure: it inspects only
// the snapshot and the caller-supplied header-row flag.
func Classify(c *Cell, headerRow bool) CellKind {
	for _, r := range classifyRules {
		if r.matches(c, headerRow) {
			return r.kind
		}
	}
	return KindInput
}

var (
	colonLabelRe = regexp.MustCompile(`^\s*[\w\s]+:\s*$`)
	labelVocabRe = regexp.MustCompile(`(?i)^(total|subtotal|sum|average|count|date|name|address|property|unit|rent|price|rate|fee|cost|amount|number|#|no\.|type|status|notes?|description|comments?)\s*:?\s*$`)
)

// isLikelyLabel applies the label heuristics as a plain disjunction: any one
// firing makes the cell a label.
func isLikelyLabel(c *Cell) bool {
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return false
	}
	if strings.HasSuffix(v, ":") {
		return true
	}
	if colonLabelRe.MatchString(c.Value) || labelVocabRe.MatchString(v) {
		return true
	}
	// Short text in the leftmost columns usually names the cell beside it.
	if c.Ref.Col <= 2 && len(v) < 30 {
		return true
	}
	return c.Bold
}

// isLikelyInput matches cells that carry data: numbers, date-formatted
// values, or anything with a non-default number format.
func isLikelyInput(c *Cell) bool {
	if _, ok := c.NumericValue(); ok {
		return true
	}
	if isDateFormat(c.NumFmt) {
		return true
	}
	return c.NumFmt != "" && c.NumFmt != "General"
}

func isDateFormat(code string) bool {
	if code == "" || strings.EqualFold(code, "General") {
		return false
	}
	return strings.ContainsAny(strings.ToLower(code), "dmy")
}
