package xltpl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// TransformFunc is a pure, single-argument value transform. Transforms are
// total: malformed input returns the original value.
type TransformFunc func(value any) any

// RowTransformFunc composes a value from several fields of one source row.
// ok=false means nothing should be written for that cell, with no
// placeholder.
type RowTransformFunc func(row map[string]any) (value any, ok bool)

// exprPrefix marks a transform given as an inline expression instead of a
// registered name, e.g. "expr:value * 12".
const exprPrefix = "expr:"

// TransformRegistry holds the named transforms available to mappings.
// Unknown names degrade to identity, favoring forward progress over strict
// validation.
type TransformRegistry struct {
	values map[string]TransformFunc
	rows   map[string]RowTransformFunc

	exprCache sync.Map // expression string → compiled *vm.Program
	now       func() time.Time
}

// NewTransformRegistry creates a registry pre-loaded with the builtin
// transforms.
func NewTransformRegistry() *TransformRegistry {
	return newTransformRegistry(time.Now)
}

func newTransformRegistry(now func() time.Time) *TransformRegistry {
	r := &TransformRegistry{
		values: make(map[string]TransformFunc),
		rows:   make(map[string]RowTransformFunc),
		now:    now,
	}

	r.values["divide_by_100"] = divideBy100
	r.values["to_number"] = toNumber
	r.values["years_since_purchase"] = r.yearsSincePurchase
	r.values["extract_property_name"] = extractPropertyName
	r.values["extract_city"] = extractCity
	r.values["extract_state_abbrev"] = extractStateAbbrev

	r.rows["bed_bath_label"] = bedBathLabel
	r.rows["calc_occupied"] = calcOccupied

	return r
}

// Register adds or replaces a named value transform.
func (r *TransformRegistry) Register(name string, fn TransformFunc) {
	r.values[name] = fn
}

// Apply runs the named transform on value. Empty or unknown names return
// the value unchanged; "expr:" transforms are evaluated with the value in
// scope.
func (r *TransformRegistry) Apply(name string, value any) any {
	if name == "" {
		return value
	}
	if src, ok := strings.CutPrefix(name, exprPrefix); ok {
		result, err := r.evalExpr(src, map[string]any{"value": value})
		if err != nil || result == nil {
			return value
		}
		return result
	}
	if fn, ok := r.values[name]; ok {
		return fn(value)
	}
	return value
}

// Row looks up a row-scoped transform by name.
func (r *TransformRegistry) Row(name string) (RowTransformFunc, bool) {
	fn, ok := r.rows[name]
	return fn, ok
}

// Knows reports whether a transform name resolves to something other than
// identity. Used by mapping validation.
func (r *TransformRegistry) Knows(name string) bool {
	if name == "" || strings.HasPrefix(name, exprPrefix) {
		return true
	}
	if _, ok := r.values[name]; ok {
		return true
	}
	_, ok := r.rows[name]
	return ok
}

// evalExpr compiles and runs an expression with the given environment,
// caching compiled programs across calls.
func (r *TransformRegistry) evalExpr(src string, env map[string]any) (any, error) {
	var program *vm.Program
	if cached, ok := r.exprCache.Load(src); ok {
		program = cached.(*vm.Program)
	} else {
		compiled, err := expr.Compile(src, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compile transform expression %q: %w", src, err)
		}
		r.exprCache.Store(src, compiled)
		program = compiled
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate transform expression %q: %w", src, err)
	}
	return result, nil
}

// toFloat coerces numbers and numeric strings.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// isNumeric reports whether v is a number value (strings excluded).
func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64:
		return true
	}
	return false
}

// divideBy100 converts a whole-number percentage to a fraction.
func divideBy100(v any) any {
	f, ok := toFloat(v)
	if !ok {
		return v
	}
	return f / 100
}

var nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)

// toNumber strips formatting characters from a string and parses the rest.
func toNumber(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	cleaned := nonNumericRe.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return v
	}
	return f
}

var yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// yearsSincePurchase extracts a 4-digit year from text like
// "Purchased Mar 2019" and returns the years elapsed since.
func (r *TransformRegistry) yearsSincePurchase(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	match := yearRe.FindString(s)
	if match == "" {
		return v
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return v
	}
	return r.now().Year() - year
}

var (
	propNameRe  = regexp.MustCompile(`^(.+?)\s+\d+\s+Unit`)
	leadAlphaRe = regexp.MustCompile(`^([A-Za-z\s]+)`)
)

// extractPropertyName pulls the property name out of text like
// "Urban 148 148 Unit Apartment Building".
func extractPropertyName(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if m := propNameRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := leadAlphaRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return v
}

// extractCity takes the text before the first comma, e.g. "Phoenix" from
// "Phoenix, Arizona - North Phoenix Neighborhood".
func extractCity(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
}

var stateNameRe = regexp.MustCompile(`,\s*([A-Za-z\s]+?)(?:\s*-|$)`)

var stateAbbrevs = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// extractStateAbbrev maps the state name after the comma to its two-letter
// abbreviation; an unknown name falls back to its first two letters
// uppercased.
func extractStateAbbrev(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	m := stateNameRe.FindStringSubmatch(s)
	if m == nil {
		return v
	}
	name := strings.ToLower(strings.TrimSpace(m[1]))
	if abbrev, ok := stateAbbrevs[name]; ok {
		return abbrev
	}
	upper := strings.ToUpper(name)
	if len(upper) > 2 {
		upper = upper[:2]
	}
	return upper
}

// bedBathLabel formats the bed and bath counts as "2B/1Ba". Non-numeric
// bed or bath skips the cell rather than writing a placeholder.
func bedBathLabel(row map[string]any) (any, bool) {
	bed, bath := row["bed"], row["bath"]
	if !isNumeric(bed) || !isNumeric(bath) {
		return nil, false
	}
	b, _ := toFloat(bed)
	ba, _ := toFloat(bath)
	return fmt.Sprintf("%dB/%dBa", int(b), int(ba)), true
}

// calcOccupied computes occupied units as total minus available; either
// side missing skips the cell.
func calcOccupied(row map[string]any) (any, bool) {
	total, ok := toFloat(Resolve(row, "unitMix.units"))
	if !ok {
		return nil, false
	}
	available, ok := toFloat(Resolve(row, "availability.units"))
	if !ok {
		return nil, false
	}
	return int(total) - int(available), true
}
