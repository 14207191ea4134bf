package xltpl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func TestDivideBy100(t *testing.T) {
	r := NewTransformRegistry()

	assert.InDelta(t, 0.097, r.Apply("divide_by_100", 9.7).(float64), 1e-9)
	assert.InDelta(t, 0.5, r.Apply("divide_by_100", "50").(float64), 1e-9)
	// malformed input passes through untouched
	assert.Equal(t, "n/a", r.Apply("divide_by_100", "n/a"))
}

func TestToNumber(t *testing.T) {
	r := NewTransformRegistry()

	assert.InDelta(t, 1234.56, r.Apply("to_number", "$1,234.56").(float64), 1e-9)
	assert.InDelta(t, -42, r.Apply("to_number", "-42 units").(float64), 1e-9)
	assert.Equal(t, 7, r.Apply("to_number", 7))
	assert.Equal(t, "no digits", r.Apply("to_number", "no digits"))
}

func TestYearsSincePurchase(t *testing.T) {
	r := newTransformRegistry(fixedClock(2026))

	assert.Equal(t, 7, r.Apply("years_since_purchase", "Purchased Mar 2019"))
	assert.Equal(t, 0, r.Apply("years_since_purchase", "closed 2026"))
	assert.Equal(t, "last spring", r.Apply("years_since_purchase", "last spring"))
}

func TestExtractPropertyName(t *testing.T) {
	r := NewTransformRegistry()

	assert.Equal(t, "Urban 148", r.Apply("extract_property_name", "Urban 148 148 Unit Apartment Building"))
	assert.Equal(t, "Lakeside Commons", r.Apply("extract_property_name", "Lakeside Commons 24 Unit Complex"))
	assert.Equal(t, "Plain Name", r.Apply("extract_property_name", "Plain Name"))
}

func TestExtractCityAndState(t *testing.T) {
	r := NewTransformRegistry()

	assert.Equal(t, "Phoenix", r.Apply("extract_city", "Phoenix, Arizona - North Phoenix Neighborhood"))
	assert.Equal(t, "AZ", r.Apply("extract_state_abbrev", "Phoenix, Arizona - North Phoenix Neighborhood"))
	assert.Equal(t, "NY", r.Apply("extract_state_abbrev", "Brooklyn, New York"))
	// unknown state name falls back to its first two letters
	assert.Equal(t, "PU", r.Apply("extract_state_abbrev", "Springfield, Puffington"))
	assert.Equal(t, "no comma here", r.Apply("extract_state_abbrev", "no comma here"))
}

func TestBedBathLabel(t *testing.T) {
	r := NewTransformRegistry()
	fn, ok := r.Row("bed_bath_label")
	require.True(t, ok)

	v, ok := fn(map[string]any{"bed": 2.0, "bath": 1.0})
	require.True(t, ok)
	assert.Equal(t, "2B/1Ba", v)

	// non-numeric bed means no label, not a placeholder
	_, ok = fn(map[string]any{"bed": "Studio", "bath": 1.0})
	assert.False(t, ok)
	_, ok = fn(map[string]any{"bed": 2.0})
	assert.False(t, ok)
}

func TestCalcOccupied(t *testing.T) {
	r := NewTransformRegistry()
	fn, ok := r.Row("calc_occupied")
	require.True(t, ok)

	row := map[string]any{
		"unitMix":      map[string]any{"units": 148.0},
		"availability": map[string]any{"units": 9.0},
	}
	v, ok := fn(row)
	require.True(t, ok)
	assert.Equal(t, 139, v)

	_, ok = fn(map[string]any{"unitMix": map[string]any{"units": 10.0}})
	assert.False(t, ok)
}

func TestApplyUnknownAndEmpty(t *testing.T) {
	r := NewTransformRegistry()

	assert.Equal(t, "x", r.Apply("", "x"))
	assert.Equal(t, "x", r.Apply("does_not_exist", "x"))
}

func TestApplyExpr(t *testing.T) {
	r := NewTransformRegistry()

	assert.Equal(t, 24, r.Apply("expr:value * 12", 2))
	assert.Equal(t, "2 units", r.Apply(`expr:string(value) + " units"`, 2))
	// a broken expression degrades to identity
	assert.Equal(t, 5, r.Apply("expr:value +* 2", 5))
}

func TestRegisterCustomTransform(t *testing.T) {
	r := NewTransformRegistry()
	r.Register("shout", func(v any) any {
		s, ok := v.(string)
		if !ok {
			return v
		}
		return s + "!"
	})

	assert.Equal(t, "hello!", r.Apply("shout", "hello"))
	assert.True(t, r.Knows("shout"))
	assert.False(t, r.Knows("whisper"))
	assert.True(t, r.Knows("expr:anything"))
	assert.True(t, r.Knows("bed_bath_label"))
}
