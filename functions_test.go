package resolvercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDatePattern(t *testing.T) {
	t.Parallel()

	got := evalFormula(t, `FORMAT_DATE(DATE(2024,3,9), "YYYY-MM-DD (dddd)")`, nil)
	assert.Equal(t, "2024-03-09 (Saturday)", got.Display())
}

func TestWorkdaysSkipsWeekends(t *testing.T) {
	t.Parallel()

	// 2024-03-04 (Monday) through 2024-03-08 (Friday): 5 workdays inclusive.
	got := evalFormula(t, `WORKDAYS(DATE(2024,3,4), DATE(2024,3,8))`, nil)
	assert.Equal(t, "5", got.Display())
}

func TestSwitchDefaultAndEmptyFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "b", evalFormula(t, `SWITCH(2, 1, "a", 2, "b", "z")`, nil).Display())
	assert.Equal(t, "z", evalFormula(t, `SWITCH(9, 1, "a", 2, "b", "z")`, nil).Display())
	assert.Equal(t, "", evalFormula(t, `SWITCH(9, 1, "a", 2, "b")`, nil).Display())
}

func TestTextFunctions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "HELLO", evalFormula(t, `UPPER("hello")`, nil).Display())
	assert.Equal(t, "ell", evalFormula(t, `MID("hello", 2, 3)`, nil).Display())
	assert.Equal(t, "5", evalFormula(t, `LEN("hello")`, nil).Display())
}

func TestValueFunction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "42", evalFormula(t, `VALUE("42")`, nil).Display())
	assert.Equal(t, "0", evalFormula(t, `VALUE("not a number")`, nil).Display())
	// zero-argument call must not panic (every function is total, spec §4.3).
	assert.Equal(t, "0", evalFormula(t, `VALUE()`, nil).Display())
}

func TestAggregationFunctions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6", evalFormula(t, `SUM(1,2,3)`, nil).Display())
	assert.Equal(t, "2", evalFormula(t, `AVERAGE(1,2,3)`, nil).Display())
	assert.Equal(t, "3", evalFormula(t, `MAX(1,2,3)`, nil).Display())
	assert.Equal(t, "1", evalFormula(t, `MIN(1,2,3)`, nil).Display())
}
