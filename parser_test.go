package resolvercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalFormula(t *testing.T, source string, env map[string]Scalar) Scalar {
	t.Helper()
	node, err := ParseFormula(source)
	require.NoError(t, err)
	v, err := Evaluate(node, env, nil, systemClock{})
	require.NoError(t, err)
	return v
}

func TestParseFormulaWhitespaceInvariant(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"5 + 3", " 5 + 3 ", "5+3"} {
		got := evalFormula(t, source, nil)
		assert.Equal(t, "8", got.Display(), "source %q", source)
	}
}

func TestParseFormulaEmptyInput(t *testing.T) {
	t.Parallel()

	node, err := ParseFormula("")
	require.NoError(t, err)
	v, err := Evaluate(node, nil, nil, systemClock{})
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())
}

func TestParseFormulaColumnRef(t *testing.T) {
	t.Parallel()

	got := evalFormula(t, "{numbers1} * 2", map[string]Scalar{"numbers1": NumberScalar(25)})
	assert.Equal(t, "50", got.Display())
}

func TestParseFormulaUnbalancedParens(t *testing.T) {
	t.Parallel()

	_, err := ParseFormula("SUM(1, 2")
	require.Error(t, err)
	var resolveErr *ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, KindParseError, resolveErr.Kind)
}

func TestParseFormulaUnknownFunctionIsTolerant(t *testing.T) {
	t.Parallel()

	// unknown function names parse fine and evaluate to empty (spec §4.2)
	got := evalFormula(t, "MADEUPFUNC(1,2)", nil)
	assert.True(t, got.IsEmpty())
}

func TestExtractColumnIDs(t *testing.T) {
	t.Parallel()

	ids, err := ExtractColumnIDs("IF({status}=\"Done\", {points}, 0) + {bonus}")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"status", "points", "bonus"}, keysOf(ids))
}

func keysOf(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestUnterminatedStringIsPartial(t *testing.T) {
	t.Parallel()

	got := evalFormula(t, `"hello`, nil)
	assert.Equal(t, "hello", got.AsString())
}

func TestDivisionAndModByZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", evalFormula(t, "5/0", nil).Display())
	assert.Equal(t, "0", evalFormula(t, "MOD(5,0)", nil).Display())
}

func TestRoundNegativeDigits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12300", evalFormula(t, "ROUND(12345, -2)", nil).Display())
}

func TestConcatenateMatchesAmpersand(t *testing.T) {
	t.Parallel()

	a := evalFormula(t, `CONCATENATE("a","b","c")`, nil)
	b := evalFormula(t, `"a"&"b"&"c"`, nil)
	assert.Equal(t, a.Display(), b.Display())
	assert.Equal(t, "abc", a.Display())
}

func TestIfBranches(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1", evalFormula(t, `IF(TRUE(), 1, 2)`, nil).Display())
	assert.Equal(t, "2", evalFormula(t, `IF(FALSE(), 1, 2)`, nil).Display())
}

func TestSumCoercesNonNumericToZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3", evalFormula(t, `SUM(1, "nope", 2)`, nil).Display())
}
