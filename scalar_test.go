package resolvercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarDisplay(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		in   Scalar
		want string
	}{
		{"integer", NumberScalar(42), "42"},
		{"fractional rounds to six places", NumberScalar(1.0 / 3.0), "0.333333"},
		{"negative integer", NumberScalar(-7), "-7"},
		{"bool true", BoolScalar(true), "true"},
		{"bool false", BoolScalar(false), "false"},
		{"empty", Empty, ""},
		{"text passes through", TextScalar("hello"), "hello"},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Display())
		})
	}
}

func TestScalarAsNumberCoercion(t *testing.T) {
	t.Parallel()

	v, ok := TextScalar(" 1,234.5% ").AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 12.345, v, 1e-9)

	_, ok = TextScalar("not a number").AsNumber()
	assert.False(t, ok)

	v, ok = BoolScalar(true).AsNumber()
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestScalarEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, NumberScalar(5).Equal(NumberScalar(5)))
	assert.False(t, NumberScalar(5).Equal(TextScalar("5")), "Equal is strict on kind; use the evaluator's = operator for coercive equality")
	assert.False(t, TextScalar("a").Equal(TextScalar("b")))
	assert.True(t, Empty.Equal(Empty))
}
