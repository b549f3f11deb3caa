package resolvercore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractNumberSmartDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", ExtractScalar(KindNumber, RawColumnValue{}, ColumnSettings{}).Display())
	assert.Equal(t, "7", ExtractScalar(KindNumber, RawColumnValue{HasNumber: true, Number: 7}, ColumnSettings{}).Display())
	assert.Equal(t, "7", ExtractScalar(KindNumber, RawColumnValue{HasText: true, Text: "7"}, ColumnSettings{}).Display())
}

func TestExtractCheckbox(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "true", ExtractScalar(KindCheckbox, RawColumnValue{HasBool: true, Bool: true}, ColumnSettings{}).Display())
	assert.Equal(t, "false", ExtractScalar(KindCheckbox, RawColumnValue{}, ColumnSettings{}).Display())
}

func TestExtractMirrorNumericDisplayValue(t *testing.T) {
	t.Parallel()

	settings := ColumnSettings{Function: AggAverage}
	got := ExtractScalar(KindMirror, RawColumnValue{HasDisplay: true, DisplayValue: "10, 20"}, settings)
	assert.Equal(t, "15", got.Display())
}

// open question (a): a numeric-aggregation mirror whose display_value is
// a single non-numeric token falls back to text, matching the source
// system's own behavior rather than coercing to 0.
func TestExtractMirrorNonNumericFallback(t *testing.T) {
	t.Parallel()

	settings := ColumnSettings{Function: AggSum}
	got := ExtractScalar(KindMirror, RawColumnValue{HasDisplay: true, DisplayValue: "N/A"}, settings)
	assert.Equal(t, "N/A", got.Display())
}

func TestExtractMirrorEmptyNumericDefault(t *testing.T) {
	t.Parallel()

	settings := ColumnSettings{Function: AggCount}
	got := ExtractScalar(KindMirror, RawColumnValue{}, settings)
	assert.Equal(t, "0", got.Display())
}

func TestExtractMirrorLinkedItemNames(t *testing.T) {
	t.Parallel()

	settings := ColumnSettings{Function: AggNone}
	got := ExtractScalar(KindMirror, RawColumnValue{LinkedItems: []LinkedItem{{Name: "A"}, {Name: "B"}}}, settings)
	assert.Equal(t, "A, B", got.Display())
}

func TestExtractTimeTracking(t *testing.T) {
	t.Parallel()

	got := ExtractScalar(KindTimeTracking, RawColumnValue{Seconds: 5400}, ColumnSettings{})
	assert.Equal(t, "1:30", got.Display())
}

func TestUnknownKindFallsBackToText(t *testing.T) {
	t.Parallel()

	got := ExtractScalar(ColumnKind("unknown_future_kind"), RawColumnValue{HasText: true, Text: "raw"}, ColumnSettings{})
	assert.Equal(t, "raw", got.Display())
}
