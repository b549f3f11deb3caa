package resolvercore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ScalarKind is the closed tag set for Scalar.
type ScalarKind uint8

const (
	ScalarEmpty ScalarKind = iota
	ScalarNumber
	ScalarText
	ScalarBool
	ScalarDate
)

// Scalar is the tagged value every boundary conversion in the resolver
// passes through: parsing a formula literal, extracting a column payload,
// and serializing a result for display all produce or consume a Scalar.
type Scalar struct {
	kind   ScalarKind
	number float64
	text   string
	boolean bool
	date   time.Time
	hasTime bool
}

// Empty is the zero Scalar.
var Empty = Scalar{kind: ScalarEmpty}

func NumberScalar(v float64) Scalar { return Scalar{kind: ScalarNumber, number: v} }
func TextScalar(v string) Scalar    { return Scalar{kind: ScalarText, text: v} }
func BoolScalar(v bool) Scalar      { return Scalar{kind: ScalarBool, boolean: v} }

// DateScalar builds a date scalar. hasTime controls whether the
// time-of-day component participates in display/comparison.
func DateScalar(t time.Time, hasTime bool) Scalar {
	return Scalar{kind: ScalarDate, date: t, hasTime: hasTime}
}

func (s Scalar) Kind() ScalarKind { return s.kind }
func (s Scalar) IsEmpty() bool    { return s.kind == ScalarEmpty }

// AsNumber returns the scalar coerced to a number, leniently parsing text.
// The second return value is false when coercion fails entirely.
func (s Scalar) AsNumber() (float64, bool) {
	switch s.kind {
	case ScalarNumber:
		return s.number, true
	case ScalarBool:
		if s.boolean {
			return 1, true
		}
		return 0, true
	case ScalarText:
		return parseLenientNumber(s.text)
	case ScalarDate:
		return float64(s.date.Unix()), true
	default:
		return 0, false
	}
}

// AsString renders the scalar the way the evaluator concatenates it. It
// matches Display except for date-times: AsString keeps the time of day,
// while Display always prints YYYY-MM-DD. AsString is used internally by
// & and string functions; Display is the public serialization contract.
func (s Scalar) AsString() string {
	switch s.kind {
	case ScalarEmpty:
		return ""
	case ScalarText:
		return s.text
	case ScalarBool:
		if s.boolean {
			return "true"
		}
		return "false"
	case ScalarNumber:
		return formatNumber(s.number)
	case ScalarDate:
		if s.hasTime {
			return s.date.Format("2006-01-02 15:04:05")
		}
		return s.date.Format("2006-01-02")
	default:
		return ""
	}
}

// AsBool follows the evaluator's truthiness rule: non-zero numbers and
// non-empty, non-"false" strings are truthy.
func (s Scalar) AsBool() bool {
	switch s.kind {
	case ScalarBool:
		return s.boolean
	case ScalarNumber:
		return s.number != 0
	case ScalarText:
		return s.text != "" && !strings.EqualFold(s.text, "false")
	case ScalarEmpty:
		return false
	default:
		return true
	}
}

// AsTime returns the scalar's civil date, parsing ISO-8601-ish text when
// the scalar isn't already a date.
func (s Scalar) AsTime() (time.Time, bool) {
	switch s.kind {
	case ScalarDate:
		return s.date, true
	case ScalarText:
		return parseLenientDate(s.text)
	default:
		return time.Time{}, false
	}
}

// Display renders a Scalar the way a caller would see it in a cell,
// per the core's serialization contract: integers print without a
// decimal point, fractional numbers round to 6 decimal places, dates
// print as YYYY-MM-DD, bools print "true"/"false", empty prints "".
func (s Scalar) Display() string {
	switch s.kind {
	case ScalarEmpty:
		return ""
	case ScalarBool:
		if s.boolean {
			return "true"
		}
		return "false"
	case ScalarDate:
		return s.date.Format("2006-01-02")
	case ScalarText:
		return s.text
	case ScalarNumber:
		return formatNumber(s.number)
	default:
		return ""
	}
}

// Equal reports whether two scalars are the same tag and value. Used by
// tests; the value cache does not call it.
func (s Scalar) Equal(other Scalar) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case ScalarEmpty:
		return true
	case ScalarNumber:
		return s.number == other.number
	case ScalarText:
		return s.text == other.text
	case ScalarBool:
		return s.boolean == other.boolean
	case ScalarDate:
		return s.date.Equal(other.date) && s.hasTime == other.hasTime
	default:
		return false
	}
}

func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	rounded := math.Round(v*1e6) / 1e6
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", rounded), "0"), ".")
}

// parseLenientNumber parses numeric text the way the evaluator's numeric
// coercion does: leading/trailing whitespace ignored, thousands separators
// ignored, a trailing "%" divides by 100.
func parseLenientNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	pct := false
	if strings.HasSuffix(t, "%") {
		pct = true
		t = strings.TrimSuffix(t, "%")
	}
	t = strings.ReplaceAll(t, ",", "")
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v /= 100
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

func parseLenientDate(s string) (time.Time, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
