package resolvercore

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// builtinFunc is the shape every function-library entry implements: total
// over its arguments, never erroring — malformed input coerces or falls
// back rather than propagating a failure (spec §4.3). ctx carries the
// Clock used by volatile functions (NOW, TODAY) so they stay testable.
type builtinFunc func(ctx *evalContext, args []Scalar) (Scalar, error)

// functionTable holds the ~60 built-ins across four groups: numeric,
// text, logical, and date. It's a flat lookup table rather than a type
// switch or inheritance hierarchy, matching design note §9's guidance on
// polymorphism over column kinds (the same shape applies here: per-name
// handlers in a table, not a class hierarchy).
var functionTable = map[string]builtinFunc{
	// numeric / aggregation
	"SUM":     fnSum,
	"AVERAGE": fnAverage,
	"COUNT":   fnCount,
	"COUNTA":  fnCountA,
	"MAX":     fnMax,
	"MIN":     fnMin,
	"MEDIAN":  fnMedian,
	"ABS":     fnAbs,
	"ROUND":   fnRound,
	"ROUNDUP": fnRoundUp,
	"ROUNDDOWN": fnRoundDown,
	"FLOOR":   fnFloor,
	"CEILING": fnCeiling,
	"SQRT":    fnSqrt,
	"POWER":   fnPower,
	"MOD":     fnMod,
	"PI":      fnPi,
	"EXP":     fnExp,
	"LN":      fnLn,
	"LOG":     fnLog,
	"INT":     fnInt,
	"SIGN":    fnSign,
	"TRUNC":   fnTrunc,

	// text
	"CONCATENATE": fnConcatenate,
	"LEN":         fnLen,
	"UPPER":       fnUpper,
	"LOWER":       fnLower,
	"TRIM":        fnTrim,
	"LEFT":        fnLeft,
	"RIGHT":       fnRight,
	"MID":         fnMid,
	"FIND":        fnFind,
	"SEARCH":      fnSearch,
	"SUBSTITUTE":  fnSubstitute,
	"REPLACE":     fnReplace,
	"REPT":        fnRept,
	"TEXT":        fnText,
	"VALUE":       fnValue,
	"EXACT":       fnExact,
	"PROPER":      fnProper,

	// logical
	"IF":       fnIf,
	"AND":      fnAnd,
	"OR":       fnOr,
	"NOT":      fnNot,
	"XOR":      fnXor,
	"TRUE":     fnTrue,
	"FALSE":    fnFalse,
	"IFERROR":  fnIfError,
	"SWITCH":   fnSwitch,
	"ISBLANK":  fnIsBlank,
	"ISNUMBER": fnIsNumber,
	"ISTEXT":   fnIsText,

	// date
	"TODAY":       fnToday,
	"NOW":         fnNow,
	"DATE":        fnDate,
	"YEAR":        fnYear,
	"MONTH":       fnMonth,
	"DAY":         fnDay,
	"HOUR":        fnHour,
	"MINUTE":      fnMinute,
	"SECOND":      fnSecond,
	"WEEKDAY":     fnWeekday,
	"DATEDIF":     fnDatedif,
	"FORMAT_DATE": fnFormatDate,
	"WORKDAYS":    fnWorkdays,
	"WORKDAY":     fnWorkday,
	"ISOWEEKNUM":  fnIsoWeekNum,
	"EDATE":       fnEdate,
	"EOMONTH":     fnEomonth,
}

func num(args []Scalar, i int) float64 {
	if i >= len(args) {
		return 0
	}
	v, _ := args[i].AsNumber()
	return v
}

func str(args []Scalar, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i].AsString()
}

func boolArg(args []Scalar, i int) bool {
	if i >= len(args) {
		return false
	}
	return args[i].AsBool()
}

// --- numeric / aggregation ---

func fnSum(ctx *evalContext, args []Scalar) (Scalar, error) {
	sum := 0.0
	for _, a := range args {
		if v, ok := a.AsNumber(); ok {
			sum += v
		}
	}
	return NumberScalar(sum), nil
}

func fnAverage(ctx *evalContext, args []Scalar) (Scalar, error) {
	sum, count := 0.0, 0
	for _, a := range args {
		if v, ok := a.AsNumber(); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(sum / float64(count)), nil
}

func fnCount(ctx *evalContext, args []Scalar) (Scalar, error) {
	count := 0
	for _, a := range args {
		if _, ok := a.AsNumber(); ok && a.Kind() == ScalarNumber {
			count++
		}
	}
	return NumberScalar(float64(count)), nil
}

func fnCountA(ctx *evalContext, args []Scalar) (Scalar, error) {
	count := 0
	for _, a := range args {
		if !a.IsEmpty() {
			count++
		}
	}
	return NumberScalar(float64(count)), nil
}

func fnMax(ctx *evalContext, args []Scalar) (Scalar, error) {
	max := math.Inf(-1)
	found := false
	for _, a := range args {
		if v, ok := a.AsNumber(); ok {
			if v > max {
				max = v
			}
			found = true
		}
	}
	if !found {
		return NumberScalar(0), nil
	}
	return NumberScalar(max), nil
}

func fnMin(ctx *evalContext, args []Scalar) (Scalar, error) {
	min := math.Inf(1)
	found := false
	for _, a := range args {
		if v, ok := a.AsNumber(); ok {
			if v < min {
				min = v
			}
			found = true
		}
	}
	if !found {
		return NumberScalar(0), nil
	}
	return NumberScalar(min), nil
}

func fnMedian(ctx *evalContext, args []Scalar) (Scalar, error) {
	var values []float64
	for _, a := range args {
		if v, ok := a.AsNumber(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return NumberScalar(0), nil
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return NumberScalar(values[mid]), nil
	}
	return NumberScalar((values[mid-1] + values[mid]) / 2), nil
}

func fnAbs(ctx *evalContext, args []Scalar) (Scalar, error) { return NumberScalar(math.Abs(num(args, 0))), nil }

// fnRound supports negative digit counts, rounding to 10^|n| precision
// per spec §8's boundary behavior.
func fnRound(ctx *evalContext, args []Scalar) (Scalar, error) {
	return NumberScalar(roundTo(num(args, 0), int(num(args, 1)))), nil
}

func fnRoundUp(ctx *evalContext, args []Scalar) (Scalar, error) {
	v, digits := num(args, 0), int(num(args, 1))
	factor := math.Pow(10, float64(digits))
	if v >= 0 {
		return NumberScalar(math.Ceil(v*factor) / factor), nil
	}
	return NumberScalar(math.Floor(v*factor) / factor), nil
}

func fnRoundDown(ctx *evalContext, args []Scalar) (Scalar, error) {
	v, digits := num(args, 0), int(num(args, 1))
	factor := math.Pow(10, float64(digits))
	if v >= 0 {
		return NumberScalar(math.Floor(v*factor) / factor), nil
	}
	return NumberScalar(math.Ceil(v*factor) / factor), nil
}

func roundTo(v float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(v*factor) / factor
}

func fnFloor(ctx *evalContext, args []Scalar) (Scalar, error) {
	sig := num(args, 1)
	if sig == 0 {
		sig = 1
	}
	return NumberScalar(math.Floor(num(args, 0)/sig) * sig), nil
}

func fnCeiling(ctx *evalContext, args []Scalar) (Scalar, error) {
	sig := num(args, 1)
	if sig == 0 {
		sig = 1
	}
	return NumberScalar(math.Ceil(num(args, 0)/sig) * sig), nil
}

func fnSqrt(ctx *evalContext, args []Scalar) (Scalar, error) {
	v := num(args, 0)
	if v < 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(math.Sqrt(v)), nil
}

func fnPower(ctx *evalContext, args []Scalar) (Scalar, error) {
	return NumberScalar(math.Pow(num(args, 0), num(args, 1))), nil
}

// fnMod returns 0 on modulus by zero, per spec §4.3/§8.
func fnMod(ctx *evalContext, args []Scalar) (Scalar, error) {
	divisor := num(args, 1)
	if divisor == 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(math.Mod(num(args, 0), divisor)), nil
}

func fnPi(ctx *evalContext, args []Scalar) (Scalar, error)  { return NumberScalar(math.Pi), nil }
func fnExp(ctx *evalContext, args []Scalar) (Scalar, error) { return NumberScalar(math.Exp(num(args, 0))), nil }

func fnLn(ctx *evalContext, args []Scalar) (Scalar, error) {
	v := num(args, 0)
	if v <= 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(math.Log(v)), nil
}

func fnLog(ctx *evalContext, args []Scalar) (Scalar, error) {
	v := num(args, 0)
	base := 10.0
	if len(args) > 1 {
		base = num(args, 1)
	}
	if v <= 0 || base <= 0 || base == 1 {
		return NumberScalar(0), nil
	}
	return NumberScalar(math.Log(v) / math.Log(base)), nil
}

func fnInt(ctx *evalContext, args []Scalar) (Scalar, error) { return NumberScalar(math.Floor(num(args, 0))), nil }

func fnSign(ctx *evalContext, args []Scalar) (Scalar, error) {
	v := num(args, 0)
	switch {
	case v > 0:
		return NumberScalar(1), nil
	case v < 0:
		return NumberScalar(-1), nil
	default:
		return NumberScalar(0), nil
	}
}

func fnTrunc(ctx *evalContext, args []Scalar) (Scalar, error) {
	digits := 0
	if len(args) > 1 {
		digits = int(num(args, 1))
	}
	factor := math.Pow(10, float64(digits))
	return NumberScalar(math.Trunc(num(args, 0)*factor) / factor), nil
}

// --- text ---

func fnConcatenate(ctx *evalContext, args []Scalar) (Scalar, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.AsString())
	}
	return TextScalar(b.String()), nil
}

func fnLen(ctx *evalContext, args []Scalar) (Scalar, error) {
	return NumberScalar(float64(len([]rune(str(args, 0))))), nil
}

func fnUpper(ctx *evalContext, args []Scalar) (Scalar, error) { return TextScalar(strings.ToUpper(str(args, 0))), nil }
func fnLower(ctx *evalContext, args []Scalar) (Scalar, error) { return TextScalar(strings.ToLower(str(args, 0))), nil }
func fnTrim(ctx *evalContext, args []Scalar) (Scalar, error)  { return TextScalar(strings.TrimSpace(str(args, 0))), nil }

func fnLeft(ctx *evalContext, args []Scalar) (Scalar, error) {
	s := []rune(str(args, 0))
	n := 1
	if len(args) > 1 {
		n = int(num(args, 1))
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return TextScalar(string(s[:n])), nil
}

func fnRight(ctx *evalContext, args []Scalar) (Scalar, error) {
	s := []rune(str(args, 0))
	n := 1
	if len(args) > 1 {
		n = int(num(args, 1))
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return TextScalar(string(s[len(s)-n:])), nil
}

func fnMid(ctx *evalContext, args []Scalar) (Scalar, error) {
	s := []rune(str(args, 0))
	start := int(num(args, 1)) - 1
	length := int(num(args, 2))
	if start < 0 {
		start = 0
	}
	if start >= len(s) || length <= 0 {
		return TextScalar(""), nil
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	return TextScalar(string(s[start:end])), nil
}

func fnFind(ctx *evalContext, args []Scalar) (Scalar, error) {
	needle, haystack := str(args, 0), str(args, 1)
	start := 0
	if len(args) > 2 {
		start = int(num(args, 2)) - 1
	}
	if start < 0 {
		start = 0
	}
	if start > len(haystack) {
		return NumberScalar(0), nil
	}
	idx := strings.Index(haystack[start:], needle)
	if idx < 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(idx + start + 1)), nil
}

func fnSearch(ctx *evalContext, args []Scalar) (Scalar, error) {
	needle, haystack := strings.ToLower(str(args, 0)), strings.ToLower(str(args, 1))
	start := 0
	if len(args) > 2 {
		start = int(num(args, 2)) - 1
	}
	if start < 0 {
		start = 0
	}
	if start > len(haystack) {
		return NumberScalar(0), nil
	}
	idx := strings.Index(haystack[start:], needle)
	if idx < 0 {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(idx + start + 1)), nil
}

func fnSubstitute(ctx *evalContext, args []Scalar) (Scalar, error) {
	s, old, new := str(args, 0), str(args, 1), str(args, 2)
	if len(args) > 3 {
		occurrence := int(num(args, 3))
		return TextScalar(replaceNth(s, old, new, occurrence)), nil
	}
	return TextScalar(strings.ReplaceAll(s, old, new)), nil
}

func replaceNth(s, old, new string, n int) string {
	if old == "" || n <= 0 {
		return s
	}
	count := 0
	idx := 0
	for {
		pos := strings.Index(s[idx:], old)
		if pos < 0 {
			return s
		}
		idx += pos
		count++
		if count == n {
			return s[:idx] + new + s[idx+len(old):]
		}
		idx += len(old)
	}
}

func fnReplace(ctx *evalContext, args []Scalar) (Scalar, error) {
	s := []rune(str(args, 0))
	start := int(num(args, 1)) - 1
	length := int(num(args, 2))
	newText := str(args, 3)
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	end := start + length
	if end > len(s) || length < 0 {
		end = len(s)
	}
	return TextScalar(string(s[:start]) + newText + string(s[end:])), nil
}

func fnRept(ctx *evalContext, args []Scalar) (Scalar, error) {
	n := int(num(args, 1))
	if n < 0 {
		n = 0
	}
	return TextScalar(strings.Repeat(str(args, 0), n)), nil
}

func fnText(ctx *evalContext, args []Scalar) (Scalar, error) {
	if len(args) > 1 {
		if t, ok := args[0].AsTime(); ok {
			return TextScalar(formatDatePattern(t, str(args, 1))), nil
		}
	}
	return TextScalar(str(args, 0)), nil
}

func fnValue(ctx *evalContext, args []Scalar) (Scalar, error) {
	if len(args) == 0 {
		return NumberScalar(0), nil
	}
	v, ok := args[0].AsNumber()
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(v), nil
}

func fnExact(ctx *evalContext, args []Scalar) (Scalar, error) {
	return BoolScalar(str(args, 0) == str(args, 1)), nil
}

func fnProper(ctx *evalContext, args []Scalar) (Scalar, error) {
	return TextScalar(strings.Title(strings.ToLower(str(args, 0)))), nil
}

// --- logical ---

func fnIf(ctx *evalContext, args []Scalar) (Scalar, error) {
	if len(args) == 0 {
		return Empty, nil
	}
	if args[0].AsBool() {
		if len(args) > 1 {
			return args[1], nil
		}
		return BoolScalar(true), nil
	}
	if len(args) > 2 {
		return args[2], nil
	}
	return BoolScalar(false), nil
}

func fnAnd(ctx *evalContext, args []Scalar) (Scalar, error) {
	for _, a := range args {
		if !a.AsBool() {
			return BoolScalar(false), nil
		}
	}
	return BoolScalar(true), nil
}

func fnOr(ctx *evalContext, args []Scalar) (Scalar, error) {
	for _, a := range args {
		if a.AsBool() {
			return BoolScalar(true), nil
		}
	}
	return BoolScalar(false), nil
}

func fnNot(ctx *evalContext, args []Scalar) (Scalar, error) { return BoolScalar(!boolArg(args, 0)), nil }

func fnXor(ctx *evalContext, args []Scalar) (Scalar, error) {
	result := false
	for _, a := range args {
		if a.AsBool() {
			result = !result
		}
	}
	return BoolScalar(result), nil
}

func fnTrue(ctx *evalContext, args []Scalar) (Scalar, error)  { return BoolScalar(true), nil }
func fnFalse(ctx *evalContext, args []Scalar) (Scalar, error) { return BoolScalar(false), nil }

func fnIfError(ctx *evalContext, args []Scalar) (Scalar, error) {
	// the evaluator never produces errors itself (spec §4.4); IFERROR's
	// first argument is therefore always returned as-is. kept as a
	// builtin for formula compatibility rather than failing to parse.
	if len(args) > 0 {
		return args[0], nil
	}
	return Empty, nil
}

// fnSwitch returns default on no match, or empty string if no default
// (spec §4.3).
func fnSwitch(ctx *evalContext, args []Scalar) (Scalar, error) {
	if len(args) == 0 {
		return TextScalar(""), nil
	}
	expr := args[0]
	i := 1
	for i+1 < len(args) {
		if scalarsEqual(expr, args[i]) {
			return args[i+1], nil
		}
		i += 2
	}
	if i < len(args) {
		return args[i], nil
	}
	return TextScalar(""), nil
}

func fnIsBlank(ctx *evalContext, args []Scalar) (Scalar, error) {
	return BoolScalar(len(args) == 0 || args[0].IsEmpty()), nil
}

func fnIsNumber(ctx *evalContext, args []Scalar) (Scalar, error) {
	return BoolScalar(len(args) > 0 && args[0].Kind() == ScalarNumber), nil
}

func fnIsText(ctx *evalContext, args []Scalar) (Scalar, error) {
	return BoolScalar(len(args) > 0 && args[0].Kind() == ScalarText), nil
}

// --- date ---

func fnToday(ctx *evalContext, args []Scalar) (Scalar, error) {
	now := ctx.clock.Now()
	return DateScalar(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), false), nil
}

func fnNow(ctx *evalContext, args []Scalar) (Scalar, error) {
	return DateScalar(ctx.clock.Now(), true), nil
}

func fnDate(ctx *evalContext, args []Scalar) (Scalar, error) {
	y, m, d := int(num(args, 0)), int(num(args, 1)), int(num(args, 2))
	return DateScalar(time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), false), nil
}

func dateArg(args []Scalar, i int) (time.Time, bool) {
	if i >= len(args) {
		return time.Time{}, false
	}
	return args[i].AsTime()
}

func fnYear(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Year())), nil
}

func fnMonth(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Month())), nil
}

func fnDay(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Day())), nil
}

func fnHour(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Hour())), nil
}

func fnMinute(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Minute())), nil
}

func fnSecond(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Second())), nil
}

func fnWeekday(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	return NumberScalar(float64(t.Weekday()) + 1), nil
}

func fnDatedif(ctx *evalContext, args []Scalar) (Scalar, error) {
	start, ok1 := dateArg(args, 0)
	end, ok2 := dateArg(args, 1)
	if !ok1 || !ok2 {
		return NumberScalar(0), nil
	}
	unit := strings.ToUpper(str(args, 2))
	days := end.Sub(start).Hours() / 24
	switch unit {
	case "Y":
		return NumberScalar(float64(end.Year() - start.Year())), nil
	case "M":
		return NumberScalar(float64((end.Year()-start.Year())*12 + int(end.Month()-start.Month()))), nil
	default: // "D"
		return NumberScalar(math.Trunc(days)), nil
	}
}

// fnFormatDate implements the pattern language from spec §4.3: tokens
// YYYY YY MMMM MMM MM M dddd ddd Do DD D HH H hh h mm m ss s A a, with
// longer tokens matched before shorter ones.
func fnFormatDate(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return TextScalar(""), nil
	}
	return TextScalar(formatDatePattern(t, str(args, 1))), nil
}

var dateTokens = []string{
	"YYYY", "dddd", "MMMM", "ddd", "MMM", "DD", "Do", "YY", "HH", "hh", "mm", "ss",
	"MM", "M", "D", "H", "h", "m", "s", "A", "a",
}

func formatDatePattern(t time.Time, pattern string) string {
	var b strings.Builder
	i := 0
	runes := []rune(pattern)
	for i < len(runes) {
		matched := false
		for _, tok := range dateTokens {
			tr := []rune(tok)
			if i+len(tr) <= len(runes) && string(runes[i:i+len(tr)]) == tok {
				b.WriteString(expandDateToken(t, tok))
				i += len(tr)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

func expandDateToken(t time.Time, tok string) string {
	switch tok {
	case "YYYY":
		return strconv.Itoa(t.Year())
	case "YY":
		return strconv.Itoa(t.Year() % 100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return pad2(int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "Do":
		return strconv.Itoa(t.Day()) + ordinalSuffix(t.Day())
	case "DD":
		return pad2(t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		return pad2(t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return pad2(hour12(t.Hour()))
	case "h":
		return strconv.Itoa(hour12(t.Hour()))
	case "mm":
		return pad2(t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return pad2(t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	default:
		return ""
	}
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func hour12(h int) int {
	h = h % 12
	if h == 0 {
		return 12
	}
	return h
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// fnWorkdays counts working days (Mon-Fri) between two dates inclusive of
// the end date, per spec §4.3.
func fnWorkdays(ctx *evalContext, args []Scalar) (Scalar, error) {
	start, ok1 := dateArg(args, 0)
	end, ok2 := dateArg(args, 1)
	if !ok1 || !ok2 {
		return NumberScalar(0), nil
	}
	if end.Before(start) {
		start, end = end, start
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			count++
		}
	}
	return NumberScalar(float64(count)), nil
}

// fnWorkday returns the date n working days after start, skipping
// weekends.
func fnWorkday(ctx *evalContext, args []Scalar) (Scalar, error) {
	start, ok := dateArg(args, 0)
	if !ok {
		return Empty, nil
	}
	n := int(num(args, 1))
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	d := start
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			n--
		}
	}
	return DateScalar(d, false), nil
}

// fnIsoWeekNum follows ISO-8601: the week containing the year's first
// Thursday is week 1.
func fnIsoWeekNum(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return NumberScalar(0), nil
	}
	_, week := t.ISOWeek()
	return NumberScalar(float64(week)), nil
}

func fnEdate(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return Empty, nil
	}
	months := int(num(args, 1))
	return DateScalar(t.AddDate(0, months, 0), false), nil
}

func fnEomonth(ctx *evalContext, args []Scalar) (Scalar, error) {
	t, ok := dateArg(args, 0)
	if !ok {
		return Empty, nil
	}
	months := int(num(args, 1))
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastOfTarget := firstOfMonth.AddDate(0, months+1, -1)
	return DateScalar(lastOfTarget, false), nil
}
