package resolvercore

import (
	"fmt"
	"strconv"
	"strings"
)

// extractorFunc maps one RawColumnValue shape to a Scalar. Held in a
// lookup table keyed by ColumnKind rather than expressed as an
// inheritance hierarchy (design note §9).
type extractorFunc func(raw RawColumnValue, settings ColumnSettings) Scalar

var extractorTable = map[ColumnKind]extractorFunc{
	KindText:          extractText,
	KindLongText:      extractText,
	KindEmail:         extractText,
	KindLink:          extractText,
	KindPhone:         extractText,
	KindLocation:      extractText,
	KindCountry:       extractText,
	KindItemID:        extractText,
	KindCreationLog:   extractText,
	KindLastUpdated:   extractText,
	KindWorldClock:    extractText,
	KindNumber:        extractNumber,
	KindRating:        extractNumber,
	KindVote:          extractNumber,
	KindDate:          extractDate,
	KindWeek:          extractDate,
	KindHour:          extractHour,
	KindStatus:        extractText,
	KindDropdown:      extractLabels,
	KindPeople:        extractLabels,
	KindBoardRelation: extractLabels,
	KindDependency:    extractLabels,
	KindCheckbox:      extractCheckbox,
	KindTimeline:      extractTimeline,
	KindTime:          extractText,
	KindTimeTracking:  extractTimeTracking,
	KindMirror:        extractMirror,
}

// ExtractScalar normalizes a raw column payload to a Scalar per the
// per-kind rules in spec §4.5, including the smart defaults for absent
// values (empty for text-like, 0 for numeric, 0 for numeric-aggregated
// mirrors). Unknown kinds fall back to raw text.
func ExtractScalar(kind ColumnKind, raw RawColumnValue, settings ColumnSettings) Scalar {
	fn, ok := extractorTable[kind]
	if !ok {
		return extractText(raw, settings)
	}
	return fn(raw, settings)
}

func extractText(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.HasText {
		return TextScalar(raw.Text)
	}
	if raw.HasDisplay {
		return TextScalar(raw.DisplayValue)
	}
	return Empty
}

func extractNumber(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.HasNumber {
		return NumberScalar(raw.Number)
	}
	if raw.HasText {
		if v, ok := parseLenientNumber(raw.Text); ok {
			return NumberScalar(v)
		}
	}
	return NumberScalar(0)
}

func extractDate(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.Date == "" {
		return Empty
	}
	if raw.Time != "" {
		return TextScalar(raw.Date + " " + raw.Time)
	}
	return TextScalar(raw.Date)
}

func extractHour(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.Time == "" {
		return Empty
	}
	parts := strings.SplitN(raw.Time, ":", 2)
	if len(parts) != 2 {
		return TextScalar(raw.Time)
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return TextScalar(fmt.Sprintf("%02d:%02d", h, m))
}

func extractLabels(raw RawColumnValue, settings ColumnSettings) Scalar {
	if len(raw.Labels) == 0 {
		return Empty
	}
	return TextScalar(strings.Join(raw.Labels, ", "))
}

func extractCheckbox(raw RawColumnValue, settings ColumnSettings) Scalar {
	if !raw.HasBool {
		return TextScalar("false")
	}
	if raw.Bool {
		return TextScalar("true")
	}
	return TextScalar("false")
}

func extractTimeline(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.Date == "" && raw.DateTo == "" {
		return Empty
	}
	return TextScalar(raw.Date + " - " + raw.DateTo)
}

func extractTimeTracking(raw RawColumnValue, settings ColumnSettings) Scalar {
	totalMinutes := int(raw.Seconds) / 60
	h := totalMinutes / 60
	m := totalMinutes % 60
	return TextScalar(fmt.Sprintf("%d:%02d", h, m))
}

// extractMirror implements the mirror rule from spec §4.5, in this
// priority: numeric aggregation over a comma-separated display value, a
// bare single number, the non-empty display value as raw text, linked-item
// names joined, and finally 0 under numeric aggregation or else Empty.
func extractMirror(raw RawColumnValue, settings ColumnSettings) Scalar {
	if raw.HasDisplay && raw.DisplayValue != "" {
		if settings.Function.IsNumeric() {
			if values, ok := parseCommaNumbers(raw.DisplayValue); ok {
				return NumberScalar(settings.Function.Apply(values))
			}
		}
		if v, ok := parseLenientNumber(raw.DisplayValue); ok && !strings.Contains(raw.DisplayValue, ",") {
			return NumberScalar(v)
		}
		// non-numeric text mirror, or a numeric-aggregation mirror whose
		// display_value is a single non-numeric token — the source's
		// own fallback behavior (spec §9 open question (a)).
		return TextScalar(raw.DisplayValue)
	}
	if len(raw.LinkedItems) > 0 {
		names := make([]string, len(raw.LinkedItems))
		for i, item := range raw.LinkedItems {
			names[i] = item.Name
		}
		return TextScalar(strings.Join(names, ", "))
	}
	if settings.Function.IsNumeric() {
		return NumberScalar(0)
	}
	return Empty
}

func parseCommaNumbers(s string) ([]float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return nil, false
	}
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, ok := parseLenientNumber(strings.TrimSpace(p))
		if !ok {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}
