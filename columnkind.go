package resolvercore

// ColumnKind is the closed tag set of column shapes the upstream data
// platform can return (spec §3). The extractor holds one handler per
// kind in a lookup table; unknown kinds fall back to raw text.
type ColumnKind string

const (
	KindText         ColumnKind = "text"
	KindLongText     ColumnKind = "long_text"
	KindNumber       ColumnKind = "number"
	KindDate         ColumnKind = "date"
	KindTime         ColumnKind = "time"
	KindTimeline     ColumnKind = "timeline"
	KindWeek         ColumnKind = "week"
	KindHour         ColumnKind = "hour"
	KindStatus       ColumnKind = "status"
	KindDropdown     ColumnKind = "dropdown"
	KindPeople       ColumnKind = "people"
	KindCheckbox     ColumnKind = "checkbox"
	KindRating       ColumnKind = "rating"
	KindVote         ColumnKind = "vote"
	KindCountry      ColumnKind = "country"
	KindEmail        ColumnKind = "email"
	KindLink         ColumnKind = "link"
	KindPhone        ColumnKind = "phone"
	KindLocation     ColumnKind = "location"
	KindItemID       ColumnKind = "item_id"
	KindCreationLog  ColumnKind = "creation_log"
	KindLastUpdated  ColumnKind = "last_updated"
	KindTimeTracking ColumnKind = "time_tracking"
	KindBoardRelation ColumnKind = "board_relation"
	KindDependency   ColumnKind = "dependency"
	KindMirror       ColumnKind = "mirror"
	KindFormula      ColumnKind = "formula"
	KindWorldClock   ColumnKind = "world_clock"
)

// IsComplex reports whether a column's value can only be known by
// recursive resolution rather than a trusted display-value probe — the
// strategy selector's central question (spec §4.8).
func (k ColumnKind) IsComplex() bool {
	switch k {
	case KindFormula, KindMirror:
		return true
	default:
		return false
	}
}

// AggregationFunc selects how a mirror combines its linked items'
// resolved values (spec §3).
type AggregationFunc string

const (
	AggSum     AggregationFunc = "sum"
	AggAvg     AggregationFunc = "avg"
	AggAverage AggregationFunc = "average"
	AggCount   AggregationFunc = "count"
	AggMin     AggregationFunc = "min"
	AggMax     AggregationFunc = "max"
	AggNone    AggregationFunc = "none"
)

// IsNumeric reports whether the aggregation produces a numeric result,
// which determines the cycle-break default and the empty-result fallback
// (spec §3, §4.5, §4.7).
func (f AggregationFunc) IsNumeric() bool {
	switch f {
	case AggSum, AggAvg, AggAverage, AggCount, AggMin, AggMax:
		return true
	default:
		return false
	}
}

// Apply combines a slice of numbers per the aggregation function.
func (f AggregationFunc) Apply(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch f {
	case AggSum:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum
	case AggAvg, AggAverage:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case AggCount:
		return float64(len(values))
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	default:
		return 0
	}
}

// MirrorTarget names one board/column a mirror displays, per
// settings.displayed_linked_columns (spec §3).
type MirrorTarget struct {
	TargetBoardID string
	ColumnIDs     []string
}

// ColumnSettings carries the kind-specific configuration the resolver
// needs. Formula and mirror columns populate most fields;
// LinkedBoardIDs belongs to board_relation/dependency columns.
type ColumnSettings struct {
	Formula               string
	DisplayedLinkedColumns []MirrorTarget
	Function               AggregationFunc
	RelationColumn         string
	NumberFormatDecimals   int
	// LinkedBoardIDs supplements spec.md: the board_relation/dependency
	// column's own declared set of boards it may link to, used to
	// validate a mirror's relation target (SPEC_FULL §3).
	LinkedBoardIDs []string
}

// ColumnDef is a board's column schema entry (spec §3).
type ColumnDef struct {
	ID       string
	Title    string
	Kind     ColumnKind
	Settings ColumnSettings
}
