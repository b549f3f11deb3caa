package resolvercore

import "strings"

// dependencyPlan is strategy selection's verdict for one formula's set of
// dependency column-ids: whether to probe the platform's display_value at
// all, and which dependencies go through the coordinator versus recursion.
type dependencyPlan struct {
	probeDisplayValue bool
	coordinatorIDs    []string
	recurseIDs        []string
}

// planDependencies is the pure strategy selector from spec §4.8: it never
// observes a runtime value, only schema metadata, and it only ever
// suppresses a fetch whose result the resolver would otherwise discard.
//
// schemaOf resolves a column-id to its kind within the formula's own
// board; a column-id the schema doesn't know about is classified by the
// column-id prefix heuristic in isComplexColumnRef.
func planDependencies(columnIDs []string, schemaOf func(columnID string) (ColumnKind, bool)) dependencyPlan {
	plan := dependencyPlan{}
	allComplex := true
	for _, id := range columnIDs {
		if isComplexColumnRef(id, schemaOf) {
			plan.recurseIDs = append(plan.recurseIDs, id)
		} else {
			plan.coordinatorIDs = append(plan.coordinatorIDs, id)
			allComplex = false
		}
	}
	// If every dependency is complex, the platform's display_value for
	// this formula would reflect values the coordinator can't usefully
	// pre-fetch anyway — skip straight to parallel recursion (spec §4.8).
	plan.probeDisplayValue = !allComplex
	return plan
}

// isComplexColumnRef implements the column-complexity test §4.8 uses for
// both formula dependencies and a mirror's displayed_linked_columns[0]:
// prefer the schema's declared kind when known, and fall back to the
// column-id prefix heuristic (design note §9, open question b) only when
// it isn't — the prefix is a performance shortcut, never authoritative
// over a loaded schema.
func isComplexColumnRef(columnID string, schemaOf func(columnID string) (ColumnKind, bool)) bool {
	if schemaOf != nil {
		if kind, ok := schemaOf(columnID); ok {
			return kind.IsComplex() || kind == "lookup"
		}
	}
	return hasComplexPrefix(columnID)
}

// hasComplexPrefix is the column-id prefix heuristic spec §9 (open
// question b) allows when the target schema hasn't been loaded yet.
func hasComplexPrefix(columnID string) bool {
	for _, prefix := range []string{"formula_", "mirror_", "lookup_"} {
		if strings.HasPrefix(columnID, prefix) {
			return true
		}
	}
	return false
}
