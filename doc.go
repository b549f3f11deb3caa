// Package resolvercore implements the formula resolver core: a recursive,
// caching, request-coalescing engine that computes the concrete scalar value
// of a named column on a named row, even when that column is a formula whose
// arguments are mirrors of formulas on other boards.
//
// The package owns four cooperating pieces: a formula language front-end
// (tokenizer, parser, evaluator, function library), a column-value extractor
// that normalizes heterogeneous upstream column payloads into scalars, a
// recursive resolver that dispatches on column kind, and a cache/coordination
// layer that memoizes schemas and values, deduplicates in-flight work, and
// batches sibling requests for the same item.
//
// Everything else — HTTP routing, GraphQL transport, auth, logging
// configuration — is external. The package consumes only the QueryClient
// capability defined in queryclient.go.
package resolvercore
