package resolvercore

import "fmt"

// ResolveErrorKind is the closed tag set for errors the core produces.
// Callers should use [errors.As] to recover a *ResolveError and switch on
// its Kind rather than comparing error strings.
type ResolveErrorKind uint8

const (
	// KindParseError is unrecoverable for the formula it came from; the
	// resolve that hit it returns Empty and logs the parse message.
	KindParseError ResolveErrorKind = iota
	// KindMissingSchema means the board is unknown to the platform; the
	// resolve returns Empty.
	KindMissingSchema
	// KindMissingColumn means the column id isn't on the board; the
	// resolve returns Empty.
	KindMissingColumn
	// KindRemoteError means the QueryClient surfaced a transport or
	// platform error; it propagates to the caller with its cause chained.
	KindRemoteError
	// KindCancelled means the session's cancellation signal fired;
	// it propagates to the caller.
	KindCancelled
)

func (k ResolveErrorKind) String() string {
	switch k {
	case KindParseError:
		return "parse_error"
	case KindMissingSchema:
		return "missing_schema"
	case KindMissingColumn:
		return "missing_column"
	case KindRemoteError:
		return "remote_error"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ResolveError is the single sum type carrying every error kind the core
// can produce. Only KindRemoteError and KindCancelled ever escape a
// top-level resolve call; the others are swallowed into a fallback scalar
// per the propagation policy and only surface here for logging.
type ResolveError struct {
	Kind    ResolveErrorKind
	Board   string
	Column  string
	Item    string
	Message string
	Cause   error
}

func (e *ResolveError) Error() string {
	loc := e.Board
	if e.Column != "" {
		loc = fmt.Sprintf("%s/%s", loc, e.Column)
	}
	if e.Item != "" {
		loc = fmt.Sprintf("%s@%s", loc, e.Item)
	}
	if e.Message != "" {
		return fmt.Sprintf("resolvercore: %s (%s): %s", e.Kind, loc, e.Message)
	}
	return fmt.Sprintf("resolvercore: %s (%s)", e.Kind, loc)
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, Cancelled) match regardless of location fields.
func (e *ResolveError) Is(target error) bool {
	t, ok := target.(*ResolveError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func parseErr(board, column, message string) *ResolveError {
	return &ResolveError{Kind: KindParseError, Board: board, Column: column, Message: message}
}

func missingSchemaErr(board string) *ResolveError {
	return &ResolveError{Kind: KindMissingSchema, Board: board, Message: "board schema not found"}
}

func missingColumnErr(board, column string) *ResolveError {
	return &ResolveError{Kind: KindMissingColumn, Board: board, Column: column, Message: "column not on board"}
}

func remoteErr(board, column, item string, cause error) *ResolveError {
	return &ResolveError{Kind: KindRemoteError, Board: board, Column: column, Item: item, Cause: cause, Message: "remote query failed"}
}

func cancelledErr(cause error) *ResolveError {
	return &ResolveError{Kind: KindCancelled, Cause: cause, Message: "resolution cancelled"}
}

// Cancelled is the sentinel a caller can compare against with errors.Is
// for the kind alone, without caring about location fields.
var Cancelled = &ResolveError{Kind: KindCancelled}

// RemoteFailure is the sentinel for errors.Is(err, RemoteFailure).
var RemoteFailure = &ResolveError{Kind: KindRemoteError}

// fallbackFor returns the scalar a failed dependency contributes to its
// parent rather than failing the whole tree, per the propagation policy:
// empty for text-like contexts, 0 for numeric-aggregation contexts.
func fallbackFor(numericContext bool) Scalar {
	if numericContext {
		return NumberScalar(0)
	}
	return Empty
}
