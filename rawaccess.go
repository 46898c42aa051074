package safesql

import "context"

// RawAccess decides whether Client.Raw may run arbitrary statements.
// Statements still have to pass the query allow-list; the health check
// statement is always permitted.
//
// The decision has two layers:
//  1. Client-level: set via WithRawAccess() at construction
//  2. Context-level: set via WithRawAccessContext() and honoured only when the
//     client was built with WithContextRawAccess()
type RawAccess int

type rawAccessContextKey struct{}

var rawAccessKey = rawAccessContextKey{}

const (
	// RawAccessUnset defers to the next layer. A client with no decision
	// denies raw access.
	RawAccessUnset RawAccess = iota

	// RawAccessAllow permits Raw.
	RawAccessAllow

	// RawAccessDeny rejects Raw with ErrRawDisabled.
	RawAccessDeny
)

func (r RawAccess) String() string {
	switch r {
	case RawAccessAllow:
		return "allow"
	case RawAccessDeny:
		return "deny"
	default:
		return "unset"
	}
}

// WithRawAccessContext returns a new context carrying decision.
//
// The Client does NOT consult this value unless it was created with
// WithContextRawAccess().
func WithRawAccessContext(ctx context.Context, decision RawAccess) context.Context {
	return context.WithValue(ctx, rawAccessKey, decision)
}

// GetRawAccessContext retrieves the decision from context.
// Returns RawAccessUnset if no decision is set.
func GetRawAccessContext(ctx context.Context) RawAccess {
	if decision, ok := ctx.Value(rawAccessKey).(RawAccess); ok {
		return decision
	}
	return RawAccessUnset
}
