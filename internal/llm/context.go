package llm

import "context"

type sessionIDCtxKey struct{}

// WithSessionID tags a context with the user session identifier so recorded
// calls can be traced back to the session that made them.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}

// SessionIDFromContext retrieves the session identifier, or "".
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDCtxKey{}).(string)
	return id
}
