package audit

import "context"

type contextKey string

const metaKey contextKey = "audit_meta"

// Meta is the ambient request context the recorder stamps onto every entry:
// the acting staff user (empty for anonymous/public flows), a snapshot of
// their role, and the client address. Populated by transport middleware.
type Meta struct {
	ActorID   string
	ActorRole string
	IPAddress string
	UserAgent string
}

// WithMeta returns a context carrying the request meta.
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey, m)
}

// MetaFromContext extracts request meta; the zero value means an anonymous
// call outside any HTTP request (e.g. the retention job).
func MetaFromContext(ctx context.Context) Meta {
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}
