package member

import "context"

type ctxKey string

const memberKey ctxKey = "member"

// NewContext stores the authenticated member on the request context.
func NewContext(ctx context.Context, m *Member) context.Context {
	return context.WithValue(ctx, memberKey, m)
}

// FromContext returns the authenticated member, if any.
func FromContext(ctx context.Context) (*Member, bool) {
	m, ok := ctx.Value(memberKey).(*Member)
	return m, ok
}
