package authz

import "context"

// Session is the identity established by the authentication layer for the
// current request. The workflow engine trusts it over any actor id a caller
// passes in.
type Session struct {
	UserID int64
	RoleID int
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.UserID == 0 {
		return Session{}, false
	}
	return s, true
}
