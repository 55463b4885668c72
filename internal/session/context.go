package session

import "context"

type ctxKey struct{}

// WithAuth returns a context carrying auth for the code running beneath it.
func WithAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, ctxKey{}, auth)
}

// FromContext returns the Auth stored by WithAuth. It panics when none is in scope.
func FromContext(ctx context.Context) Auth {
	auth, ok := ctx.Value(ctxKey{}).(Auth)
	if !ok || auth == nil {
		panic("session: FromContext called without a session in scope; wrap the context with session.WithAuth")
	}
	return auth
}
