package middleware

import "context"

type userKey struct{}

// UserCtx is the authenticated caller: a wallet address and the role its
// token was issued for.
type UserCtx struct {
	Wallet string
	Role   string
}

func WithUser(ctx context.Context, u UserCtx) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func FromCtx(ctx context.Context) (UserCtx, bool) {
	u, ok := ctx.Value(userKey{}).(UserCtx)
	return u, ok && u.Wallet != ""
}
