package venauth

import "context"

type tokenContextKey struct{}

// WithToken returns a context carrying the inbound call's token. Host
// middleware stores the extracted token here so the manager's
// current-token operations can find it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the token stored by WithToken, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ContextResolver is the default TokenResolver: it reads the token the
// host's middleware put on the context with WithToken.
type ContextResolver struct{}

var _ TokenResolver = ContextResolver{}

// Token implements TokenResolver.
func (ContextResolver) Token(ctx context.Context) (string, bool) {
	return TokenFromContext(ctx)
}
