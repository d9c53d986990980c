package venauth

import "context"

// TokenInfo is what a successful login returns to the caller.
type TokenInfo struct {
	Token       string         `json:"token"`
	CreatedTime int64          `json:"createdTime"` // unix milliseconds
	AddInfo     map[string]any `json:"addInfo,omitempty"`
}

// TokenValue is the record stored per live token. Exactly one exists for
// every token that has not been logged out or expired.
type TokenValue struct {
	LoginID     string         `json:"loginId"`
	CreatedTime int64          `json:"createdTime"` // unix milliseconds
	AddInfo     map[string]any `json:"addInfo,omitempty"`
}

// Session aggregates all currently active tokens of one identity, in login
// order, plus an arbitrary application payload. A session with an empty
// token list never exists; it is deleted instead.
type Session struct {
	SessionID   string   `json:"sessionId"`
	CreatedTime int64    `json:"createdTime"` // unix milliseconds
	Data        any      `json:"data,omitempty"`
	TokenList   []string `json:"tokenList"`
}

// GrantsProvider supplies the roles and permissions of an identity. The
// core only tests membership against what the provider returns; what a
// role means is the host's business.
//
// A nil slice is treated as "identity owns nothing": every AND check and
// every OR check against it fails.
type GrantsProvider interface {
	Roles(ctx context.Context, loginID string) ([]string, error)
	Permissions(ctx context.Context, loginID string) ([]string, error)
}

// TokenResolver reports the token carried by the current inbound call.
// How the host extracts it from a header, query parameter, or cookie is
// entirely its concern. The default resolver reads the context value set
// by [WithToken].
type TokenResolver interface {
	Token(ctx context.Context) (string, bool)
}
