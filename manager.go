package venauth

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opensef/venauth/cache"
	"github.com/opensef/venauth/token"
)

// Manager orchestrates the token and session state. It is built through
// [Builder.Build] and safe for concurrent use afterwards.
//
// Manager holds no locks of its own: all shared mutable state lives in the
// two cache handles, and multi-key operations carry the weak-consistency
// contract described in the package documentation.
type Manager struct {
	cfg       Config
	tokens    cache.Cache[string, TokenValue]
	sessions  cache.Cache[string, Session]
	generator token.Generator
	grants    GrantsProvider
	resolver  TokenResolver
	logger    zerolog.Logger
	audit     *auditDispatcher
	metrics   *Metrics

	// caches the builder created itself and therefore owns.
	ownedCaches []closer
}

type closer interface{ Close() }

// Close releases everything the manager owns: the audit dispatcher and any
// builder-created in-memory caches. Injected collaborators are left alone.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
	for _, c := range m.ownedCaches {
		c.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a copy of the internal counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) ready() error {
	if m == nil || m.tokens == nil || m.sessions == nil || m.generator == nil || m.resolver == nil {
		return ErrNotInitialized
	}
	return nil
}

func (m *Manager) tokenKey(tok string) string {
	return m.cfg.TokenKey + ":" + tok
}

func (m *Manager) sessionKey(loginID string) string {
	return m.cfg.SessionKey + ":" + loginID
}

// timeoutDuration converts a configured timeout in seconds into the store's
// duration domain, passing the never-expire sentinel through.
func timeoutDuration(seconds int64) time.Duration {
	if seconds == NeverExpire {
		return cache.NeverExpire
	}
	return time.Duration(seconds) * time.Second
}

// Login creates a new token for loginID with the configured timeout.
func (m *Manager) Login(ctx context.Context, loginID string) (*TokenInfo, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.LoginWithTimeout(ctx, loginID, nil, m.cfg.Timeout)
}

// LoginWithInfo creates a new token for loginID, attaching addInfo to the
// token record. The configured timeout applies.
func (m *Manager) LoginWithInfo(ctx context.Context, loginID string, addInfo map[string]any) (*TokenInfo, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.LoginWithTimeout(ctx, loginID, addInfo, m.cfg.Timeout)
}

// LoginWithTimeout creates a new token for loginID with an explicit
// lifetime in seconds (NeverExpire disables expiry).
//
// Every call produces an independent token record. The identity's session
// is created on first login and extended on subsequent ones; both the
// record and the session are armed with the same timeout. The session
// update is a read-modify-write, so concurrent logins for one identity can
// race (see the package documentation).
func (m *Manager) LoginWithTimeout(ctx context.Context, loginID string, addInfo map[string]any, timeoutSeconds int64) (*TokenInfo, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}

	createdTime := time.Now().UnixMilli()
	timeout := timeoutDuration(timeoutSeconds)

	tok, err := m.generator.CreateToken()
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	record := TokenValue{LoginID: loginID, CreatedTime: createdTime, AddInfo: addInfo}
	if err := m.tokens.PutWithTimeout(ctx, m.tokenKey(tok), record, timeout); err != nil {
		return nil, fmt.Errorf("store token record: %w", err)
	}

	sess, ok, err := m.sessions.Get(ctx, m.sessionKey(loginID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		sess = Session{
			SessionID:   uuid.NewString(),
			CreatedTime: createdTime,
			TokenList:   []string{tok},
		}
	} else {
		// The loaded list may back the stored session and caller-held
		// snapshots; never grow it in place.
		sess.TokenList = append(slices.Clone(sess.TokenList), tok)
	}
	if err := m.sessions.PutWithTimeout(ctx, m.sessionKey(loginID), sess, timeout); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	m.metricInc(MetricLogin)
	m.emitAudit(ctx, AuditEvent{
		EventType: auditEventLogin,
		LoginID:   loginID,
		SessionID: sess.SessionID,
		Success:   true,
	})
	m.logger.Debug().
		Str("login_id", loginID).
		Str("session_id", sess.SessionID).
		Int64("timeout_seconds", timeoutSeconds).
		Msg("login")

	return &TokenInfo{Token: tok, CreatedTime: createdTime, AddInfo: addInfo}, nil
}

// Logout ends the login carried by the current call's token. A call
// without a resolvable token is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return nil
	}
	return m.LogoutByToken(ctx, tok)
}

// LogoutByID ends every login of loginID: the session and all token
// records it references are removed. Absent sessions are a no-op, so the
// call is idempotent.
func (m *Manager) LogoutByID(ctx context.Context, loginID string) error {
	if err := m.ready(); err != nil {
		return err
	}

	sess, ok, err := m.sessions.Remove(ctx, m.sessionKey(loginID))
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if !ok {
		return nil
	}

	for _, tok := range sess.TokenList {
		if _, _, err := m.tokens.Remove(ctx, m.tokenKey(tok)); err != nil {
			return fmt.Errorf("remove token record: %w", err)
		}
	}

	m.metricInc(MetricLogoutAll)
	m.emitAudit(ctx, AuditEvent{
		EventType: auditEventLogoutAll,
		LoginID:   loginID,
		SessionID: sess.SessionID,
		Success:   true,
	})
	m.logger.Debug().Str("login_id", loginID).Int("tokens", len(sess.TokenList)).Msg("logout all")

	return nil
}

// LogoutByToken ends the single login identified by token. Other logins of
// the same identity stay active: the session only loses this token from
// its list and keeps its remaining TTL. Removing the last token removes
// the session outright. Unknown tokens are a no-op.
func (m *Manager) LogoutByToken(ctx context.Context, tok string) error {
	if err := m.ready(); err != nil {
		return err
	}

	record, ok, err := m.tokens.Remove(ctx, m.tokenKey(tok))
	if err != nil {
		return fmt.Errorf("remove token record: %w", err)
	}
	if !ok {
		return nil
	}

	sessKey := m.sessionKey(record.LoginID)
	sess, ok, err := m.sessions.Get(ctx, sessKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	switch {
	case !ok:
		// Session already gone; the record removal above still counts.
	case len(sess.TokenList) <= 1:
		if _, _, err := m.sessions.Remove(ctx, sessKey); err != nil {
			return fmt.Errorf("remove session: %w", err)
		}
	default:
		sess.TokenList = removeToken(sess.TokenList, tok)

		remaining, err := m.sessions.GetExpire(ctx, sessKey)
		if err != nil {
			return fmt.Errorf("read session ttl: %w", err)
		}
		// A session that lapsed between the read and here is not written
		// back; the logout itself still happened.
		if remaining != cache.NotExist {
			if err := m.sessions.PutWithTimeout(ctx, sessKey, sess, remaining); err != nil {
				return fmt.Errorf("store session: %w", err)
			}
		}
	}

	m.metricInc(MetricLogout)
	m.emitAudit(ctx, AuditEvent{
		EventType: auditEventLogout,
		LoginID:   record.LoginID,
		SessionID: sess.SessionID,
		Success:   true,
	})
	m.logger.Debug().Str("login_id", record.LoginID).Msg("logout")

	return nil
}

// removeToken copies tokens without tok. The input may back the stored
// session and caller-held snapshots, so filtering in place is off limits.
func removeToken(tokens []string, tok string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != tok {
			out = append(out, t)
		}
	}
	return out
}

// Token reports the raw token carried by the current call, as seen by the
// configured resolver.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	if m == nil || m.resolver == nil {
		return "", false
	}
	return m.resolver.Token(ctx)
}

// TokenValue returns the record of the current call's token, or nil when
// no token is carried or the record is gone.
func (m *Manager) TokenValue(ctx context.Context) (*TokenValue, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return nil, nil
	}
	return m.TokenValueOf(ctx, tok)
}

// TokenValueOf returns the record of an explicit token. Absent records
// yield nil, never an error.
func (m *Manager) TokenValueOf(ctx context.Context, tok string) (*TokenValue, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	record, ok, err := m.tokens.Get(ctx, m.tokenKey(tok))
	if err != nil {
		return nil, fmt.Errorf("load token record: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// TokenExpire reports the remaining TTL of a token: cache.NotExist for a
// missing or lapsed token, cache.NeverExpire for one without expiry.
func (m *Manager) TokenExpire(ctx context.Context, tok string) (time.Duration, error) {
	if err := m.ready(); err != nil {
		return cache.NotExist, err
	}
	return m.tokens.GetExpire(ctx, m.tokenKey(tok))
}

// Session returns the identity's session, or nil when none is live.
func (m *Manager) Session(ctx context.Context, loginID string) (*Session, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	sess, ok, err := m.sessions.Get(ctx, m.sessionKey(loginID))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// SessionByToken resolves the token's identity and returns its session.
// Calling it with an empty token is a caller error.
func (m *Manager) SessionByToken(ctx context.Context, tok string) (*Session, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, ErrEmptyToken
	}
	record, err := m.TokenValueOf(ctx, tok)
	if err != nil || record == nil {
		return nil, err
	}
	return m.Session(ctx, record.LoginID)
}

// SessionData returns the payload of the current call's session, or nil
// when there is none.
func (m *Manager) SessionData(ctx context.Context) (any, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return nil, nil
	}
	sess, err := m.SessionByToken(ctx, tok)
	if err != nil || sess == nil {
		return nil, err
	}
	return sess.Data, nil
}

// SetSessionData replaces the session payload of loginID, preserving the
// session's remaining TTL. A missing session is a no-op.
func (m *Manager) SetSessionData(ctx context.Context, loginID string, data any) error {
	if err := m.ready(); err != nil {
		return err
	}

	sessKey := m.sessionKey(loginID)
	sess, ok, err := m.sessions.Get(ctx, sessKey)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil
	}

	remaining, err := m.sessions.GetExpire(ctx, sessKey)
	if err != nil {
		return fmt.Errorf("read session ttl: %w", err)
	}
	if remaining == cache.NotExist {
		return nil
	}

	sess.Data = data
	if err := m.sessions.PutWithTimeout(ctx, sessKey, sess, remaining); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// SetSessionDataByToken resolves the token's identity and replaces its
// session payload, preserving the remaining TTL.
func (m *Manager) SetSessionDataByToken(ctx context.Context, tok string, data any) error {
	if err := m.ready(); err != nil {
		return err
	}
	if tok == "" {
		return ErrEmptyToken
	}
	record, err := m.TokenValueOf(ctx, tok)
	if err != nil || record == nil {
		return err
	}
	return m.SetSessionData(ctx, record.LoginID, data)
}

// Renew re-arms the current token and its session to the configured
// timeout. When the configured timeout is NeverExpire the call is a no-op.
// It fails with ErrNotAuthenticated when no live token record backs the
// current call.
func (m *Manager) Renew(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.cfg.Timeout == NeverExpire {
		return nil
	}

	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return ErrNotAuthenticated
	}
	record, err := m.TokenValueOf(ctx, tok)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotAuthenticated
	}
	return m.RenewFor(ctx, tok, record.LoginID, m.cfg.Timeout)
}

// RenewFor re-arms both the token key and the session key to the same new
// timeout in seconds. The two expiry updates are independent store calls,
// not one atomic operation.
func (m *Manager) RenewFor(ctx context.Context, tok, loginID string, timeoutSeconds int64) error {
	if err := m.ready(); err != nil {
		return err
	}

	timeout := timeoutDuration(timeoutSeconds)
	if err := m.tokens.Expire(ctx, m.tokenKey(tok), timeout); err != nil {
		return fmt.Errorf("renew token ttl: %w", err)
	}
	if err := m.sessions.Expire(ctx, m.sessionKey(loginID), timeout); err != nil {
		return fmt.Errorf("renew session ttl: %w", err)
	}

	m.metricInc(MetricRenew)
	m.emitAudit(ctx, AuditEvent{
		EventType: auditEventRenew,
		LoginID:   loginID,
		Success:   true,
	})
	return nil
}

// IsLogin reports whether the current call carries a live token.
func (m *Manager) IsLogin(ctx context.Context) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return false, nil
	}
	return m.IsLoginByToken(ctx, tok)
}

// IsLoginByID reports whether loginID has a live session.
func (m *Manager) IsLoginByID(ctx context.Context, loginID string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	return m.sessions.IsUnexpired(ctx, m.sessionKey(loginID))
}

// IsLoginByToken reports whether token backs a live record.
func (m *Manager) IsLoginByToken(ctx context.Context, tok string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	return m.tokens.IsUnexpired(ctx, m.tokenKey(tok))
}

// CheckLogin is the raising counterpart of IsLogin.
func (m *Manager) CheckLogin(ctx context.Context) error {
	ok, err := m.IsLogin(ctx)
	if err != nil {
		return err
	}
	if !ok {
		m.metricInc(MetricAuthenticationDenied)
		return ErrNotAuthenticated
	}
	return nil
}

// CheckLoginByID is the raising counterpart of IsLoginByID.
func (m *Manager) CheckLoginByID(ctx context.Context, loginID string) error {
	ok, err := m.IsLoginByID(ctx, loginID)
	if err != nil {
		return err
	}
	if !ok {
		m.metricInc(MetricAuthenticationDenied)
		return ErrNotAuthenticated
	}
	return nil
}

// CheckLoginByToken is the raising counterpart of IsLoginByToken.
func (m *Manager) CheckLoginByToken(ctx context.Context, tok string) error {
	ok, err := m.IsLoginByToken(ctx, tok)
	if err != nil {
		return err
	}
	if !ok {
		m.metricInc(MetricAuthenticationDenied)
		return ErrNotAuthenticated
	}
	return nil
}
