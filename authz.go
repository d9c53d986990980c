package venauth

import (
	"context"
	"fmt"
	"slices"
)

// currentLoginID resolves the identity behind the current call's token.
// Absence of a token or of its record is reported as not-found, never as
// an error.
func (m *Manager) currentLoginID(ctx context.Context) (string, bool, error) {
	tok, ok := m.resolver.Token(ctx)
	if !ok {
		return "", false, nil
	}
	record, err := m.TokenValueOf(ctx, tok)
	if err != nil || record == nil {
		return "", false, err
	}
	return record.LoginID, true, nil
}

func (m *Manager) ownedRoles(ctx context.Context, loginID string) ([]string, error) {
	if m.grants == nil {
		return nil, ErrNotInitialized
	}
	roles, err := m.grants.Roles(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return roles, nil
}

func (m *Manager) ownedPermissions(ctx context.Context, loginID string) ([]string, error) {
	if m.grants == nil {
		return nil, ErrNotInitialized
	}
	permissions, err := m.grants.Permissions(ctx, loginID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return permissions, nil
}

// containsAll reports whether every wanted value is present in owned.
// An empty wanted set is vacuously satisfied as long as the owned set
// exists at all; a nil owned set satisfies nothing.
func containsAll(owned, wanted []string) bool {
	if owned == nil {
		return false
	}
	for _, w := range wanted {
		if !slices.Contains(owned, w) {
			return false
		}
	}
	return true
}

// containsAny reports whether at least one wanted value is present in
// owned. Empty sets on either side never match.
func containsAny(owned, wanted []string) bool {
	for _, w := range wanted {
		if slices.Contains(owned, w) {
			return true
		}
	}
	return false
}

// HasRoleByID reports whether loginID owns role.
func (m *Manager) HasRoleByID(ctx context.Context, loginID, role string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedRoles(ctx, loginID)
	if err != nil {
		return false, err
	}
	return slices.Contains(owned, role), nil
}

// HasRole reports whether the current call's identity owns role. An
// unauthenticated call is simply false.
func (m *Manager) HasRole(ctx context.Context, role string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasRoleByID(ctx, loginID, role)
	})
}

// HasAllRolesByID reports whether loginID owns every listed role. An empty
// list is vacuously true when the identity resolves any role set at all.
func (m *Manager) HasAllRolesByID(ctx context.Context, loginID string, roles []string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedRoles(ctx, loginID)
	if err != nil {
		return false, err
	}
	return containsAll(owned, roles), nil
}

// HasAllRoles is the current-call form of HasAllRolesByID.
func (m *Manager) HasAllRoles(ctx context.Context, roles []string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasAllRolesByID(ctx, loginID, roles)
	})
}

// HasAnyRoleByID reports whether loginID owns at least one listed role.
func (m *Manager) HasAnyRoleByID(ctx context.Context, loginID string, roles []string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedRoles(ctx, loginID)
	if err != nil {
		return false, err
	}
	return containsAny(owned, roles), nil
}

// HasAnyRole is the current-call form of HasAnyRoleByID.
func (m *Manager) HasAnyRole(ctx context.Context, roles []string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasAnyRoleByID(ctx, loginID, roles)
	})
}

// HasPermissionByID reports whether loginID owns permission.
func (m *Manager) HasPermissionByID(ctx context.Context, loginID, permission string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedPermissions(ctx, loginID)
	if err != nil {
		return false, err
	}
	return slices.Contains(owned, permission), nil
}

// HasPermission reports whether the current call's identity owns
// permission.
func (m *Manager) HasPermission(ctx context.Context, permission string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasPermissionByID(ctx, loginID, permission)
	})
}

// HasAllPermissionsByID reports whether loginID owns every listed
// permission. An empty list is vacuously true when the identity resolves
// any permission set at all.
func (m *Manager) HasAllPermissionsByID(ctx context.Context, loginID string, permissions []string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedPermissions(ctx, loginID)
	if err != nil {
		return false, err
	}
	return containsAll(owned, permissions), nil
}

// HasAllPermissions is the current-call form of HasAllPermissionsByID.
func (m *Manager) HasAllPermissions(ctx context.Context, permissions []string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasAllPermissionsByID(ctx, loginID, permissions)
	})
}

// HasAnyPermissionByID reports whether loginID owns at least one listed
// permission.
func (m *Manager) HasAnyPermissionByID(ctx context.Context, loginID string, permissions []string) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	owned, err := m.ownedPermissions(ctx, loginID)
	if err != nil {
		return false, err
	}
	return containsAny(owned, permissions), nil
}

// HasAnyPermission is the current-call form of HasAnyPermissionByID.
func (m *Manager) HasAnyPermission(ctx context.Context, permissions []string) (bool, error) {
	return m.hasCurrent(ctx, func(loginID string) (bool, error) {
		return m.HasAnyPermissionByID(ctx, loginID, permissions)
	})
}

func (m *Manager) hasCurrent(ctx context.Context, test func(loginID string) (bool, error)) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	loginID, ok, err := m.currentLoginID(ctx)
	if err != nil || !ok {
		return false, err
	}
	return test(loginID)
}

// CheckRole raises ErrPermissionDenied where HasRole is false.
func (m *Manager) CheckRole(ctx context.Context, role string) error {
	return m.checkAuthorized(m.HasRole(ctx, role))
}

// CheckAllRoles raises ErrPermissionDenied where HasAllRoles is false.
func (m *Manager) CheckAllRoles(ctx context.Context, roles []string) error {
	return m.checkAuthorized(m.HasAllRoles(ctx, roles))
}

// CheckAnyRole raises ErrPermissionDenied where HasAnyRole is false.
func (m *Manager) CheckAnyRole(ctx context.Context, roles []string) error {
	return m.checkAuthorized(m.HasAnyRole(ctx, roles))
}

// CheckPermission raises ErrPermissionDenied where HasPermission is false.
func (m *Manager) CheckPermission(ctx context.Context, permission string) error {
	return m.checkAuthorized(m.HasPermission(ctx, permission))
}

// CheckAllPermissions raises ErrPermissionDenied where HasAllPermissions
// is false.
func (m *Manager) CheckAllPermissions(ctx context.Context, permissions []string) error {
	return m.checkAuthorized(m.HasAllPermissions(ctx, permissions))
}

// CheckAnyPermission raises ErrPermissionDenied where HasAnyPermission is
// false.
func (m *Manager) CheckAnyPermission(ctx context.Context, permissions []string) error {
	return m.checkAuthorized(m.HasAnyPermission(ctx, permissions))
}

func (m *Manager) checkAuthorized(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		m.metricInc(MetricAuthorizationDenied)
		return ErrPermissionDenied
	}
	return nil
}
