package venauth

import (
	"context"
	"fmt"
)

// Logic combines the values of a role or permission requirement.
type Logic int

const (
	// LogicAnd demands every listed value. Default.
	LogicAnd Logic = iota
	// LogicOr demands at least one listed value.
	LogicOr
)

// RequirementKind is the closed set of declarative requirement variants.
type RequirementKind int

const (
	// KindLogin requires an authenticated caller.
	KindLogin RequirementKind = iota
	// KindRole requires role membership.
	KindRole
	// KindPermission requires permission membership.
	KindPermission
)

// Requirement is a declarative authorization condition a host attaches to
// a call site. The evaluator maps it onto the corresponding manager check.
type Requirement struct {
	Kind   RequirementKind
	Values []string
	Logic  Logic
}

// RequireLogin demands an authenticated caller.
func RequireLogin() Requirement {
	return Requirement{Kind: KindLogin}
}

// RequireRole demands role membership under the given logic.
func RequireRole(logic Logic, roles ...string) Requirement {
	return Requirement{Kind: KindRole, Values: roles, Logic: logic}
}

// RequirePermission demands permission membership under the given logic.
func RequirePermission(logic Logic, permissions ...string) Requirement {
	return Requirement{Kind: KindPermission, Values: permissions, Logic: logic}
}

// evaluators is the static dispatch table from requirement kind to manager
// check. The set is closed; hosts compose Requirements, they do not add
// kinds.
var evaluators = map[RequirementKind]func(context.Context, *Manager, Requirement) error{
	KindLogin: func(ctx context.Context, m *Manager, _ Requirement) error {
		return m.CheckLogin(ctx)
	},
	KindRole: func(ctx context.Context, m *Manager, req Requirement) error {
		if req.Logic == LogicOr {
			return m.CheckAnyRole(ctx, req.Values)
		}
		return m.CheckAllRoles(ctx, req.Values)
	},
	KindPermission: func(ctx context.Context, m *Manager, req Requirement) error {
		if req.Logic == LogicOr {
			return m.CheckAnyPermission(ctx, req.Values)
		}
		return m.CheckAllPermissions(ctx, req.Values)
	},
}

// Check evaluates requirements in argument order and stops at the first
// failure. Hosts enforcing layered requirements (type-level before
// operation-level) pass them in that order; a failing outer requirement
// keeps the inner one from ever being evaluated.
func (m *Manager) Check(ctx context.Context, requirements ...Requirement) error {
	if err := m.ready(); err != nil {
		return err
	}
	for _, req := range requirements {
		evaluate, ok := evaluators[req.Kind]
		if !ok {
			return fmt.Errorf("unknown requirement kind %d", req.Kind)
		}
		if err := evaluate(ctx, m, req); err != nil {
			return err
		}
	}
	return nil
}
