package venauth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckRequirements(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	info, _ := mgr.Login(context.Background(), "alice")
	live := authContext(info.Token)
	anonymous := context.Background()

	tests := []struct {
		name    string
		ctx     context.Context
		reqs    []Requirement
		wantErr error
	}{
		{"no requirements", anonymous, nil, nil},
		{"login satisfied", live, []Requirement{RequireLogin()}, nil},
		{"login missing", anonymous, []Requirement{RequireLogin()}, ErrNotAuthenticated},
		{"role and satisfied", live, []Requirement{RequireRole(LogicAnd, "a", "b")}, nil},
		{"role and missing one", live, []Requirement{RequireRole(LogicAnd, "a", "c")}, ErrPermissionDenied},
		{"role or satisfied", live, []Requirement{RequireRole(LogicOr, "c", "b")}, nil},
		{"role or missing all", live, []Requirement{RequireRole(LogicOr, "c", "d")}, ErrPermissionDenied},
		{"permission and satisfied", live, []Requirement{RequirePermission(LogicAnd, "doc.read", "doc.write")}, nil},
		{"permission or missing all", live, []Requirement{RequirePermission(LogicOr, "doc.admin")}, ErrPermissionDenied},
		{"stacked all pass", live, []Requirement{RequireLogin(), RequireRole(LogicAnd, "a"), RequirePermission(LogicAnd, "doc.read")}, nil},
		{"stacked later fails", live, []Requirement{RequireLogin(), RequireRole(LogicAnd, "c")}, ErrPermissionDenied},
		{"role without login", anonymous, []Requirement{RequireRole(LogicAnd, "a")}, ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.Check(tt.ctx, tt.reqs...)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Check = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Check = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckShortCircuits(t *testing.T) {
	mgr, grants := newTestManager(t, testConfig())

	info, _ := mgr.Login(context.Background(), "alice")
	ctx := authContext(info.Token)

	err := mgr.Check(ctx,
		RequireRole(LogicAnd, "no-such-role"),
		RequirePermission(LogicAnd, "doc.read"),
	)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Check = %v, want ErrPermissionDenied", err)
	}
	// The failing role requirement must have stopped evaluation before the
	// permission one ran.
	if grants.permissionCalls != 0 {
		t.Fatalf("permission provider called %d times after a failed role requirement", grants.permissionCalls)
	}
}

func TestCheckUnknownKind(t *testing.T) {
	mgr, _ := newTestManager(t, testConfig())

	err := mgr.Check(context.Background(), Requirement{Kind: RequirementKind(99)})
	if err == nil {
		t.Fatal("Check accepted an unknown requirement kind")
	}
	if !strings.Contains(err.Error(), "unknown requirement kind") {
		t.Fatalf("Check error = %v, want an unknown-kind report", err)
	}
}

func TestCheckNotInitialized(t *testing.T) {
	var mgr *Manager
	if err := mgr.Check(context.Background(), RequireLogin()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Check on nil manager = %v, want ErrNotInitialized", err)
	}
}
