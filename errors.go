package venauth

import "errors"

var (
	// ErrNotInitialized is returned when the manager is used without the
	// collaborators an operation depends on.
	ErrNotInitialized = errors.New("auth manager not initialized")
	// ErrNotAuthenticated is raised by the CheckLogin variants when the
	// resolved token or session is absent or expired.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermissionDenied is raised by the role and permission check
	// variants when the membership test fails.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEmptyToken is returned when an operation that requires an explicit
	// token is called with an empty one.
	ErrEmptyToken = errors.New("token must not be empty")
)
