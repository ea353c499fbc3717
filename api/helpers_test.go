package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/xraph/bastion"
)

func TestStatusForConflicts(t *testing.T) {
	for _, err := range []error{
		bastion.ErrDuplicateRole,
		bastion.ErrDuplicatePermission,
		bastion.ErrDuplicateAssignment,
		bastion.ErrSystemRoleImmutable,
		bastion.ErrSystemPermissionImmutable,
		bastion.ErrPermissionInUse,
		bastion.ErrResourceInUse,
		bastion.ErrMenuHasChildren,
	} {
		if got := statusFor(err); got != http.StatusConflict {
			t.Errorf("%v: expected 409, got %d", err, got)
		}
	}
}

func TestStatusForAuth(t *testing.T) {
	if got := statusFor(bastion.ErrUnauthenticated); got != http.StatusUnauthorized {
		t.Errorf("unauthenticated: expected 401, got %d", got)
	}
	if got := statusFor(bastion.ErrForbidden); got != http.StatusForbidden {
		t.Errorf("forbidden: expected 403, got %d", got)
	}
	if got := statusFor(bastion.ErrMethodNotAllowed); got != http.StatusMethodNotAllowed {
		t.Errorf("method not allowed: expected 405, got %d", got)
	}
}

func TestStatusForWrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("role %s: %w", "role_x", bastion.ErrRoleNotFound)
	if got := statusFor(wrapped); got != http.StatusNotFound {
		t.Errorf("wrapped not-found: expected 404, got %d", got)
	}
	wrapped = fmt.Errorf("%w: %q", bastion.ErrSystemRoleImmutable, "admin")
	if got := statusFor(wrapped); got != http.StatusConflict {
		t.Errorf("wrapped immutable: expected 409, got %d", got)
	}
	if got := statusFor(fmt.Errorf("disk on fire")); got != http.StatusInternalServerError {
		t.Errorf("unclassified: expected 500, got %d", got)
	}
}
