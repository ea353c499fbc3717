package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

// statusFor classifies a domain error into its HTTP status.
func statusFor(err error) int {
	switch {
	case isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, bastion.ErrValidation):
		return http.StatusBadRequest
	case isConflict(err):
		return http.StatusConflict
	case errors.Is(err, bastion.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, bastion.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, bastion.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// mapError translates a domain error into the HTTP response. Statuses
// Forge has helpers for go through them; the rest (409, 401, 405) are
// written directly, like the enforce handler's deny response.
func mapError(ctx forge.Context, err error) error {
	if err == nil {
		return nil
	}
	switch status := statusFor(err); status {
	case http.StatusNotFound:
		return forge.NotFound(err.Error())
	case http.StatusBadRequest:
		return forge.BadRequest(err.Error())
	case http.StatusForbidden:
		return forge.Forbidden(err.Error())
	case http.StatusInternalServerError:
		return err
	default:
		return ctx.JSON(status, map[string]string{"error": err.Error()})
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, bastion.ErrRoleNotFound) ||
		errors.Is(err, bastion.ErrPermissionNotFound) ||
		errors.Is(err, bastion.ErrAssignmentNotFound) ||
		errors.Is(err, bastion.ErrResourceNotFound) ||
		errors.Is(err, bastion.ErrMenuNotFound) ||
		errors.Is(err, bastion.ErrAuditEntryNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, bastion.ErrDuplicateRole) ||
		errors.Is(err, bastion.ErrDuplicatePermission) ||
		errors.Is(err, bastion.ErrDuplicateAssignment) ||
		errors.Is(err, bastion.ErrDuplicateResource) ||
		errors.Is(err, bastion.ErrDuplicateMenu)
}

// isConflict covers state the request collides with: duplicates,
// immutable system entities, and in-use guards.
func isConflict(err error) bool {
	return isDuplicate(err) ||
		errors.Is(err, bastion.ErrSystemRoleImmutable) ||
		errors.Is(err, bastion.ErrSystemPermissionImmutable) ||
		errors.Is(err, bastion.ErrPermissionInUse) ||
		errors.Is(err, bastion.ErrResourceInUse) ||
		errors.Is(err, bastion.ErrMenuHasChildren)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// parseBoolFlag interprets a "true"/"false" query value. Empty and
// malformed values mean the filter is not set.
func parseBoolFlag(v string) *bool {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// parseTimeFlag interprets an RFC3339 query value, nil when absent.
func parseTimeFlag(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
