package rampart

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. The set is closed.
type Kind string

// Failure kinds.
const (
	KindNotFound   Kind = "NOT_FOUND"
	KindForbidden  Kind = "FORBIDDEN"
	KindConflict   Kind = "CONFLICT"
	KindBadRequest Kind = "BAD_REQUEST"
	KindInternal   Kind = "INTERNAL_ERROR"
)

var (
	// ErrNotFound matches every NOT_FOUND error. Out-of-scope entities are
	// reported identically to missing ones.
	ErrNotFound = errors.New("rampart: not found")

	// ErrForbidden matches every FORBIDDEN error.
	ErrForbidden = errors.New("rampart: forbidden")

	// ErrConflict matches every CONFLICT error.
	ErrConflict = errors.New("rampart: conflict")

	// ErrBadRequest matches every BAD_REQUEST error.
	ErrBadRequest = errors.New("rampart: bad request")

	// ErrInternal matches every INTERNAL_ERROR error.
	ErrInternal = errors.New("rampart: internal error")
)

var (
	// ErrStoreRequired is returned by NewService without a store.
	ErrStoreRequired = errors.New("rampart: store is required")

	// ErrSystemRoleImmutable is returned when a non-privileged actor tries
	// to modify a system role.
	ErrSystemRoleImmutable = errors.New("rampart: system role cannot be modified")

	// ErrSystemRoleUndeletable is returned for any attempt to delete a system role.
	ErrSystemRoleUndeletable = errors.New("rampart: system roles cannot be deleted")

	// ErrRoleInUse is returned when a role with active assignments would
	// leave service without force.
	ErrRoleInUse = errors.New("rampart: role has active user assignments")

	// ErrDuplicateRoleName is returned when (name, org) is already taken.
	ErrDuplicateRoleName = errors.New("rampart: role name already exists in organization")

	// ErrDuplicatePermission is returned when a slug is already in the catalog.
	ErrDuplicatePermission = errors.New("rampart: permission slug already exists")

	// ErrDuplicateAssignment is returned when a user already holds a role in an org.
	ErrDuplicateAssignment = errors.New("rampart: role already assigned to user")

	// ErrCrossTenantRequired is returned for operations reserved to
	// platform-level actors.
	ErrCrossTenantRequired = errors.New("rampart: cross-tenant access required")

	// ErrCatalogAdminRequired is returned for catalog mutations by non-admins.
	ErrCatalogAdminRequired = errors.New("rampart: permission catalog administration required")

	// ErrGlobalRoleImmutable is returned when a tenant actor edits a global role.
	ErrGlobalRoleImmutable = errors.New("rampart: global role cannot be modified by a tenant")

	// ErrNoActor is returned when an operation runs without an actor.
	ErrNoActor = errors.New("rampart: no actor in context")
)

var kindSentinels = map[Kind]error{
	KindNotFound:   ErrNotFound,
	KindForbidden:  ErrForbidden,
	KindConflict:   ErrConflict,
	KindBadRequest: ErrBadRequest,
	KindInternal:   ErrInternal,
}

// Error is the tagged error returned by every Service operation.
//
// errors.Is matches both the kind sentinel (ErrForbidden, ...) and the
// wrapped cause. Internal errors keep the storage cause for logging but
// their Message never includes it.
type Error struct {
	Kind    Kind           `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil && e.Kind != KindInternal {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func notFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func forbidden(cause error, format string, args ...any) *Error {
	return newError(KindForbidden, cause, format, args...)
}

func conflict(cause error, format string, args ...any) *Error {
	return newError(KindConflict, cause, format, args...)
}

func badRequest(format string, args ...any) *Error {
	return newError(KindBadRequest, nil, format, args...)
}

func (e *Error) with(key string, v any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = v
	return e
}
