package role

import "errors"

// Invariant violations reported by Role.Valid and NextState.
var (
	ErrEmptyName        = errors.New("role: name is required")
	ErrGlobalWithOrg    = errors.New("role: a global role cannot belong to an organization")
	ErrSystemWithOrg    = errors.New("role: a system role cannot belong to an organization")
	ErrMissingOrg       = errors.New("role: an organization role requires an org id")
	ErrInvalidState     = errors.New("role: invalid lifecycle transition")
	ErrPurgedIsTerminal = errors.New("role: purged roles cannot change state")
)
