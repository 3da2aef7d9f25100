package scope

// Actor is the principal making a request: its org context and the
// permission slugs it holds within that org.
type Actor struct {
	UserID       string   `json:"user_id"`
	OrgID        string   `json:"org_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	IsSystemUser bool     `json:"is_system_user,omitempty"`
}

// Has reports whether the actor holds slug, directly or through a wildcard
// such as "roles:*" or "*".
func (a *Actor) Has(slug string) bool {
	if a == nil {
		return false
	}
	for _, p := range a.Permissions {
		if matchPermission(p, slug) {
			return true
		}
	}
	return false
}

// HasMatching reports whether the actor holds a slug matched by pattern,
// or holds a wildcard covering pattern. A bare "*" pattern only matches a
// held "*".
func (a *Actor) HasMatching(pattern string) bool {
	if a.Has(pattern) {
		return true
	}
	if a == nil || pattern == "*" {
		return false
	}
	for _, p := range a.Permissions {
		if matchPermission(pattern, p) {
			return true
		}
	}
	return false
}

// HasAny reports whether the actor holds at least one of slugs.
func (a *Actor) HasAny(slugs ...string) bool {
	for _, s := range slugs {
		if a.Has(s) {
			return true
		}
	}
	return false
}
