package permission

import "sort"

// Operation implication chain: holding an operation implies holding every
// operation before it. Operations outside the chain stand alone, except
// create which implies read.
var chain = []string{"read", "update", "delete"}

func rank(op string) int {
	for i, o := range chain {
		if o == op {
			return i
		}
	}
	return -1
}

// Implied returns the slugs implied by slug, excluding slug itself.
// "docs:delete" implies "docs:read" and "docs:update".
func Implied(slug string) []string {
	res, op, ok := SplitSlug(slug)
	if !ok {
		return nil
	}
	if op == "create" {
		return []string{res + ":read"}
	}
	r := rank(op)
	if r <= 0 {
		return nil
	}
	out := make([]string, 0, r)
	for i := 0; i < r; i++ {
		out = append(out, res+":"+chain[i])
	}
	return out
}

// Dependents returns the slugs that depend on slug: removing slug must also
// remove them. "docs:read" has dependents "docs:update", "docs:delete" and
// "docs:create".
func Dependents(slug string) []string {
	res, op, ok := SplitSlug(slug)
	if !ok {
		return nil
	}
	r := rank(op)
	if r < 0 {
		return nil
	}
	var out []string
	for i := r + 1; i < len(chain); i++ {
		out = append(out, res+":"+chain[i])
	}
	if op == "read" {
		out = append(out, res+":create")
	}
	return out
}

// Expand closes slugs under implication. The result is sorted and unique.
func Expand(slugs []string) []string {
	set := make(map[string]struct{}, len(slugs)*2)
	for _, s := range slugs {
		set[s] = struct{}{}
		for _, imp := range Implied(s) {
			set[imp] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Collapse returns removed plus every slug in held that depends on a removed
// slug. The result is sorted and unique.
func Collapse(held, removed []string) []string {
	heldSet := make(map[string]struct{}, len(held))
	for _, s := range held {
		heldSet[s] = struct{}{}
	}
	out := make(map[string]struct{}, len(removed))
	for _, s := range removed {
		out[s] = struct{}{}
		for _, dep := range Dependents(s) {
			if _, ok := heldSet[dep]; ok {
				out[dep] = struct{}{}
			}
		}
	}
	return sortedKeys(out)
}

// Consistent reports whether slugs are closed under implication, i.e. no
// slug is held without the slugs it implies.
func Consistent(slugs []string) bool {
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	for _, s := range slugs {
		for _, imp := range Implied(s) {
			if _, ok := set[imp]; !ok {
				return false
			}
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
