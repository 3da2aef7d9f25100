package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// and joins conjuncts into one filter document.
func and(conds []bson.M) bson.M {
	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		arr := make(bson.A, len(conds))
		for i, c := range conds {
			arr[i] = c
		}
		return bson.M{"$and": arr}
	}
}

// scopeConds translates a role scope into filter conjuncts.
func scopeConds(sc role.Scope) []bson.M {
	var conds []bson.M
	if sc.ExcludeSystem {
		conds = append(conds, bson.M{"is_system": false})
	}
	if sc.Tenant {
		var or bson.A
		if sc.TenantOrg != "" {
			or = append(or, bson.M{"org_id": sc.TenantOrg})
		}
		or = append(or, bson.M{"org_id": "", "is_global": true})
		if sc.TenantSystem {
			or = append(or, bson.M{"org_id": "", "is_system": true})
		}
		conds = append(conds, bson.M{"$or": or})
	}
	if sc.OrgID != nil {
		conds = append(conds, bson.M{"org_id": *sc.OrgID})
	}
	if sc.IsSystem != nil {
		conds = append(conds, bson.M{"is_system": *sc.IsSystem})
	}
	if sc.IsGlobal != nil {
		conds = append(conds, bson.M{"is_global": *sc.IsGlobal})
	}
	return conds
}

// roleFilter combines the scope with the non-scoping list filters.
func roleFilter(sc role.Scope, f *role.ListFilter) bson.M {
	conds := scopeConds(sc)
	if f != nil {
		if f.Search != "" {
			conds = append(conds, bson.M{"name": contains(f.Search)})
		}
		if f.IsActive != nil {
			conds = append(conds, bson.M{"is_active": *f.IsActive})
		}
	}
	return and(conds)
}

// roleSort maps the list order onto a sort document with an id tiebreak.
func roleSort(f *role.ListFilter) bson.D {
	dir := -1
	if f.Direction() == "ASC" {
		dir = 1
	}
	return bson.D{{Key: string(f.Order()), Value: dir}, {Key: "_id", Value: dir}}
}

// permissionFilter translates catalog filters.
func permissionFilter(f *permission.ListFilter) bson.M {
	var conds []bson.M
	if f == nil || !f.IncludeInactive {
		conds = append(conds, bson.M{"is_active": true})
	}
	if f != nil {
		if f.Category != "" {
			conds = append(conds, bson.M{"category": f.Category})
		}
		if len(f.ExcludeCategory) > 0 {
			conds = append(conds, bson.M{"category": bson.M{"$nin": f.ExcludeCategory}})
		}
		if f.Search != "" {
			conds = append(conds, bson.M{"$or": bson.A{
				bson.M{"slug": contains(f.Search)},
				bson.M{"name": contains(f.Search)},
			}})
		}
	}
	return and(conds)
}

// orgIn matches the org values visible from orgID: its own and shared.
func orgIn(orgID string) bson.M {
	if orgID == "" {
		return bson.M{"$in": bson.A{""}}
	}
	return bson.M{"$in": bson.A{"", orgID}}
}

func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
