// Package tenant centralizes church_id scoping so handlers and repositories
// never hand-write the ownership predicate.
package tenant

import "gorm.io/gorm"

// Scope describes which churches a caller may touch. A super admin scope
// without a church id sees every church.
type Scope struct {
	ChurchID   *uint
	SuperAdmin bool
}

func ForChurch(churchID uint) Scope {
	return Scope{ChurchID: &churchID}
}

func Global() Scope {
	return Scope{SuperAdmin: true}
}

// Bounded reports whether queries are restricted to a single church.
func (s Scope) Bounded() bool {
	return s.ChurchID != nil
}

// Narrow returns a copy of a global scope restricted to churchID. Bounded
// scopes are returned unchanged so a church admin can never widen or switch
// tenants.
func (s Scope) Narrow(churchID uint) Scope {
	if s.Bounded() || churchID == 0 {
		return s
	}
	return Scope{ChurchID: &churchID, SuperAdmin: s.SuperAdmin}
}

// Allows reports whether a row owned by churchID is visible in this scope.
func (s Scope) Allows(churchID uint) bool {
	if !s.Bounded() {
		return s.SuperAdmin
	}
	return *s.ChurchID == churchID
}

// Apply returns a gorm scope function filtering on column (usually
// "church_id"). An unbounded non-super-admin scope matches nothing.
func (s Scope) Apply(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case s.Bounded():
			return db.Where(column+" = ?", *s.ChurchID)
		case s.SuperAdmin:
			return db
		default:
			return db.Where("1 = 0")
		}
	}
}
