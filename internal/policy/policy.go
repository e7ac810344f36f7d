// Package policy decides who may touch a student record.
//
// Admins may read, update and delete any record. Everyone else is limited
// to the records they own. Listing is expressed as a Scope that stores turn
// into a WHERE clause, so records a caller may not see are never loaded.
package policy

import "studentrecords/internal/entity"

type Actor struct {
	UserID int
	Role   entity.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// CanAccess reports whether actor may read, update or delete a record owned
// by ownerID. Unknown roles are denied.
func CanAccess(actor Actor, ownerID int) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleUser:
		return ownerID == actor.UserID
	default:
		return false
	}
}

// Scope restricts a listing. All wins over OwnerID.
type Scope struct {
	All     bool
	OwnerID int
}

// ListScope returns the records actor may list. Unknown roles get a scope
// with OwnerID 0, which matches no row.
func ListScope(actor Actor) Scope {
	switch actor.Role {
	case entity.RoleAdmin:
		return Scope{All: true}
	case entity.RoleUser:
		return Scope{OwnerID: actor.UserID}
	default:
		return Scope{}
	}
}
