package services

// Role is the closed set of permission levels, totally ordered by
// privilege: reader < editor < admin < owner.
type Role string

const (
	RoleReader Role = "reader"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var roleRanks = map[Role]int{
	RoleReader: 0,
	RoleEditor: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Rank maps a role to its position in the privilege order. Unknown role
// strings rank below every known role, so permission checks fail closed.
func Rank(role Role) int {
	if rank, ok := roleRanks[role]; ok {
		return rank
	}
	return -1
}

// Valid reports whether role is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// CanWrite reports whether the role may mutate the board (editor and up).
func CanWrite(role Role) bool {
	return Rank(role) >= Rank(RoleEditor)
}

// CanManageUsers reports whether the role may create, list, re-role and
// delete accounts (admin and up).
func CanManageUsers(role Role) bool {
	return Rank(role) >= Rank(RoleAdmin)
}
