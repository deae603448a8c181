package services

import "testing"

func TestCanWrite(t *testing.T) {
	cases := []struct {
		role  Role
		allow bool
	}{
		{RoleReader, false},
		{RoleEditor, true},
		{RoleAdmin, true},
		{RoleOwner, true},
		{Role("superuser"), false},
		{Role(""), false},
	}

	for _, tc := range cases {
		if got := CanWrite(tc.role); got != tc.allow {
			t.Errorf("CanWrite(%q) = %v, want %v", tc.role, got, tc.allow)
		}
	}
}

func TestCanManageUsers(t *testing.T) {
	cases := []struct {
		role  Role
		allow bool
	}{
		{RoleReader, false},
		{RoleEditor, false},
		{RoleAdmin, true},
		{RoleOwner, true},
		{Role("root"), false},
	}

	for _, tc := range cases {
		if got := CanManageUsers(tc.role); got != tc.allow {
			t.Errorf("CanManageUsers(%q) = %v, want %v", tc.role, got, tc.allow)
		}
	}
}

func TestRankOrdering(t *testing.T) {
	ordered := []Role{RoleReader, RoleEditor, RoleAdmin, RoleOwner}

	for i := 1; i < len(ordered); i++ {
		if Rank(ordered[i-1]) >= Rank(ordered[i]) {
			t.Errorf("Rank(%q) = %d not below Rank(%q) = %d",
				ordered[i-1], Rank(ordered[i-1]), ordered[i], Rank(ordered[i]))
		}
	}

	// Unknown roles rank below every known role so checks fail closed
	for _, role := range ordered {
		if Rank(Role("mystery")) >= Rank(role) {
			t.Errorf("unknown role ranks at or above %q", role)
		}
	}
}

// Write permission never decreases as rank increases.
func TestCanWriteMonotonic(t *testing.T) {
	ordered := []Role{RoleReader, RoleEditor, RoleAdmin, RoleOwner}

	for i, lower := range ordered {
		for _, higher := range ordered[i+1:] {
			if CanWrite(lower) && !CanWrite(higher) {
				t.Errorf("CanWrite(%q) but not CanWrite(%q)", lower, higher)
			}
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleReader, RoleEditor, RoleAdmin, RoleOwner} {
		if !role.Valid() {
			t.Errorf("%q should be valid", role)
		}
	}
	for _, role := range []Role{"", "Reader", "superuser"} {
		if role.Valid() {
			t.Errorf("%q should not be valid", role)
		}
	}
}
