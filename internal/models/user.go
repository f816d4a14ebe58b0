package models

import (
	"time"
)

// Group name constants. These three groups are pre-seeded at startup and are
// the only roles the API knows about.
const (
	GroupCustomer = "Customer"
	GroupStaff    = "Staff"
	GroupAdmin    = "Admin"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsSuperuser  bool
	Groups       []string // group names, unordered, no duplicates
	DateJoined   time.Time
	LastLogin    *time.Time
}

// InGroup reports whether the user belongs to the named group.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user has admin-level access: superuser flag or
// Admin group membership.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.InGroup(GroupAdmin)
}

// IsStaffMember reports whether the user has staff-level access. Admins pass
// implicitly: Staff is a strictly lower privilege tier.
func (u *User) IsStaffMember() bool {
	return u.InGroup(GroupStaff) || u.IsAdmin()
}

// IsCustomer reports whether the user belongs to the Customer group. Unlike
// Staff, customer access is group-exclusive: admins do not pass automatically.
func (u *User) IsCustomer() bool {
	return u.InGroup(GroupCustomer)
}

// RoleDisplay derives the user's effective role label from the superuser flag
// and group membership. Highest privilege wins: Admin > Staff > Customer.
// The label is always computed, never stored, so it cannot drift out of sync
// with the underlying memberships.
func (u *User) RoleDisplay() string {
	switch {
	case u.IsAdmin():
		return GroupAdmin
	case u.InGroup(GroupStaff):
		return GroupStaff
	case u.InGroup(GroupCustomer):
		return GroupCustomer
	default:
		return "User"
	}
}

// FullName returns first and last name joined with a space.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
