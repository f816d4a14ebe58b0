package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_RoleDisplay(t *testing.T) {
	tests := []struct {
		name        string
		groups      []string
		isSuperuser bool
		want        string
	}{
		{"superuser without groups", nil, true, GroupAdmin},
		{"admin group member", []string{GroupAdmin}, false, GroupAdmin},
		{"staff group member", []string{GroupStaff}, false, GroupStaff},
		{"customer group member", []string{GroupCustomer}, false, GroupCustomer},
		{"no groups, no flag", nil, false, "User"},
		{"admin wins over staff", []string{GroupStaff, GroupAdmin}, false, GroupAdmin},
		{"staff wins over customer", []string{GroupCustomer, GroupStaff}, false, GroupStaff},
		{"superuser wins over customer group", []string{GroupCustomer}, true, GroupAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Groups: tt.groups, IsSuperuser: tt.isSuperuser}
			assert.Equal(t, tt.want, u.RoleDisplay())
		})
	}
}

func TestUser_AccessPredicates(t *testing.T) {
	superuser := &User{IsSuperuser: true}
	admin := &User{Groups: []string{GroupAdmin}}
	staff := &User{Groups: []string{GroupStaff}}
	customer := &User{Groups: []string{GroupCustomer}}

	assert.True(t, superuser.IsAdmin())
	assert.True(t, admin.IsAdmin())
	assert.False(t, staff.IsAdmin())
	assert.False(t, customer.IsAdmin())

	// Admin implies staff-level access
	assert.True(t, superuser.IsStaffMember())
	assert.True(t, admin.IsStaffMember())
	assert.True(t, staff.IsStaffMember())
	assert.False(t, customer.IsStaffMember())

	// Customer access is group-exclusive
	assert.False(t, superuser.IsCustomer())
	assert.False(t, admin.IsCustomer())
	assert.False(t, staff.IsCustomer())
	assert.True(t, customer.IsCustomer())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&User{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane", (&User{FirstName: "Jane"}).FullName())
	assert.Equal(t, "Doe", (&User{LastName: "Doe"}).FullName())
	assert.Equal(t, "", (&User{}).FullName())
}
