// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

/*
TestHasPermission covers the full role matrix including unknown roles.
*/
func TestHasPermission(t *testing.T) {
	tests := []struct {
		actual   sec.Role
		minimum  sec.Role
		expected bool
	}{
		{sec.RoleAdmin, sec.RoleAdmin, true},
		{sec.RoleAdmin, sec.RoleManager, true},
		{sec.RoleAdmin, sec.RoleEmployee, true},
		{sec.RoleManager, sec.RoleAdmin, false},
		{sec.RoleManager, sec.RoleManager, true},
		{sec.RoleManager, sec.RoleEmployee, true},
		{sec.RoleEmployee, sec.RoleAdmin, false},
		{sec.RoleEmployee, sec.RoleManager, false},
		{sec.RoleEmployee, sec.RoleEmployee, true},
		{sec.Role("contractor"), sec.RoleEmployee, false},
		{sec.Role(""), sec.RoleEmployee, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.actual)+"_"+string(tt.minimum), func(t *testing.T) {
			assert.Equal(t, tt.expected, sec.HasPermission(tt.actual, tt.minimum))
			assert.Equal(t, tt.expected, tt.actual.AtLeast(tt.minimum))
		})
	}
}

/*
TestHasRole checks exact membership with no hierarchy applied.
*/
func TestHasRole(t *testing.T) {
	assert.True(t, sec.HasRole(sec.RoleManager, sec.RoleManager, sec.RoleAdmin))
	assert.False(t, sec.HasRole(sec.RoleAdmin, sec.RoleManager))
	assert.False(t, sec.HasRole(sec.RoleEmployee))
	assert.False(t, sec.HasRole(sec.Role("ghost"), sec.RoleEmployee))
}

/*
TestRole_Level verifies the fixed hierarchy values.
*/
func TestRole_Level(t *testing.T) {
	assert.Equal(t, 1, sec.RoleEmployee.Level())
	assert.Equal(t, 2, sec.RoleManager.Level())
	assert.Equal(t, 3, sec.RoleAdmin.Level())
	assert.Equal(t, 0, sec.Role("ghost").Level())
	assert.False(t, sec.Role("ghost").IsValid())
}
