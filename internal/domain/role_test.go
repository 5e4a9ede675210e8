package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input  string
		want   Role
		wantOK bool
	}{
		{input: "siteAdmin", want: RoleSiteAdmin, wantOK: true},
		{input: "SITEADMIN", want: RoleSiteAdmin, wantOK: true},
		{input: "site-admin", want: RoleSiteAdmin, wantOK: true},
		{input: " admin ", want: RoleAdmin, wantOK: true},
		{input: "", wantOK: false},
		{input: "owner", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseRole(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Elevated(t *testing.T) {
	assert.True(t, RoleSiteAdmin.Elevated())
	assert.False(t, RoleAdmin.Elevated())
	assert.False(t, Role("").Elevated())
}
