package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleFromClaims(t *testing.T) {
	cases := []struct {
		claims map[string]interface{}
		want   string
	}{
		{nil, "rider"},
		{map[string]interface{}{"role": "driver"}, "driver"},
		{map[string]interface{}{"role": "admin"}, "admin"},
		{map[string]interface{}{"role": "superuser"}, "rider"},
		{map[string]interface{}{"role": 7}, "rider"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RoleFromClaims(tc.claims))
	}
}
