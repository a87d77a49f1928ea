package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		instance     string
		preferDirect bool
		want         string
	}{
		{
			name:     "exact rule without direct host",
			instance: "1101000042",
			want:     "https://api.green-api.com",
		},
		{
			name:         "exact rule direct host preferred",
			instance:     "7103000042",
			preferDirect: true,
			want:         "https://7103.api.greenapi.com",
		},
		{
			name:     "exact rule shared entry when direct not preferred",
			instance: "7103000042",
			want:     "https://api.greenapi.com",
		},
		{
			name:         "9903 direct host on the other domain",
			instance:     "9903000042",
			preferDirect: true,
			want:         "https://9903.api.green-api.com",
		},
		{
			name:     "prefix rule 99 family",
			instance: "9901000042",
			want:     "https://api.p03.green-api.com",
		},
		{
			name:         "prefix rule 77 family direct",
			instance:     "7712000042",
			preferDirect: true,
			want:         "https://7700.api.greenapi.com",
		},
		{
			name:         "max pool gets v3 path on direct host",
			instance:     "3101000042",
			preferDirect: true,
			want:         "https://3100.api.green-api.com/v3",
		},
		{
			name:     "max pool gets v3 path on shared host",
			instance: "3512000042",
			want:     "https://api.green-api.com/v3",
		},
		{
			name:     "exact rule beats prefix rule",
			instance: "9906000042",
			want:     "https://api.green-api.com",
		},
		{
			name:     "unknown pool falls back to shared default",
			instance: "4242000042",
			want:     "https://api.greenapi.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := ResolveEndpoint(NewInstanceIDUnsafe(tt.instance), tt.preferDirect)
			assert.Equal(t, tt.want, ep.BaseURL())
		})
	}
}

func TestEndpoint_IsMax(t *testing.T) {
	max := ResolveEndpoint(NewInstanceIDUnsafe("3101000042"), true)
	assert.True(t, max.IsMax())

	regular := ResolveEndpoint(NewInstanceIDUnsafe("1101000042"), true)
	assert.False(t, regular.IsMax())
}
