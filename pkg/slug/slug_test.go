package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mobiles", "mobiles"},
		{"Home & Kitchen", "home-kitchen"},
		{"  Beauty  ", "beauty"},
		{"Men's T-Shirts", "men-s-t-shirts"},
		{"--Deals!!--", "deals"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Generate(tc.in))
		})
	}
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "home kitchen", Humanize("home-kitchen"))
	assert.Equal(t, "mobiles", Humanize("mobiles"))
}
