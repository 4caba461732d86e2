package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChangeAction(t *testing.T) {
	cases := []struct {
		Name   string
		Given  Action
		Expect bool
	}{
		{"ActionImagine", ActionImagine, false},
		{"ActionUpscale", ActionUpscale, true},
		{"ActionVariation", ActionVariation, true},
		{"ActionReroll", ActionReroll, true},
		{"ActionDescribe", ActionDescribe, false},
		{"ActionBlend", ActionBlend, false},
		{"ActionShorten", ActionShorten, false},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, IsChangeAction(c.Given), c.Expect)
		})
	}
}

func TestCanDeriveFrom(t *testing.T) {
	cases := []struct {
		Name   string
		Given  Action
		Expect bool
	}{
		{"ActionImagine", ActionImagine, true},
		{"ActionUpscale", ActionUpscale, false},
		{"ActionVariation", ActionVariation, true},
		{"ActionReroll", ActionReroll, true},
		{"ActionDescribe", ActionDescribe, false},
		{"ActionBlend", ActionBlend, true},
		{"ActionShorten", ActionShorten, false},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, CanDeriveFrom(c.Given), c.Expect)
		})
	}
}
