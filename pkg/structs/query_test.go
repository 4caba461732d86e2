package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskQuerySanitize(t *testing.T) {
	cases := []struct {
		Name   string
		Given  *TaskQuery
		Expect *TaskQuery
	}{
		{
			"Empty",
			&TaskQuery{},
			&TaskQuery{Limit: 1000},
		},
		{
			"NegativeOffset",
			&TaskQuery{Limit: 5, Offset: -3},
			&TaskQuery{Limit: 5, Offset: 0},
		},
		{
			"LimitCapped",
			&TaskQuery{Limit: 50000},
			&TaskQuery{Limit: 10000},
		},
		{
			"EmptyFiltersNiled",
			&TaskQuery{Limit: 5, IDs: []string{}, Statuses: []Status{}, Actions: []Action{}},
			&TaskQuery{Limit: 5},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			c.Given.Sanitize()
			assert.Equal(t, c.Expect, c.Given)
		})
	}
}

func TestTaskQueryMatch(t *testing.T) {
	task := &Task{ID: "t1", Action: ActionImagine, Status: SUCCESS}

	cases := []struct {
		Name   string
		Given  *TaskQuery
		Expect bool
	}{
		{"NoFilters", &TaskQuery{}, true},
		{"IDHit", &TaskQuery{IDs: []string{"t0", "t1"}}, true},
		{"IDMiss", &TaskQuery{IDs: []string{"t0"}}, false},
		{"StatusHit", &TaskQuery{Statuses: []Status{SUCCESS}}, true},
		{"StatusMiss", &TaskQuery{Statuses: []Status{FAILURE}}, false},
		{"ActionHit", &TaskQuery{Actions: []Action{ActionImagine, ActionBlend}}, true},
		{"ActionMiss", &TaskQuery{Actions: []Action{ActionUpscale}}, false},
		{"AllMustPass", &TaskQuery{IDs: []string{"t1"}, Statuses: []Status{FAILURE}}, false},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, c.Given.Match(task))
		})
	}
}
