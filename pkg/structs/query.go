package structs

const (
	queryLimitDefault = 1000
	queryLimitMax     = 10000
)

// TaskQuery filters task listings.
type TaskQuery struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Filters
	IDs      []string `json:"ids,omitempty"`
	Statuses []Status `json:"statuses,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

func (q *TaskQuery) Sanitize() {
	if q.Limit <= 0 {
		q.Limit = queryLimitDefault
	}
	if q.Limit > queryLimitMax {
		q.Limit = queryLimitMax
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if len(q.IDs) == 0 {
		q.IDs = nil
	}
	if len(q.Statuses) == 0 {
		q.Statuses = nil
	}
	if len(q.Actions) == 0 {
		q.Actions = nil
	}
}

// Match reports whether the given task passes the query's filters.
// Limit and Offset are applied by the store, not here.
func (q *TaskQuery) Match(t *Task) bool {
	if q.IDs != nil && !containsString(q.IDs, t.ID) {
		return false
	}
	if q.Statuses != nil && !containsStatus(q.Statuses, t.Status) {
		return false
	}
	if q.Actions != nil && !containsAction(q.Actions, t.Action) {
		return false
	}
	return true
}

func containsString(in []string, s string) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

func containsStatus(in []Status, s Status) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

func containsAction(in []Action, a Action) bool {
	for _, v := range in {
		if v == a {
			return true
		}
	}
	return false
}
