package structs

import (
	"strings"
)

type Status string

const (
	// transient states
	NOT_START   Status = "NOT_START"
	SUBMITTED   Status = "SUBMITTED"
	IN_PROGRESS Status = "IN_PROGRESS"

	// end states
	FAILURE Status = "FAILURE"
	SUCCESS Status = "SUCCESS"
)

func IsFinalStatus(status Status) bool {
	switch status {
	case FAILURE, SUCCESS:
		return true
	default:
		return false
	}
}

func ToStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "NOT_START":
		return NOT_START
	case "SUBMITTED":
		return SUBMITTED
	case "IN_PROGRESS":
		return IN_PROGRESS
	case "FAILURE":
		return FAILURE
	case "SUCCESS":
		return SUCCESS
	default:
		return ""
	}
}

// StatusOrder returns a sortable rank for a status. Both end states share
// the same rank; neither outranks the other.
func StatusOrder(status Status) int {
	switch status {
	case NOT_START:
		return 0
	case SUBMITTED:
		return 1
	case IN_PROGRESS:
		return 3
	case FAILURE, SUCCESS:
		return 4
	default:
		return 0
	}
}
