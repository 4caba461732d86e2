package structs

import (
	"strings"
)

// Action is the kind of work a task asks an account to perform.
type Action string

const (
	// ActionImagine generates a fresh image grid from a prompt.
	ActionImagine Action = "IMAGINE"

	// ActionUpscale upscales one image out of a previous grid.
	ActionUpscale Action = "UPSCALE"

	// ActionVariation generates variations of one image out of a previous grid.
	ActionVariation Action = "VARIATION"

	// ActionReroll re-executes a previous task.
	ActionReroll Action = "REROLL"

	// ActionDescribe turns an uploaded image into prompt text.
	ActionDescribe Action = "DESCRIBE"

	// ActionBlend merges several uploaded images into one.
	ActionBlend Action = "BLEND"

	// ActionShorten analyses a prompt and suggests a shorter one.
	ActionShorten Action = "SHORTEN"
)

func ToAction(s string) Action {
	switch strings.ToUpper(s) {
	case "IMAGINE":
		return ActionImagine
	case "UPSCALE":
		return ActionUpscale
	case "VARIATION":
		return ActionVariation
	case "REROLL":
		return ActionReroll
	case "DESCRIBE":
		return ActionDescribe
	case "BLEND":
		return ActionBlend
	case "SHORTEN":
		return ActionShorten
	default:
		return ""
	}
}

// IsChangeAction reports whether the action derives from a prior task's grid.
func IsChangeAction(a Action) bool {
	switch a {
	case ActionUpscale, ActionVariation, ActionReroll:
		return true
	default:
		return false
	}
}

// CanDeriveFrom reports whether a change action may use a task with the
// given action as its source. Describe and Shorten results carry no grid,
// so nothing can derive from them.
func CanDeriveFrom(source Action) bool {
	switch source {
	case ActionImagine, ActionVariation, ActionReroll, ActionBlend:
		return true
	default:
		return false
	}
}
