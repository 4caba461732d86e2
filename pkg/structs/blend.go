package structs

import (
	"strings"
)

// BlendDimensions is the declared aspect ratio category of a blend result.
type BlendDimensions string

const (
	BlendPortrait  BlendDimensions = "PORTRAIT"
	BlendSquare    BlendDimensions = "SQUARE"
	BlendLandscape BlendDimensions = "LANDSCAPE"
)

func ToBlendDimensions(s string) BlendDimensions {
	switch strings.ToUpper(s) {
	case "PORTRAIT":
		return BlendPortrait
	case "SQUARE":
		return BlendSquare
	case "LANDSCAPE":
		return BlendLandscape
	default:
		return ""
	}
}

// AspectRatio returns the ratio string sent with the blend command.
func (b BlendDimensions) AspectRatio() string {
	switch b {
	case BlendPortrait:
		return "2:3"
	case BlendLandscape:
		return "3:2"
	default:
		return "1:1"
	}
}
