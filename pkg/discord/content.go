package discord

import (
	"path"
	"regexp"
	"strings"
)

var (
	// contentRe matches the "**prompt** - <@user> (status)" shape the
	// external side uses for generation messages.
	contentRe = regexp.MustCompile(`\*\*(.*)\*\*.+<@\d+> \((.*?)\)`)

	paramRe = regexp.MustCompile(`(?i)\s+--[a-z]+.*$`)
	urlRe   = regexp.MustCompile(`(?i)https?://[-a-zA-Z0-9+&@#/%?=~_|!:,.;]*[-a-zA-Z0-9+&@#/%=~_|]`)
)

// ParseContent extracts the echoed prompt and the parenthesised status
// marker from a message's text. The status is either a progress percentage
// (eg. "31%") or a completion mode name.
func ParseContent(content string) (prompt, status string, ok bool) {
	m := contentRe.FindStringSubmatch(content)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// PrimaryPrompt strips the parameter segment and replaces urls with a
// placeholder, leaving only the descriptive text. Used for fallback matching
// of events that carry no correlation token.
func PrimaryPrompt(prompt string) string {
	out := paramRe.ReplaceAllString(prompt, "")
	out = urlRe.ReplaceAllString(out, "<link>")
	return strings.ReplaceAll(out, "<<link>>", "<link>")
}

// MessageHash derives the attachment content hash from its url: the final
// underscore-separated part of the filename, without extension.
func MessageHash(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	name := path.Base(imageURL)
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[i+1:]
	}
	return name
}
