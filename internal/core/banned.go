package core

import (
	"regexp"
	"strings"
)

// BannedWords screens prompts for disallowed terms. Matching is
// case-insensitive on whole words only, so "grass" does not trip on "ass".
type BannedWords struct {
	patterns []*regexp.Regexp
}

func NewBannedWords(words []string) *BannedWords {
	b := &BannedWords{}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		b.patterns = append(b.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return b
}

// Check returns the offending term as it appears in the text.
func (b *BannedWords) Check(text string) (string, bool) {
	if b == nil || text == "" {
		return "", false
	}
	for _, re := range b.patterns {
		if loc := re.FindStringIndex(text); loc != nil {
			return text[loc[0]:loc[1]], true
		}
	}
	return "", false
}
