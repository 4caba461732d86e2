package core

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/translate"
)

var (
	paramRe = regexp.MustCompile(`(?i)\s+--[a-z]+.*$`)
	urlRe   = regexp.MustCompile(`(?i)https?://[a-z0-9-_:@&?=+,.!/~*'%$]+(?:\s+|$)`)
	noArgRe = regexp.MustCompile(`--no\s+(.*?)(?:\s+--|$)`)
)

// preprocessor normalizes prompts before dispatch. Trailing --parameters
// and embedded URLs pass through verbatim; only descriptive text that
// contains non-target script is translated. The --no exclusion argument is
// translated independently of the main text.
type preprocessor struct {
	translator translate.Translator
	log        *zap.Logger
}

func newPreprocessor(translator translate.Translator, log *zap.Logger) *preprocessor {
	if translator == nil {
		translator = translate.None{}
	}
	return &preprocessor{translator: translator, log: log}
}

func (p *preprocessor) TranslatePrompt(ctx context.Context, prompt string) string {
	if prompt == "" || !containsCJK(prompt) {
		return prompt
	}

	paramStr := paramRe.FindString(prompt)
	body := prompt[:len(prompt)-len(paramStr)]

	urls := urlRe.FindAllString(body, -1)
	text := body
	for _, u := range urls {
		text = strings.Replace(text, u, "", 1)
	}
	text = strings.TrimSpace(text)

	if text != "" && containsCJK(text) {
		text = p.translate(ctx, text)
	}

	if m := noArgRe.FindStringSubmatchIndex(paramStr); m != nil && containsCJK(paramStr[m[2]:m[3]]) {
		arg := p.translate(ctx, paramStr[m[2]:m[3]])
		paramStr = paramStr[:m[2]] + arg + paramStr[m[3]:]
	}

	var sb strings.Builder
	for _, u := range urls {
		sb.WriteString(u)
		if !strings.HasSuffix(u, " ") {
			sb.WriteString(" ")
		}
	}
	sb.WriteString(text)
	sb.WriteString(paramStr)
	return sb.String()
}

// translate returns the input unchanged when the translator fails; a
// submission must not be lost to a translation outage.
func (p *preprocessor) translate(ctx context.Context, text string) string {
	out, err := p.translator.Translate(ctx, strings.TrimSpace(text))
	if err != nil {
		p.log.Warn("translate failed, keeping original text", zap.Error(err))
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return text
	}
	return out
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
