package translate

import (
	"context"
)

// Translator turns prompt text into the target language. Failures are
// non-fatal to callers; they fall back to the original text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// None performs no translation.
type None struct{}

func (None) Translate(ctx context.Context, text string) (string, error) {
	return text, nil
}
