package discord

import (
	"context"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// EventKind is what happened to a channel message.
type EventKind string

const (
	EventCreate EventKind = "CREATE"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event is one message change observed on an account's channel. The stream
// is unordered and may contain duplicates.
type Event struct {
	Kind EventKind

	// Nonce is the correlation token echoed back on the first message a
	// command produces. Empty on later events.
	Nonce string

	// MessageID is the channel message this event concerns
	MessageID string

	// MessageHash is the content hash of the message's first attachment,
	// derived from its url. Empty when there is no attachment.
	MessageHash string

	// Flags are the message flags
	Flags int64

	// Content is the raw message text
	Content string

	// ImageURL is the url of the message's first attachment, if any
	ImageURL string

	// Embed is the description text of the message's first embed. Describe
	// and shorten results arrive here rather than in Content.
	Embed string
}

// Sender issues commands into an account's private channel. Implementations
// report only whether the command was accepted; results arrive later as
// Events.
type Sender interface {
	Imagine(ctx context.Context, acc *structs.Account, prompt, nonce string) error
	Upscale(ctx context.Context, acc *structs.Account, messageID string, index int, messageHash string, flags int64, nonce string) error
	Variation(ctx context.Context, acc *structs.Account, messageID string, index int, messageHash string, flags int64, nonce string) error
	Reroll(ctx context.Context, acc *structs.Account, messageID, messageHash string, flags int64, nonce string) error
	Describe(ctx context.Context, acc *structs.Account, image, nonce string) error
	Blend(ctx context.Context, acc *structs.Account, images []string, dimensions structs.BlendDimensions, nonce string) error
	Shorten(ctx context.Context, acc *structs.Account, prompt, nonce string) error
}

// EventSource yields the stream of message events for one account. The
// returned channel is closed when the context ends or the source shuts down.
type EventSource interface {
	Listen(ctx context.Context, acc *structs.Account) (<-chan *Event, error)
}
