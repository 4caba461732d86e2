package api

import (
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/internal/core"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/store"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/translate"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/webhook"
)

// Options re-exports the service tunables.
type Options = core.Options

// NotifyOptions re-exports the webhook delivery tunables.
type NotifyOptions = core.NotifyOptions

// New assembles the dispatcher over the given collaborators and starts its
// per-account listeners and workers.
func New(
	st store.Store,
	sender discord.Sender,
	events discord.EventSource,
	translator translate.Translator,
	hook webhook.Sender,
	accounts []*structs.Account,
	opts *Options,
	log *zap.Logger,
) (API, error) {
	return core.NewService(st, sender, events, translator, hook, accounts, opts, log)
}
