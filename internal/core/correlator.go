package core

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// correlator translates the message stream of one account back into task
// state. Creation events bind via the submission token, everything after
// that matches on the bound message id, with a prompt-based fallback for
// completions that skipped the progress stage.
type correlator struct {
	acc *Account
	log *zap.Logger
}

func newCorrelator(acc *Account, log *zap.Logger) *correlator {
	return &correlator{acc: acc, log: log.With(zap.String("account", acc.ID()))}
}

func (c *correlator) handle(evt *discord.Event) {
	switch evt.Kind {
	case discord.EventCreate:
		c.onCreate(evt)
	case discord.EventUpdate:
		c.onUpdate(evt)
	case discord.EventDelete:
		c.onDelete(evt)
	}
}

func (c *correlator) onCreate(evt *discord.Event) {
	prompt, status, parsed := discord.ParseContent(evt.Content)

	if evt.Nonce != "" {
		rt := c.acc.findByNonce(evt.Nonce)
		if rt == nil {
			// unknown or already-bound token, not ours to act on
			return
		}
		if rt.bind(evt.MessageID, evt.MessageHash, evt.Flags, prompt) {
			c.log.Debug("task bound",
				zap.String("task", rt.id()), zap.String("message", evt.MessageID))
		}
		return
	}

	// a fresh message with a finished image is a completion announcement
	if parsed && evt.ImageURL != "" && !strings.HasSuffix(status, "%") {
		rt := c.acc.findForCompletion(prompt)
		if rt == nil {
			return
		}
		if rt.succeed(evt, prompt) {
			c.log.Info("task finished",
				zap.String("task", rt.id()), zap.String("message", evt.MessageID))
		}
	}
}

func (c *correlator) onUpdate(evt *discord.Event) {
	rt := c.acc.findByMessageID(evt.MessageID)
	if rt == nil {
		return
	}

	// describe and shorten results arrive as an embed description on the
	// bound message, never as a **prompt** content line
	switch rt.action() {
	case structs.ActionDescribe, structs.ActionShorten:
		if evt.Embed == "" {
			return
		}
		if rt.succeedWithEmbed(evt) {
			c.log.Info("task finished",
				zap.String("task", rt.id()), zap.String("message", evt.MessageID))
		}
		return
	}

	prompt, status, parsed := discord.ParseContent(evt.Content)
	if !parsed || status == "Stopped" || status == "Waiting to start" {
		return
	}
	if strings.HasSuffix(status, "%") {
		rt.setProgress(status, evt.ImageURL, evt.MessageHash, prompt)
		return
	}
	if evt.ImageURL != "" {
		if rt.succeed(evt, prompt) {
			c.log.Info("task finished",
				zap.String("task", rt.id()), zap.String("message", evt.MessageID))
		}
	}
}

func (c *correlator) onDelete(evt *discord.Event) {
	rt := c.acc.findByMessageID(evt.MessageID)
	if rt == nil {
		return
	}
	if rt.finalize(structs.FAILURE, "message deleted by external moderation", "") {
		c.log.Warn("task message deleted", zap.String("task", rt.id()))
	}
}
