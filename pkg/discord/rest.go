package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

const (
	defServerURL = "https://discord.com"
	defUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"

	// interaction application command / component types
	cmdTypeSlash     = 2
	componentButton  = 2
	interactionSlash = 2
	interactionComp  = 3

	imagineCommandID  = "938956540159881230"
	describeCommandID = "1092492867185950852"
	blendCommandID    = "1062880104792997970"
	shortenCommandID  = "1121575480532312214"
	commandVersion    = "1237876415471554623"
)

// RestSender issues commands as application interactions over the external
// service's HTTP API.
type RestSender struct {
	serverURL string
	sessionID string
	cli       *http.Client
	log       *zap.Logger
}

type RestOptions struct {
	// ServerURL overrides the default API server, eg. for a reverse proxy.
	ServerURL string

	Timeout time.Duration
}

func NewRestSender(opts *RestOptions, log *zap.Logger) *RestSender {
	if opts == nil {
		opts = &RestOptions{}
	}
	if opts.ServerURL == "" {
		opts.ServerURL = defServerURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &RestSender{
		serverURL: opts.ServerURL,
		sessionID: "f1a313a09ce079ce252459dc70231f30",
		cli:       &http.Client{Timeout: opts.Timeout},
		log:       log,
	}
}

type interaction struct {
	Type          int                    `json:"type"`
	GuildID       string                 `json:"guild_id"`
	ChannelID     string                 `json:"channel_id"`
	SessionID     string                 `json:"session_id"`
	MessageID     string                 `json:"message_id,omitempty"`
	MessageFlags  int64                  `json:"message_flags,omitempty"`
	ApplicationID string                 `json:"application_id"`
	Nonce         string                 `json:"nonce,omitempty"`
	Data          map[string]interface{} `json:"data"`
}

func (s *RestSender) newInteraction(acc *structs.Account, kind int, nonce string) *interaction {
	return &interaction{
		Type:          kind,
		GuildID:       acc.GuildID,
		ChannelID:     acc.ChannelID,
		SessionID:     s.sessionID,
		ApplicationID: "936929561302675456",
		Nonce:         nonce,
	}
}

func (s *RestSender) post(ctx context.Context, acc *structs.Account, in *interaction) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/api/v9/interactions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", acc.Token)
	ua := acc.UserAgent
	if ua == "" {
		ua = defUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := s.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("interaction rejected: http %d", resp.StatusCode)
	}
	return nil
}

func slashCommand(id, name string, options []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"version": commandVersion,
		"id":      id,
		"name":    name,
		"type":    cmdTypeSlash,
		"options": options,
	}
}

func (s *RestSender) Imagine(ctx context.Context, acc *structs.Account, prompt, nonce string) error {
	in := s.newInteraction(acc, interactionSlash, nonce)
	in.Data = slashCommand(imagineCommandID, "imagine", []map[string]interface{}{
		{"type": 3, "name": "prompt", "value": prompt},
	})
	return s.post(ctx, acc, in)
}

func (s *RestSender) component(ctx context.Context, acc *structs.Account, messageID, customID string, flags int64, nonce string) error {
	in := s.newInteraction(acc, interactionComp, nonce)
	in.MessageID = messageID
	in.MessageFlags = flags
	in.Data = map[string]interface{}{
		"component_type": componentButton,
		"custom_id":      customID,
	}
	return s.post(ctx, acc, in)
}

func (s *RestSender) Upscale(ctx context.Context, acc *structs.Account, messageID string, index int, messageHash string, flags int64, nonce string) error {
	customID := fmt.Sprintf("MJ::JOB::upsample::%d::%s", index, messageHash)
	return s.component(ctx, acc, messageID, customID, flags, nonce)
}

func (s *RestSender) Variation(ctx context.Context, acc *structs.Account, messageID string, index int, messageHash string, flags int64, nonce string) error {
	customID := fmt.Sprintf("MJ::JOB::variation::%d::%s", index, messageHash)
	return s.component(ctx, acc, messageID, customID, flags, nonce)
}

func (s *RestSender) Reroll(ctx context.Context, acc *structs.Account, messageID, messageHash string, flags int64, nonce string) error {
	customID := fmt.Sprintf("MJ::JOB::reroll::0::%s::SOLO", messageHash)
	return s.component(ctx, acc, messageID, customID, flags, nonce)
}

func (s *RestSender) Describe(ctx context.Context, acc *structs.Account, image, nonce string) error {
	in := s.newInteraction(acc, interactionSlash, nonce)
	in.Data = slashCommand(describeCommandID, "describe", []map[string]interface{}{
		{"type": 11, "name": "image", "value": 0},
	})
	in.Data["attachments"] = []map[string]interface{}{
		{"id": "0", "filename": "image.png", "uploaded_filename": image},
	}
	return s.post(ctx, acc, in)
}

func (s *RestSender) Blend(ctx context.Context, acc *structs.Account, images []string, dimensions structs.BlendDimensions, nonce string) error {
	options := []map[string]interface{}{}
	attachments := []map[string]interface{}{}
	for i, img := range images {
		options = append(options, map[string]interface{}{
			"type": 11, "name": fmt.Sprintf("image%d", i+1), "value": i,
		})
		attachments = append(attachments, map[string]interface{}{
			"id": fmt.Sprintf("%d", i), "filename": fmt.Sprintf("image%d.png", i+1), "uploaded_filename": img,
		})
	}
	options = append(options, map[string]interface{}{
		"type": 3, "name": "dimensions", "value": "--ar " + dimensions.AspectRatio(),
	})

	in := s.newInteraction(acc, interactionSlash, nonce)
	in.Data = slashCommand(blendCommandID, "blend", options)
	in.Data["attachments"] = attachments
	return s.post(ctx, acc, in)
}

func (s *RestSender) Shorten(ctx context.Context, acc *structs.Account, prompt, nonce string) error {
	in := s.newInteraction(acc, interactionSlash, nonce)
	in.Data = slashCommand(shortenCommandID, "shorten", []map[string]interface{}{
		{"type": 3, "name": "prompt", "value": prompt},
	})
	return s.post(ctx, acc, in)
}
