package discord

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

const (
	defGatewayURL = "wss://gateway.discord.gg"

	opDispatch     = 0
	opHeartbeat    = 1
	opIdentify     = 2
	opReconnect    = 7
	opInvalidSess  = 9
	opHello        = 10
	opHeartbeatAck = 11
)

// Gateway is an EventSource that reads message events off the external
// service's websocket gateway, one connection per account.
type Gateway struct {
	url string
	log *zap.Logger
}

type GatewayOptions struct {
	// URL overrides the default gateway endpoint.
	URL string
}

func NewGateway(opts *GatewayOptions, log *zap.Logger) *Gateway {
	if opts == nil {
		opts = &GatewayOptions{}
	}
	if opts.URL == "" {
		opts.URL = defGatewayURL
	}
	return &Gateway{url: opts.URL, log: log}
}

type gatewayPayload struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	S  *int64          `json:"s,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

type gatewayMessage struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Flags     int64  `json:"flags"`

	// the wire sends nonces as either a string or a number
	Nonce json.RawMessage `json:"nonce"`

	Attachments []struct {
		URL string `json:"url"`
	} `json:"attachments"`

	Embeds []struct {
		Description string `json:"description"`
		Image       struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"embeds"`
}

// gatewayConn serializes writes; the read loop and the heartbeat goroutine
// both send, and the underlying connection forbids concurrent writers.
type gatewayConn struct {
	conn *websocket.Conn

	mu sync.Mutex
}

func (c *gatewayConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (m *gatewayMessage) nonce() string {
	raw := string(m.Nonce)
	if len(raw) >= 2 && raw[0] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "null" {
		return ""
	}
	return raw
}

// Listen connects the account and streams its channel's message events
// until the context ends. Disconnects reconnect with backoff; events during
// a gap are lost, which the correlator's timeout path covers.
func (g *Gateway) Listen(ctx context.Context, acc *structs.Account) (<-chan *Event, error) {
	out := make(chan *Event, 64)
	go func() {
		defer close(out)
		wait := time.Second
		for {
			err := g.run(ctx, acc, out)
			if ctx.Err() != nil {
				return
			}
			g.log.Warn("gateway disconnected",
				zap.String("account", acc.Display()), zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			if wait < 30*time.Second {
				wait *= 2
			}
		}
	}()
	return out, nil
}

func (g *Gateway) run(ctx context.Context, acc *structs.Account, out chan<- *Event) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url+"/?v=9&encoding=json", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	wc := &gatewayConn{conn: conn}
	var seq atomic.Int64
	heartbeatDone := make(chan struct{})
	defer close(heartbeatDone)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		p := &gatewayPayload{}
		if err := json.Unmarshal(raw, p); err != nil {
			continue
		}
		if p.S != nil {
			seq.Store(*p.S)
		}

		switch p.Op {
		case opHello:
			hello := struct {
				HeartbeatInterval int64 `json:"heartbeat_interval"`
			}{}
			if err := json.Unmarshal(p.D, &hello); err != nil {
				return err
			}
			go g.heartbeat(wc, time.Duration(hello.HeartbeatInterval)*time.Millisecond, &seq, heartbeatDone)
			if err := g.identify(wc, acc); err != nil {
				return err
			}
		case opHeartbeat:
			wc.writeJSON(map[string]interface{}{"op": opHeartbeat, "d": seq.Load()})
		case opReconnect, opInvalidSess:
			return nil
		case opDispatch:
			g.dispatch(acc, p, out)
		}
	}
}

func (g *Gateway) heartbeat(wc *gatewayConn, interval time.Duration, seq *atomic.Int64, done <-chan struct{}) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-done:
			return
		case <-tick.C:
			if err := wc.writeJSON(map[string]interface{}{"op": opHeartbeat, "d": seq.Load()}); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) identify(wc *gatewayConn, acc *structs.Account) error {
	ua := acc.UserAgent
	if ua == "" {
		ua = defUserAgent
	}
	return wc.writeJSON(map[string]interface{}{
		"op": opIdentify,
		"d": map[string]interface{}{
			"token":        acc.Token,
			"capabilities": 16381,
			"properties": map[string]interface{}{
				"os":      "Mac OS X",
				"browser": "Chrome",
				"device":  "",
			},
		},
	})
}

func (g *Gateway) dispatch(acc *structs.Account, p *gatewayPayload, out chan<- *Event) {
	var kind EventKind
	switch p.T {
	case "MESSAGE_CREATE":
		kind = EventCreate
	case "MESSAGE_UPDATE":
		kind = EventUpdate
	case "MESSAGE_DELETE":
		kind = EventDelete
	default:
		return
	}

	msg := &gatewayMessage{}
	if err := json.Unmarshal(p.D, msg); err != nil {
		return
	}
	if msg.ChannelID != acc.ChannelID {
		return
	}

	evt := &Event{
		Kind:      kind,
		Nonce:     msg.nonce(),
		MessageID: msg.ID,
		Flags:     msg.Flags,
		Content:   msg.Content,
	}
	if len(msg.Attachments) > 0 {
		evt.ImageURL = msg.Attachments[0].URL
		evt.MessageHash = MessageHash(evt.ImageURL)
	}
	if len(msg.Embeds) > 0 {
		evt.Embed = msg.Embeds[0].Description
		if evt.ImageURL == "" && msg.Embeds[0].Image.URL != "" {
			evt.ImageURL = msg.Embeds[0].Image.URL
			evt.MessageHash = MessageHash(evt.ImageURL)
		}
	}

	select {
	case out <- evt:
	default:
		g.log.Warn("event buffer full, dropping event",
			zap.String("account", acc.Display()), zap.String("message_id", msg.ID))
	}
}
