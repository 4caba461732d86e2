package structs

import (
	"gopkg.in/yaml.v3"
)

const (
	defCoreSize       = 3
	defQueueSize      = 10
	defTimeoutMinutes = 5
)

// Account is the configuration of one external account: where its private
// channel lives, how to authenticate, and how much work it may hold.
type Account struct {
	// ID uniquely identifies the account within this process. Defaults to
	// the channel id when unset.
	ID string `json:"id" yaml:"id"`

	// GuildID is the server the private channel belongs to
	GuildID string `json:"guild_id" yaml:"guildId"`

	// ChannelID is the private channel commands are sent into
	ChannelID string `json:"channel_id" yaml:"channelId"`

	// Token authenticates as the account user. Never serialized outward.
	Token string `json:"-" yaml:"userToken"`

	// UserAgent is sent with outbound requests
	UserAgent string `json:"user_agent,omitempty" yaml:"userAgent"`

	// Enabled accounts accept new admissions
	Enabled bool `json:"enabled" yaml:"enable"`

	// CoreSize is the number of concurrently running task slots
	CoreSize int `json:"core_size" yaml:"coreSize"`

	// QueueSize is the backlog allowed beyond the running slots
	QueueSize int `json:"queue_size" yaml:"queueSize"`

	// TimeoutMinutes force-fails a running task after this many minutes
	TimeoutMinutes int `json:"timeout_minutes" yaml:"timeoutMinutes"`
}

// Sanitize fills unset capacity fields with defaults. QueueSize zero is
// kept as-is: it means no backlog beyond the running slots.
func (a *Account) Sanitize() {
	if a.ID == "" {
		a.ID = a.ChannelID
	}
	if a.CoreSize <= 0 {
		a.CoreSize = defCoreSize
	}
	if a.QueueSize < 0 {
		a.QueueSize = defQueueSize
	}
	if a.TimeoutMinutes <= 0 {
		a.TimeoutMinutes = defTimeoutMinutes
	}
}

// UnmarshalYAML seeds the capacity defaults before decoding, so an omitted
// queueSize keeps the default backlog while an explicit 0 disables it.
func (a *Account) UnmarshalYAML(value *yaml.Node) error {
	type plain Account
	out := plain{
		CoreSize:       defCoreSize,
		QueueSize:      defQueueSize,
		TimeoutMinutes: defTimeoutMinutes,
	}
	if err := value.Decode(&out); err != nil {
		return err
	}
	*a = Account(out)
	return nil
}

// Display returns a short human readable name for log lines.
func (a *Account) Display() string {
	if a.ChannelID != "" {
		return a.ChannelID
	}
	return a.ID
}
