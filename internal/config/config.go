package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// Config is the on-disk yaml configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
		// Debug enables per-request logging
		Debug bool `yaml:"debug"`
	} `yaml:"server"`

	// APISecret, when set, is required in the mj-api-secret header
	APISecret string `yaml:"apiSecret"`

	// NotifyHook is the default callback url for tasks submitted without one
	NotifyHook string `yaml:"notifyHook"`

	// NotifyOnProgress also delivers non-terminal snapshots
	NotifyOnProgress bool `yaml:"notifyOnProgress"`

	// AccountChooseRule is how accounts are picked: bestWaitIdle | roundRobin
	AccountChooseRule string `yaml:"accountChooseRule"`

	BannedWords []string `yaml:"bannedWords"`

	Accounts []*structs.Account `yaml:"accounts"`

	Proxy struct {
		// Server overrides the command API server, eg. a reverse proxy
		Server string `yaml:"server"`
		// Gateway overrides the websocket gateway url
		Gateway string `yaml:"gateway"`
	} `yaml:"proxy"`

	TaskStore struct {
		// Type is memory or redis
		Type string `yaml:"type"`
		// Timeout is the retention window, eg. "30d", "12h"
		Timeout string `yaml:"timeout"`
		// RedisURL is used when type is redis
		RedisURL string `yaml:"redisUrl"`
	} `yaml:"taskStore"`

	Translate struct {
		// Way is null or gpt
		Way string `yaml:"way"`

		GPT struct {
			APIKey      string  `yaml:"apiKey"`
			BaseURL     string  `yaml:"baseUrl"`
			Model       string  `yaml:"model"`
			MaxTokens   int     `yaml:"maxTokens"`
			Temperature float32 `yaml:"temperature"`
		} `yaml:"gpt"`
	} `yaml:"translate"`

	Notify struct {
		PoolSize  int `yaml:"poolSize"`
		QueueSize int `yaml:"queueSize"`
		Retries   int `yaml:"retries"`
	} `yaml:"notify"`
}

func defaults() *Config {
	c := &Config{}
	c.Server.Addr = ":8080"
	c.AccountChooseRule = "bestWaitIdle"
	c.TaskStore.Type = "memory"
	c.TaskStore.Timeout = "30d"
	c.Translate.Way = "null"
	return c
}

// Load reads and validates the config at the given path. A missing path
// yields the defaults.
func Load(path string) (*Config, error) {
	c := defaults()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.TaskStore.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown taskStore.type %q", c.TaskStore.Type)
	}
	switch c.Translate.Way {
	case "", "null", "gpt":
	default:
		return fmt.Errorf("unknown translate.way %q", c.Translate.Way)
	}
	switch c.AccountChooseRule {
	case "", "bestWaitIdle", "roundRobin":
	default:
		return fmt.Errorf("unknown accountChooseRule %q", c.AccountChooseRule)
	}
	if _, err := c.TaskRetention(); err != nil {
		return err
	}
	return nil
}

// TaskRetention parses the retention window. A plain "NNd" day suffix is
// accepted on top of the usual duration units.
func (c *Config) TaskRetention() (time.Duration, error) {
	s := strings.TrimSpace(c.TaskStore.Timeout)
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("bad taskStore.timeout %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad taskStore.timeout %q: %v", s, err)
	}
	return d, nil
}
