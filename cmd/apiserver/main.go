package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/internal/config"
	"github.com/cipher-x-sudo/midjourney-proxy/internal/core"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api/http/server"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/store"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/translate"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/webhook"
)

var CLI struct {
	Addr string `long:"addr" env:"ADDR" description:"Address to bind to, overrides the config file"`

	Config string `long:"config" env:"CONFIG" default:"config.yaml" description:"Path to the yaml config file"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func main() {
	// env vars may come from a local .env file during development
	godotenv.Load()

	var parser = flags.NewParser(&CLI, flags.Default)
	if _, err := parser.Parse(); err != nil {
		switch flagsErr := err.(type) {
		case flags.ErrorType:
			if flagsErr == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		default:
			os.Exit(1)
		}
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		panic(err)
	}
	if CLI.Addr != "" {
		cfg.Server.Addr = CLI.Addr
	}
	if CLI.Debug {
		cfg.Server.Debug = true
	}

	log, err := newLogger(cfg.Server.Debug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	svc, err := build(cfg, log)
	if err != nil {
		panic(err)
	}

	s := server.NewServer(cfg.Server.Addr, cfg.APISecret, cfg.Server.Debug)
	s.ServeForever(svc)
}

func build(cfg *config.Config, log *zap.Logger) (api.API, error) {
	retention, err := cfg.TaskRetention()
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.TaskStore.Type == "redis" {
		st, err = store.NewRedis(&store.Options{URL: cfg.TaskStore.RedisURL, Retention: retention})
		if err != nil {
			return nil, err
		}
	} else {
		st = store.NewMemory(&store.Options{Retention: retention})
	}

	var translator translate.Translator
	if cfg.Translate.Way == "gpt" {
		translator, err = translate.NewGPT(&translate.GPTOptions{
			APIKey:      cfg.Translate.GPT.APIKey,
			BaseURL:     cfg.Translate.GPT.BaseURL,
			Model:       cfg.Translate.GPT.Model,
			MaxTokens:   cfg.Translate.GPT.MaxTokens,
			Temperature: cfg.Translate.GPT.Temperature,
		})
		if err != nil {
			return nil, err
		}
	}

	var rule core.Rule
	if cfg.AccountChooseRule == "roundRobin" {
		rule = &core.RoundRobin{}
	}

	sender := discord.NewRestSender(&discord.RestOptions{ServerURL: cfg.Proxy.Server}, log)
	events := discord.NewGateway(&discord.GatewayOptions{URL: cfg.Proxy.Gateway}, log)

	svc, err := api.New(
		st,
		sender,
		events,
		translator,
		webhook.NewHTTP(0),
		cfg.Accounts,
		&api.Options{
			NotifyHook:  cfg.NotifyHook,
			BannedWords: cfg.BannedWords,
			ChooseRule:  rule,
			Notify: api.NotifyOptions{
				PoolSize:   cfg.Notify.PoolSize,
				QueueSize:  cfg.Notify.QueueSize,
				Retries:    cfg.Notify.Retries,
				OnProgress: cfg.NotifyOnProgress,
			},
		},
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	return svc, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
