package app

import (
	"context"
	"fmt"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewApp constructs all clients once at startup and wires them into an App.
// Both the local server and the Lambda entrypoint go through here.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	store, err := NewStore(cfg.DB.DSN())
	if err != nil {
		return nil, err
	}

	prices, err := NewPriceTable(cfg.Stripe)
	if err != nil {
		return nil, fmt.Errorf("price table: %w", err)
	}
	InitStripe(cfg.Stripe.SecretKey)

	objects, err := NewS3Store(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	eleven := NewElevenLabsClient(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.BaseURL)

	var analytics Analytics = NopAnalytics{}
	if cfg.PostHog.APIKey != "" {
		sink, err := NewPostHogSink(cfg.PostHog.APIKey, cfg.PostHog.Host)
		if err != nil {
			log.Warn().Err(err).Msg("posthog init failed, analytics disabled")
		} else {
			analytics = sink
		}
	}

	var reval Revalidator = NopRevalidator{}
	if cfg.Frontend.URL != "" {
		reval = NewFrontendRevalidator(cfg.Frontend.URL, cfg.Frontend.RevalidateSecret)
	}

	return &App{
		Cfg:       cfg,
		Prices:    prices,
		Users:     store,
		Stories:   store,
		Events:    store,
		TTS:       eleven,
		Voices:    eleven,
		Objects:   objects,
		Analytics: analytics,
		Reval:     reval,
		Generator: NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
	}, nil
}
