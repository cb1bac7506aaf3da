package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	audioGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bedtijd_audio_generations_total",
		Help: "Audio generation attempts by outcome.",
	}, []string{"outcome"})

	storyGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bedtijd_story_generations_total",
		Help: "Story generation attempts by outcome.",
	}, []string{"outcome"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bedtijd_stripe_webhook_events_total",
		Help: "Stripe webhook deliveries by event type and outcome.",
	}, []string{"type", "outcome"})
)
