package app

import (
	"github.com/posthog/posthog-go"
	"github.com/rs/zerolog/log"
)

// PostHogSink forwards events to PostHog. Enqueue buffers internally, so
// Capture never blocks the request path; failures are logged and dropped.
type PostHogSink struct {
	client posthog.Client
}

func NewPostHogSink(apiKey, host string) (*PostHogSink, error) {
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: host})
	if err != nil {
		return nil, err
	}
	return &PostHogSink{client: client}, nil
}

func (s *PostHogSink) Capture(userID, event string, props map[string]any) {
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}
	err := s.client.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      event,
		Properties: properties,
	})
	if err != nil {
		log.Warn().Err(err).Str("event", event).Msg("analytics capture dropped")
	}
}

func (s *PostHogSink) Close() error { return s.client.Close() }

// NopAnalytics is used when no PostHog key is configured.
type NopAnalytics struct{}

func (NopAnalytics) Capture(string, string, map[string]any) {}
