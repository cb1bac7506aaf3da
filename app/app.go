package app

import (
	"context"
	"io"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/config"
	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
)

// UserStore is the entitlement store: subscription status and credit balance
// per user.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (models.User, error)
	UpsertUser(ctx context.Context, uid, email, name string) error
	AddCredits(ctx context.Context, uid string, delta int) error
	SetCustomVoice(ctx context.Context, uid, voiceID string) error
	StripeCustomerID(ctx context.Context, uid string) (string, error)
	SetStripeCustomerID(ctx context.Context, uid, customerID string) error
	DowngradeSubscription(ctx context.Context, subscriptionID string) (int64, error)
}

type StoryStore interface {
	GetStory(ctx context.Context, id string) (models.Story, error)
	InsertStory(ctx context.Context, st models.Story) error
	ClaimAudioURL(ctx context.Context, id, url string) (bool, error)
	ForceAudioURL(ctx context.Context, id, url string) error
	EnsureShareToken(ctx context.Context, id, candidate string) (string, error)
}

// WebhookStore applies webhook-driven mutations with at-least-once delivery
// in mind: grants are deduplicated by provider event id.
type WebhookStore interface {
	// GrantCheckoutOnce applies a checkout grant exactly once per event id.
	// Returns false for a duplicate delivery, with no mutation.
	GrantCheckoutOnce(ctx context.Context, eventID, uid string, grant CreditGrant, customerID, subscriptionID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Synthesizer turns narration text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// VoiceCloner registers an uploaded voice sample and returns the provider's
// voice id.
type VoiceCloner interface {
	CloneVoice(ctx context.Context, name string, sample io.Reader, filename string) (string, error)
}

// ObjectStore persists a blob and returns its public URL.
type ObjectStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Analytics is a fire-and-forget event sink. Capture must never block the
// caller or surface an error.
type Analytics interface {
	Capture(userID, event string, props map[string]any)
}

// Revalidator asks the presentation layer to refresh cached story pages.
type Revalidator interface {
	Revalidate(paths ...string)
}

// StoryGenerator produces a new story draft from a prompt.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, prompt StoryPrompt) (GeneratedStory, error)
}

// App holds the constructed clients the handlers and workflows run against.
// Everything is injected; nothing lives in package-level state.
type App struct {
	Cfg       *config.Config
	Prices    *PriceTable
	Users     UserStore
	Stories   StoryStore
	Events    WebhookStore
	TTS       Synthesizer
	Voices    VoiceCloner
	Objects   ObjectStore
	Analytics Analytics
	Reval     Revalidator
	Generator StoryGenerator
}
