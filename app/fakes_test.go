package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/config"
	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
)

// fakeStore is an in-memory stand-in for the Postgres store, mirroring its
// conditional-write semantics.
type fakeStore struct {
	users     map[string]models.User
	stories   map[string]models.Story
	processed map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]models.User{},
		stories:   map[string]models.Story{},
		processed: map[string]bool{},
	}
}

func (f *fakeStore) GetUser(_ context.Context, uid string) (models.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) UpsertUser(_ context.Context, uid, email, name string) error {
	if _, ok := f.users[uid]; !ok {
		f.users[uid] = models.User{UID: uid, Email: email, Name: name, SubscriptionStatus: models.StatusFree}
	}
	return nil
}

func (f *fakeStore) AddCredits(_ context.Context, uid string, delta int) error {
	u, ok := f.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.Credits += delta
	f.users[uid] = u
	return nil
}

func (f *fakeStore) SetCustomVoice(_ context.Context, uid, voiceID string) error {
	u, ok := f.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.CustomVoiceID = voiceID
	f.users[uid] = u
	return nil
}

func (f *fakeStore) StripeCustomerID(_ context.Context, uid string) (string, error) {
	u, ok := f.users[uid]
	if !ok {
		return "", ErrUserNotFound
	}
	return u.StripeCustomerID, nil
}

func (f *fakeStore) SetStripeCustomerID(_ context.Context, uid, customerID string) error {
	u, ok := f.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.StripeCustomerID = customerID
	f.users[uid] = u
	return nil
}

func (f *fakeStore) DowngradeSubscription(_ context.Context, subscriptionID string) (int64, error) {
	var n int64
	for uid, u := range f.users {
		if u.SubscriptionID == subscriptionID {
			u.SubscriptionStatus = models.StatusFree
			f.users[uid] = u
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetStory(_ context.Context, id string) (models.Story, error) {
	st, ok := f.stories[id]
	if !ok {
		return models.Story{}, ErrStoryNotFound
	}
	return st, nil
}

func (f *fakeStore) InsertStory(_ context.Context, st models.Story) error {
	f.stories[st.ID] = st
	return nil
}

func (f *fakeStore) ClaimAudioURL(_ context.Context, id, url string) (bool, error) {
	st, ok := f.stories[id]
	if !ok {
		return false, nil
	}
	if st.AudioURL != "" {
		return false, nil
	}
	st.AudioURL = url
	f.stories[id] = st
	return true, nil
}

func (f *fakeStore) ForceAudioURL(_ context.Context, id, url string) error {
	st, ok := f.stories[id]
	if !ok {
		return ErrStoryNotFound
	}
	st.AudioURL = url
	f.stories[id] = st
	return nil
}

func (f *fakeStore) EnsureShareToken(_ context.Context, id, candidate string) (string, error) {
	st, ok := f.stories[id]
	if !ok {
		return "", ErrStoryNotFound
	}
	if st.ShareToken == "" {
		st.ShareToken = candidate
		f.stories[id] = st
	}
	return st.ShareToken, nil
}

func (f *fakeStore) GrantCheckoutOnce(ctx context.Context, eventID, uid string, grant CreditGrant, customerID, subscriptionID string) (bool, error) {
	if f.processed[eventID] {
		return false, nil
	}
	u, ok := f.users[uid]
	if !ok {
		return false, ErrUserNotFound
	}
	f.processed[eventID] = true
	u.Credits += grant.Credits
	if grant.Status != "" {
		u.SubscriptionStatus = grant.Status
	}
	if customerID != "" {
		u.StripeCustomerID = customerID
	}
	if subscriptionID != "" {
		u.SubscriptionID = subscriptionID
	}
	f.users[uid] = u
	return true, nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, _ string) (bool, error) {
	if f.processed[eventID] {
		return false, nil
	}
	f.processed[eventID] = true
	return true, nil
}

type synthCall struct {
	text    string
	voiceID string
}

type fakeSynth struct {
	calls []synthCall
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceID string) ([]byte, error) {
	f.calls = append(f.calls, synthCall{text: text, voiceID: voiceID})
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

func (f *fakeSynth) CloneVoice(_ context.Context, name string, _ io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "cloned-voice-1", nil
}

type fakeObjects struct {
	stored map[string][]byte
	err    error
}

func (f *fakeObjects) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.stored == nil {
		f.stored = map[string][]byte{}
	}
	f.stored[key] = data
	return "https://cdn.test/" + key, nil
}

type capturedEvent struct {
	userID string
	event  string
	props  map[string]any
}

type fakeAnalytics struct {
	events []capturedEvent
}

func (f *fakeAnalytics) Capture(userID, event string, props map[string]any) {
	f.events = append(f.events, capturedEvent{userID: userID, event: event, props: props})
}

func (f *fakeAnalytics) named(event string) *capturedEvent {
	for i := range f.events {
		if f.events[i].event == event {
			return &f.events[i]
		}
	}
	return nil
}

type fakeReval struct {
	paths []string
}

func (f *fakeReval) Revalidate(paths ...string) {
	f.paths = append(f.paths, paths...)
}

type fakeGenerator struct {
	story GeneratedStory
	err   error
	calls int
}

func (f *fakeGenerator) GenerateStory(_ context.Context, _ StoryPrompt) (GeneratedStory, error) {
	f.calls++
	if f.err != nil {
		return GeneratedStory{}, f.err
	}
	return f.story, nil
}

var errSynthDown = errors.New("synth down")

func newTestApp(store *fakeStore) (*App, *fakeSynth, *fakeObjects, *fakeAnalytics, *fakeReval) {
	synth := &fakeSynth{}
	objects := &fakeObjects{}
	analytics := &fakeAnalytics{}
	reval := &fakeReval{}

	cfg := &config.Config{
		ElevenLabs: config.ElevenLabsConfig{
			VoiceIDFemale: "voice-female",
			VoiceIDMale:   "voice-male",
		},
		Stripe: config.StripeConfig{
			SecretKey:      "sk_test",
			WebhookSecret:  "whsec_test",
			PriceIDWeekend: "price_weekend",
			PriceIDMonthly: "price_monthly",
			PriceIDAnnual:  "price_annual",
		},
		Frontend: config.FrontendConfig{URL: "https://app.test"},
	}
	prices, err := NewPriceTable(cfg.Stripe)
	if err != nil {
		panic(fmt.Sprintf("test price table: %v", err))
	}

	a := &App{
		Cfg:       cfg,
		Prices:    prices,
		Users:     store,
		Stories:   store,
		Events:    store,
		TTS:       synth,
		Voices:    synth,
		Objects:   objects,
		Analytics: analytics,
		Reval:     reval,
		Generator: &fakeGenerator{},
	}
	return a, synth, objects, analytics, reval
}
