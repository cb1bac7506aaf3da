package app

import (
	"context"
	"errors"
	"testing"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
)

func testPrompt() StoryPrompt {
	return StoryPrompt{
		ChildName: "Noor",
		Mood:      models.MoodRustig,
		AgeGroup:  models.AgeToddler,
		Theme:     "de zee",
	}
}

func testDraft() GeneratedStory {
	return GeneratedStory{
		Title:   "De zingende zee",
		Minutes: 5,
		Excerpt: "Een verhaal over golven.",
		Body: []models.BodySegment{
			{Type: models.SegmentParagraph, Text: "De zee zong een liedje."},
		},
		DialogicPrompts: []models.DialogicPrompt{
			{PausePoint: 1, Question: "Wat hoor jij in de zee?"},
		},
	}
}

func TestCreateStoryChargesMeteredUser(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusFree, Credits: 2}
	a, _, _, analytics, _ := newTestApp(store)
	gen := &fakeGenerator{story: testDraft()}
	a.Generator = gen

	story, err := a.CreateStory(context.Background(), "u1", "profile-1", testPrompt())
	if err != nil {
		t.Fatalf("CreateStory error = %v", err)
	}
	if story.ID == "" {
		t.Fatalf("expected generated story id")
	}
	if story.Title != "De zingende zee" {
		t.Fatalf("title = %q", story.Title)
	}
	if story.ChildName != "Noor" || story.Mood != models.MoodRustig {
		t.Fatalf("prompt fields not carried onto story: %+v", story)
	}
	if _, ok := store.stories[story.ID]; !ok {
		t.Fatalf("story not persisted")
	}
	if got := store.users["u1"].Credits; got != 1 {
		t.Fatalf("credits = %d, want 1", got)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if analytics.named("story_generated") == nil {
		t.Fatalf("expected story_generated event")
	}
}

func TestCreateStoryPremiumNotCharged(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusPremium, Credits: 0}
	a, _, _, _, _ := newTestApp(store)
	a.Generator = &fakeGenerator{story: testDraft()}

	if _, err := a.CreateStory(context.Background(), "u1", "profile-1", testPrompt()); err != nil {
		t.Fatalf("CreateStory error = %v", err)
	}
	if got := store.users["u1"].Credits; got != 0 {
		t.Fatalf("credits = %d, want 0", got)
	}
}

func TestCreateStoryInsufficientCredits(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusFree, Credits: 0}
	a, _, _, _, _ := newTestApp(store)
	gen := &fakeGenerator{story: testDraft()}
	a.Generator = gen

	_, err := a.CreateStory(context.Background(), "u1", "profile-1", testPrompt())
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("error = %v, want ErrInsufficientCredits", err)
	}
	if gen.calls != 0 {
		t.Fatalf("model must not be called when entitlement is denied")
	}
	if len(store.stories) != 0 {
		t.Fatalf("no story should be persisted")
	}
}

func TestCreateStoryProviderFailure(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusFree, Credits: 1}
	a, _, _, _, _ := newTestApp(store)
	a.Generator = &fakeGenerator{err: errors.New("model unavailable")}

	if _, err := a.CreateStory(context.Background(), "u1", "profile-1", testPrompt()); err == nil {
		t.Fatalf("expected provider error")
	}
	if got := store.users["u1"].Credits; got != 1 {
		t.Fatalf("credits = %d, want 1 (no charge on failure)", got)
	}
	if len(store.stories) != 0 {
		t.Fatalf("no story should be persisted on failure")
	}
}
