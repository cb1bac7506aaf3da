package app

import (
	"context"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateStory runs the story-generation flow: entitlement gate, model call,
// persist, charge. The gate and charge follow the same contract as audio
// generation; only the provider differs.
func (a *App) CreateStory(ctx context.Context, callerUID, profileID string, prompt StoryPrompt) (models.Story, error) {
	user, err := a.Users.GetUser(ctx, callerUID)
	if err != nil {
		return models.Story{}, err
	}

	premium := user.SubscriptionStatus.PremiumEquivalent()
	if !premium && user.Credits <= 0 {
		storyGenerations.WithLabelValues("denied").Inc()
		return models.Story{}, ErrInsufficientCredits
	}

	draft, err := a.Generator.GenerateStory(ctx, prompt)
	if err != nil {
		storyGenerations.WithLabelValues("provider_error").Inc()
		return models.Story{}, err
	}

	story := models.Story{
		ID:              uuid.NewString(),
		UserID:          callerUID,
		ProfileID:       profileID,
		ChildName:       prompt.ChildName,
		Title:           draft.Title,
		Mood:            prompt.Mood,
		AgeGroup:        prompt.AgeGroup,
		Minutes:         draft.Minutes,
		Excerpt:         draft.Excerpt,
		Body:            draft.Body,
		DialogicPrompts: draft.DialogicPrompts,
	}
	if err := a.Stories.InsertStory(ctx, story); err != nil {
		storyGenerations.WithLabelValues("error").Inc()
		return models.Story{}, err
	}

	if !premium {
		if err := a.Users.AddCredits(ctx, callerUID, -1); err != nil {
			log.Error().Err(err).Str("user_id", callerUID).Msg("credit decrement failed after story generation")
		}
	}

	a.Analytics.Capture(callerUID, "story_generated", map[string]any{
		"story_id":  story.ID,
		"mood":      string(story.Mood),
		"age_group": string(story.AgeGroup),
		"has_theme": prompt.Theme != "",
	})

	storyGenerations.WithLabelValues("success").Inc()
	log.Info().Str("story_id", story.ID).Str("user_id", callerUID).Msg("story generated")
	return story, nil
}
