package app

import (
	"context"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"

	"github.com/rs/zerolog/log"
)

type AudioOptions struct {
	UseCustomVoice bool
	Force          bool
}

// GenerateAudio produces (or returns the existing) narrated audio for a
// story. Metered users are charged one credit per new generation; premium,
// trialing and admin users are never charged. Re-invoking for a story that
// already has audio is a silent success, not an error.
func (a *App) GenerateAudio(ctx context.Context, storyID, callerUID string, opts AudioOptions) (string, error) {
	story, err := a.Stories.GetStory(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story.UserID != callerUID {
		return "", ErrUnauthorized
	}

	// Idempotent short-circuit: no entitlement check, no provider call,
	// no charge.
	if story.AudioURL != "" && !opts.Force {
		return story.AudioURL, nil
	}

	user, err := a.Users.GetUser(ctx, story.UserID)
	if err != nil {
		return "", err
	}

	premium := user.SubscriptionStatus.PremiumEquivalent()
	if !premium && user.Credits <= 0 {
		audioGenerations.WithLabelValues("denied").Inc()
		return "", ErrInsufficientCredits
	}

	voiceID, customVoice, err := a.selectVoice(user, story.Mood, opts.UseCustomVoice)
	if err != nil {
		return "", err
	}

	text := story.NarrationText()
	if text == "" {
		return "", ErrNoNarrationText
	}

	audio, err := a.TTS.Synthesize(ctx, text, voiceID)
	if err != nil {
		audioGenerations.WithLabelValues("provider_error").Inc()
		return "", err
	}

	url, err := a.Objects.Store(ctx, AudioObjectKey(storyID), audio, "audio/mpeg")
	if err != nil {
		audioGenerations.WithLabelValues("provider_error").Inc()
		return "", err
	}

	charged := false
	if opts.Force {
		if err := a.Stories.ForceAudioURL(ctx, storyID, url); err != nil {
			return "", err
		}
		charged = !premium
	} else {
		// First write wins. A concurrent racer that lost the claim keeps
		// the winner's URL and is not charged.
		won, err := a.Stories.ClaimAudioURL(ctx, storyID, url)
		if err != nil {
			return "", err
		}
		if !won {
			current, err := a.Stories.GetStory(ctx, storyID)
			if err != nil {
				return "", err
			}
			log.Info().Str("story_id", storyID).Msg("audio claim lost, returning existing url")
			audioGenerations.WithLabelValues("duplicate").Inc()
			return current.AudioURL, nil
		}
		charged = !premium
	}

	if charged {
		if err := a.Users.AddCredits(ctx, user.UID, -1); err != nil {
			// The audio is persisted; losing the charge is worse to hide
			// than to log.
			log.Error().Err(err).Str("user_id", user.UID).Msg("credit decrement failed after audio generation")
		}
	}

	a.Analytics.Capture(user.UID, "audio_generated", map[string]any{
		"story_id":     storyID,
		"mood":         string(story.Mood),
		"audio_url":    url,
		"custom_voice": customVoice,
	})
	a.Reval.Revalidate("/listen/"+storyID, "/story/"+storyID)

	audioGenerations.WithLabelValues("success").Inc()
	log.Info().Str("story_id", storyID).Bool("charged", charged).Msg("audio generated")
	return url, nil
}

// selectVoice picks the user's cloned voice when requested and available,
// otherwise a mood-derived default: the male narrator for energetic moods,
// the female narrator for calm ones.
func (a *App) selectVoice(user models.User, mood models.StoryMood, useCustom bool) (string, bool, error) {
	if useCustom && user.CustomVoiceID != "" {
		return user.CustomVoiceID, true, nil
	}

	voiceID := a.Cfg.ElevenLabs.VoiceIDFemale
	if mood == models.MoodDapper || mood == models.MoodGrappig {
		if male := a.Cfg.ElevenLabs.VoiceIDMale; male != "" {
			voiceID = male
		} else {
			log.Warn().Str("mood", string(mood)).Msg("EL_VOICE_MALE not set, falling back to default voice")
		}
	}
	if voiceID == "" {
		return "", false, ConfigurationError{Missing: "voice id for mood " + string(mood)}
	}
	return voiceID, false, nil
}
