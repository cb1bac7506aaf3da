package app

import (
	"context"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthorizeRead decides whether a caller may read a story. Owners always
// may; anyone presenting the story's share token may. An anonymous caller
// without a token gets ErrLoginRequired so the UI can distinguish "log in"
// from "forbidden".
func AuthorizeRead(story models.Story, callerUID, presentedToken string) error {
	if callerUID != "" && callerUID == story.UserID {
		return nil
	}
	if presentedToken != "" && story.ShareToken != "" && presentedToken == story.ShareToken {
		return nil
	}
	if callerUID == "" && presentedToken == "" {
		return ErrLoginRequired
	}
	return ErrUnauthorized
}

// GetOrCreateShareToken returns the story's share token, minting one on first
// request. Tokens are stable: once set, re-requesting returns the same value.
func (a *App) GetOrCreateShareToken(ctx context.Context, storyID, callerUID string) (string, error) {
	story, err := a.Stories.GetStory(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story.UserID != callerUID {
		return "", ErrUnauthorized
	}
	if story.ShareToken != "" {
		return story.ShareToken, nil
	}

	// The store keeps any token that won a concurrent race, so the candidate
	// may be discarded.
	token, err := a.Stories.EnsureShareToken(ctx, storyID, uuid.NewString())
	if err != nil {
		return "", err
	}

	a.Analytics.Capture(callerUID, "share_link_created", map[string]any{
		"story_id": storyID,
	})
	a.Reval.Revalidate("/listen/" + storyID)

	log.Info().Str("story_id", storyID).Msg("share token created")
	return token, nil
}
