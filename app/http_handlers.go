package app

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns the entitlement snapshot for the authenticated user.
func (a *App) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	user, err := a.Users.GetUser(c.Request.Context(), claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		// First request can race the upsert middleware; retry once.
		if err = a.Users.UpsertUser(c.Request.Context(), claims.Subject, "", ""); err == nil {
			user, err = a.Users.GetUser(c.Request.Context(), claims.Subject)
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptionStatus": user.SubscriptionStatus,
		"credits":            user.Credits,
		"hasCustomVoice":     user.CustomVoiceID != "",
	})
}

type createStoryRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
	ChildName string `json:"childName" binding:"required"`
	AgeGroup  string `json:"ageGroup" binding:"required"`
	Mood      string `json:"mood" binding:"required"`
	Theme     string `json:"theme" binding:"required,min=3"`
	Context   string `json:"context"`
}

// CreateStoryHandler generates and persists a new story for the caller.
func (a *App) CreateStoryHandler(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	mood := models.StoryMood(req.Mood)
	ageGroup := models.AgeGroup(req.AgeGroup)
	if !mood.Valid() || !ageGroup.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mood or age group"})
		return
	}

	story, err := a.CreateStory(c.Request.Context(), claims.Subject, req.ProfileID, StoryPrompt{
		ChildName: req.ChildName,
		AgeGroup:  ageGroup,
		Mood:      mood,
		Theme:     req.Theme,
		Context:   req.Context,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"storyId": story.ID})
}

type generateAudioRequest struct {
	UseCustomVoice *bool `json:"useCustomVoice"`
	Force          bool  `json:"force"`
}

// GenerateAudioHandler runs the audio generation workflow for a story owned
// by the caller.
func (a *App) GenerateAudioHandler(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	storyID := c.Param("id")
	if storyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing story id"})
		return
	}

	var req generateAudioRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	opts := AudioOptions{UseCustomVoice: true, Force: req.Force}
	if req.UseCustomVoice != nil {
		opts.UseCustomVoice = *req.UseCustomVoice
	}

	url, err := a.GenerateAudio(c.Request.Context(), storyID, claims.Subject, opts)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"audioUrl": url})
}

// CreateShareLinkHandler mints (or returns) the story's share token.
func (a *App) CreateShareLinkHandler(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	storyID := c.Param("id")

	token, err := a.GetOrCreateShareToken(c.Request.Context(), storyID, claims.Subject)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"url":   a.Cfg.Frontend.URL + "/listen/" + storyID + "?token=" + token,
	})
}

type listenStoryResponse struct {
	ID              string                  `json:"id"`
	ChildName       string                  `json:"childName"`
	Title           string                  `json:"title"`
	Mood            models.StoryMood        `json:"mood"`
	AgeGroup        models.AgeGroup         `json:"ageGroup"`
	Minutes         int                     `json:"minutes"`
	Body            []models.BodySegment    `json:"body"`
	DialogicPrompts []models.DialogicPrompt `json:"dialogicPrompts"`
	AudioURL        string                  `json:"audioUrl,omitempty"`
	IsOwner         bool                    `json:"isOwner"`
}

// ListenHandler serves the story for playback. Owners read freely; everyone
// else needs the share token.
func (a *App) ListenHandler(c *gin.Context) {
	storyID := c.Param("id")
	story, err := a.Stories.GetStory(c.Request.Context(), storyID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	callerUID := ""
	if claims, ok := auth.ClaimsFromContext(c.Request.Context()); ok {
		callerUID = claims.Subject
	}

	if err := AuthorizeRead(story, callerUID, c.Query("token")); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, listenStoryResponse{
		ID:              story.ID,
		ChildName:       story.ChildName,
		Title:           story.Title,
		Mood:            story.Mood,
		AgeGroup:        story.AgeGroup,
		Minutes:         story.Minutes,
		Body:            story.Body,
		DialogicPrompts: story.DialogicPrompts,
		AudioURL:        story.AudioURL,
		IsOwner:         callerUID != "" && callerUID == story.UserID,
	})
}

const maxVoiceSampleBytes = 10 << 20

// CloneVoiceHandler accepts a voice sample upload and stores the resulting
// voice id on the user.
func (a *App) CloneVoiceHandler(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing voice sample"})
		return
	}
	defer file.Close()
	if header.Size > maxVoiceSampleBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}

	name := "Parent Voice (" + shortUID(claims.Subject) + ")"
	voiceID, err := a.Voices.CloneVoice(c.Request.Context(), name, file, filepath.Base(header.Filename))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	if err := a.Users.SetCustomVoice(c.Request.Context(), claims.Subject, voiceID); err != nil {
		log.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to save custom voice id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save voice"})
		return
	}

	a.Analytics.Capture(claims.Subject, "voice_cloned", map[string]any{
		"voice_id": voiceID,
	})

	c.JSON(http.StatusOK, gin.H{"voiceId": voiceID})
}

func shortUID(uid string) string {
	if len(uid) > 5 {
		return uid[:5]
	}
	return uid
}

// respondWorkflowError maps workflow errors onto HTTP statuses. Insufficient
// credits gets its own status so the UI can show a purchase prompt instead of
// a generic failure.
func respondWorkflowError(c *gin.Context, err error) {
	var (
		confErr ConfigurationError
		provErr ProviderError
	)
	switch {
	case errors.Is(err, ErrStoryNotFound), errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ErrLoginRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient credits"})
	case errors.Is(err, ErrNoNarrationText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "story has no narration text"})
	case errors.As(err, &confErr):
		log.Error().Err(err).Msg("configuration error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service misconfigured"})
	case errors.As(err, &provErr):
		log.Error().Err(err).Str("provider", provErr.Provider).Msg("provider call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unavailable, please retry"})
	default:
		log.Error().Err(err).Str("path", strings.TrimSpace(c.FullPath())).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
