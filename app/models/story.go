package models

import (
	"strings"
	"time"
)

type StoryMood string

const (
	MoodRustig  StoryMood = "Rustig"
	MoodGrappig StoryMood = "Grappig"
	MoodDapper  StoryMood = "Dapper"
	MoodTroost  StoryMood = "Troost"
)

func (m StoryMood) Valid() bool {
	switch m {
	case MoodRustig, MoodGrappig, MoodDapper, MoodTroost:
		return true
	}
	return false
}

type AgeGroup string

const (
	AgeToddler   AgeGroup = "2-4"
	AgePreschool AgeGroup = "4-7"
)

func (a AgeGroup) Valid() bool {
	return a == AgeToddler || a == AgePreschool
}

// SegmentParagraph and SegmentPause are the two body segment kinds. Pause
// segments mark the dialogic break points and carry no narration text.
const (
	SegmentParagraph = "p"
	SegmentPause     = "pause"
)

type BodySegment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DialogicPrompt is a caregiver question shown at a pause point.
type DialogicPrompt struct {
	PausePoint int    `json:"pausePoint"`
	Question   string `json:"question"`
	Context    string `json:"context"`
}

type Story struct {
	ID              string           `db:"id"`
	UserID          string           `db:"user_id"`
	ProfileID       string           `db:"profile_id"`
	ChildName       string           `db:"child_name"`
	Title           string           `db:"title"`
	Mood            StoryMood        `db:"mood"`
	AgeGroup        AgeGroup         `db:"age_group"`
	Minutes         int              `db:"minutes"`
	Excerpt         string           `db:"excerpt"`
	Body            []BodySegment    `db:"body"`
	DialogicPrompts []DialogicPrompt `db:"dialogic_prompts"`
	AudioURL        string           `db:"audio_url"`
	ShareToken      string           `db:"share_token"`
	CreatedAt       time.Time        `db:"created_at"`
}

// NarrationText builds the text read aloud: the title followed by every
// paragraph segment in order, joined with blank lines. Pause segments are
// skipped.
func (s Story) NarrationText() string {
	parts := make([]string, 0, len(s.Body)+1)
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	for _, seg := range s.Body {
		if seg.Type != SegmentParagraph {
			continue
		}
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
