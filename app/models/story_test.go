package models

import "testing"

func TestNarrationText(t *testing.T) {
	cases := []struct {
		name  string
		story Story
		want  string
	}{
		{
			name: "title plus paragraphs, pauses skipped",
			story: Story{
				Title: "De maanvis",
				Body: []BodySegment{
					{Type: SegmentParagraph, Text: "Diep in de zee woonde een maanvis."},
					{Type: SegmentPause, Text: ""},
					{Type: SegmentParagraph, Text: "Hij droomde van de sterren."},
				},
			},
			want: "De maanvis\n\nDiep in de zee woonde een maanvis.\n\nHij droomde van de sterren.",
		},
		{
			name: "whitespace-only paragraphs dropped",
			story: Story{
				Title: "Titel",
				Body: []BodySegment{
					{Type: SegmentParagraph, Text: "   "},
					{Type: SegmentParagraph, Text: " Echt verhaal. "},
				},
			},
			want: "Titel\n\nEcht verhaal.",
		},
		{
			name: "no title",
			story: Story{
				Body: []BodySegment{
					{Type: SegmentParagraph, Text: "Alleen tekst."},
				},
			},
			want: "Alleen tekst.",
		},
		{
			name:  "empty story",
			story: Story{},
			want:  "",
		},
		{
			name: "only pauses",
			story: Story{
				Title: "",
				Body: []BodySegment{
					{Type: SegmentPause, Text: "niet voorlezen"},
				},
			},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.story.NarrationText(); got != tc.want {
				t.Fatalf("NarrationText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidators(t *testing.T) {
	for _, m := range []StoryMood{MoodRustig, MoodGrappig, MoodDapper, MoodTroost} {
		if !m.Valid() {
			t.Fatalf("mood %q should be valid", m)
		}
	}
	if StoryMood("Boos").Valid() {
		t.Fatalf("unknown mood should be invalid")
	}

	for _, a := range []AgeGroup{AgeToddler, AgePreschool} {
		if !a.Valid() {
			t.Fatalf("age group %q should be valid", a)
		}
	}
	if AgeGroup("8-12").Valid() {
		t.Fatalf("unknown age group should be invalid")
	}
}

func TestPremiumEquivalent(t *testing.T) {
	premium := []SubscriptionStatus{StatusPremium, StatusTrialing, StatusAdmin}
	for _, s := range premium {
		if !s.PremiumEquivalent() {
			t.Fatalf("%q should bypass metering", s)
		}
	}
	metered := []SubscriptionStatus{StatusFree, StatusCanceled, StatusPastDue, ""}
	for _, s := range metered {
		if s.PremiumEquivalent() {
			t.Fatalf("%q should be metered", s)
		}
	}
}
