package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"

	openai "github.com/sashabaranov/go-openai"
)

// StoryPrompt is the validated input to story generation.
type StoryPrompt struct {
	ChildName string
	AgeGroup  models.AgeGroup
	Mood      models.StoryMood
	Theme     string
	Context   string
}

// GeneratedStory is the model's draft before it gets an id and owner.
type GeneratedStory struct {
	Title           string                  `json:"title"`
	Minutes         int                     `json:"minutes"`
	Excerpt         string                  `json:"excerpt"`
	Body            []models.BodySegment    `json:"body"`
	DialogicPrompts []models.DialogicPrompt `json:"dialogicPrompts"`
}

// OpenAIGenerator produces stories via chat completion with a JSON response
// contract. The reply is parsed strictly; anything malformed is a provider
// error, not a stored story.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const storySystemPrompt = `Je bent een verteller van Nederlandse bedtijdverhalen voor jonge kinderen.
Antwoord uitsluitend met een JSON-object met de velden:
"title" (string), "minutes" (number), "excerpt" (string),
"body" (array van {"type":"p"|"pause","text":string}),
"dialogicPrompts" (array van {"pausePoint":number,"question":string,"context":string}).
Elke "pause" markeert een rustmoment waar een dialogic prompt bij hoort.`

func (g *OpenAIGenerator) GenerateStory(ctx context.Context, prompt StoryPrompt) (GeneratedStory, error) {
	user := fmt.Sprintf(
		"Schrijf een %s verhaal voor %s (leeftijd %s). Thema: %s.",
		strings.ToLower(string(prompt.Mood)), prompt.ChildName, prompt.AgeGroup, prompt.Theme,
	)
	if prompt.Context != "" {
		user += " Context van de ouder: " + prompt.Context
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: storySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return GeneratedStory{}, ProviderError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return GeneratedStory{}, ProviderError{Provider: "openai", Err: fmt.Errorf("empty completion")}
	}

	var story GeneratedStory
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &story); err != nil {
		return GeneratedStory{}, ProviderError{Provider: "openai", Err: fmt.Errorf("malformed story json: %w", err)}
	}
	if story.Title == "" || len(story.Body) == 0 {
		return GeneratedStory{}, ProviderError{Provider: "openai", Err: fmt.Errorf("story missing title or body")}
	}
	return story, nil
}
