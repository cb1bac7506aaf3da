package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	elevenModelID      = "eleven_multilingual_v2"
	elevenOutputFormat = "mp3_44100_128"
)

// Voice settings tuned for calm bedtime narration.
var elevenVoiceSettings = map[string]any{
	"stability":         0.65,
	"similarity_boost":  0.75,
	"style":             0.10,
	"use_speaker_boost": true,
}

// ElevenLabsClient calls the ElevenLabs HTTP API directly.
type ElevenLabsClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewElevenLabsClient(apiKey, baseURL string) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 90 * time.Second},
	}
}

// Synthesize converts text to speech with the given voice and returns the
// mp3 payload.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ConfigurationError{Missing: "ELEVENLABS_API_KEY"}
	}
	if voiceID == "" {
		return nil, ConfigurationError{Missing: "voice id"}
	}

	payload, err := json.Marshal(map[string]any{
		"text":           text,
		"model_id":       elevenModelID,
		"voice_settings": elevenVoiceSettings,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", c.baseURL, voiceID, elevenOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, ProviderError{Provider: "elevenlabs", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, ProviderError{
			Provider: "elevenlabs",
			Status:   res.StatusCode,
			Err:      fmt.Errorf("%s", body),
		}
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ProviderError{Provider: "elevenlabs", Err: err}
	}
	if len(audio) == 0 {
		return nil, ProviderError{Provider: "elevenlabs", Err: fmt.Errorf("empty audio payload")}
	}
	return audio, nil
}

// CloneVoice uploads a voice sample and returns the new voice id.
func (c *ElevenLabsClient) CloneVoice(ctx context.Context, name string, sample io.Reader, filename string) (string, error) {
	if c.apiKey == "" {
		return "", ConfigurationError{Missing: "ELEVENLABS_API_KEY"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", name); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/voices/add", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.httpc.Do(req)
	if err != nil {
		return "", ProviderError{Provider: "elevenlabs", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", ProviderError{
			Provider: "elevenlabs",
			Status:   res.StatusCode,
			Err:      fmt.Errorf("%s", body),
		}
	}

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", ProviderError{Provider: "elevenlabs", Err: err}
	}
	if out.VoiceID == "" {
		return "", ProviderError{Provider: "elevenlabs", Err: fmt.Errorf("missing voice_id in response")}
	}
	return out.VoiceID, nil
}
