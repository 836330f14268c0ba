package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// ErrSpeechNotConfigured is returned when no speech backend is set up.
var ErrSpeechNotConfigured = errors.New("speech service not configured")

// SpeechClient calls the external speech service for transcription
// (speech-to-text) and synthesis (text-to-speech).
type SpeechClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewSpeechClient creates a new speech client.
func NewSpeechClient(apiKey, baseURL string, logger *slog.Logger) *SpeechClient {
	return &SpeechClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

// Enabled reports whether the speech backend is configured.
func (c *SpeechClient) Enabled() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// Transcribe converts audio to text.
func (c *SpeechClient) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if !c.Enabled() {
		return "", ErrSpeechNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "audio")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech API returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}
	return parsed.Text, nil
}

// Synthesize converts text to audio. Returns the audio bytes and their
// content type.
func (c *SpeechClient) Synthesize(ctx context.Context, text, voice string) ([]byte, string, error) {
	if !c.Enabled() {
		return nil, "", ErrSpeechNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"input": text,
		"voice": voice,
	})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("synthesis request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("speech API returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}
