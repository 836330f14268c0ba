package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var ErrMusicNotConfigured = errors.New("music suggestions are not configured")

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyAPIURL   = "https://api.spotify.com/v1"
)

// Track is one music suggestion.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	URL      string `json:"url"`
}

// MusicService suggests music via the Spotify Web API using the
// client-credentials flow. Tokens are cached until shortly before expiry.
type MusicService struct {
	clientID     string
	clientSecret string
	client       *http.Client
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewMusicService creates a new music service.
func NewMusicService(clientID, clientSecret string, logger *slog.Logger) *MusicService {
	return &MusicService{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
		now:          time.Now,
	}
}

// Enabled reports whether Spotify credentials are configured.
func (s *MusicService) Enabled() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// Search returns up to limit track suggestions matching the query. Used by
// the companion to suggest music matching the user's mood.
func (s *MusicService) Search(ctx context.Context, query string, limit int) ([]*Track, error) {
	if !s.Enabled() {
		return nil, ErrMusicNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Track{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}

	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyAPIURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify API returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Tracks struct {
			Items []struct {
				ID      string `json:"id"`
				Name    string `json:"name"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
				Album struct {
					Name   string `json:"name"`
					Images []struct {
						URL string `json:"url"`
					} `json:"images"`
				} `json:"album"`
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse spotify response: %w", err)
	}

	tracks := make([]*Track, 0, len(parsed.Tracks.Items))
	for _, item := range parsed.Tracks.Items {
		artist := ""
		if len(item.Artists) > 0 {
			artist = item.Artists[0].Name
		}
		imageURL := ""
		if len(item.Album.Images) > 0 {
			imageURL = item.Album.Images[0].URL
		}
		tracks = append(tracks, &Track{
			ID:       item.ID,
			Title:    item.Name,
			Artist:   artist,
			Album:    item.Album.Name,
			ImageURL: imageURL,
			URL:      item.ExternalURLs.Spotify,
		})
	}
	return tracks, nil
}

// token returns a valid client-credentials access token, refreshing when
// the cached one is within a minute of expiry.
func (s *MusicService) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && s.now().Before(s.tokenExpiry.Add(-time.Minute)) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spotifyTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token endpoint returned status %d", resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("spotify token response missing access_token")
	}

	s.accessToken = parsed.AccessToken
	s.tokenExpiry = s.now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return s.accessToken, nil
}
