package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/service"
)

// MusicHandler handles companion music suggestion endpoints.
type MusicHandler struct {
	musicSvc *service.MusicService
}

// NewMusicHandler creates a new music handler.
func NewMusicHandler(musicSvc *service.MusicService) *MusicHandler {
	return &MusicHandler{musicSvc: musicSvc}
}

// MusicSuggestionsInput represents a music suggestion request.
type MusicSuggestionsInput struct {
	Mood  string `query:"mood" minLength:"1" maxLength:"120" doc:"Mood or search phrase, e.g. \"calm evening\""`
	Limit int    `query:"limit" default:"10" minimum:"1" maximum:"20" doc:"Number of suggestions"`
}

// MusicSuggestionsOutput represents the suggested tracks.
type MusicSuggestionsOutput struct {
	Body struct {
		Tracks []*service.Track `json:"tracks"`
	}
}

// GetSuggestions returns tracks matching the user's mood.
func (h *MusicHandler) GetSuggestions(ctx context.Context, input *MusicSuggestionsInput) (*MusicSuggestionsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	tracks, err := h.musicSvc.Search(ctx, input.Mood, input.Limit)
	if err != nil {
		if errors.Is(err, service.ErrMusicNotConfigured) {
			return nil, huma.Error503ServiceUnavailable("music suggestions are not configured")
		}
		return nil, huma.Error500InternalServerError("failed to get music suggestions")
	}

	out := &MusicSuggestionsOutput{}
	out.Body.Tracks = tracks
	return out, nil
}
