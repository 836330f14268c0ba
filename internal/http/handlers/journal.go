package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// JournalHandler handles journal endpoints.
type JournalHandler struct {
	journalSvc *service.JournalService
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(journalSvc *service.JournalService) *JournalHandler {
	return &JournalHandler{journalSvc: journalSvc}
}

// WriteJournalInput represents a journal write request.
type WriteJournalInput struct {
	Body struct {
		EntryDate string `json:"entryDate" doc:"Entry date as YYYY-MM-DD"`
		Body      string `json:"body" minLength:"1" maxLength:"50000" doc:"Entry text, encrypted at rest"`
	}
}

// WriteJournalOutput represents the saved entry with its streak effect.
type WriteJournalOutput struct {
	Body struct {
		Entry     *models.JournalEntry `json:"entry"`
		Streak    int                  `json:"streak"`
		Milestone int                  `json:"milestone,omitempty"`
	}
}

// WriteJournal creates or replaces the entry for a date. Writing today's
// entry advances the journal streak; backfilled dates do not.
func (h *JournalHandler) WriteJournal(ctx context.Context, input *WriteJournalInput) (*WriteJournalOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.journalSvc.Write(ctx, userID, input.Body.EntryDate, input.Body.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyJournal):
			return nil, huma.Error422UnprocessableEntity("journal entry body is empty")
		case errors.Is(err, service.ErrBadEntryDate):
			return nil, huma.Error422UnprocessableEntity("entry date must be YYYY-MM-DD")
		default:
			return nil, huma.Error500InternalServerError("failed to save journal entry")
		}
	}

	out := &WriteJournalOutput{}
	out.Body.Entry = result.Entry
	out.Body.Streak = result.Streak.Streak
	out.Body.Milestone = result.Streak.Milestone
	return out, nil
}

// GetJournalInput represents a journal read request.
type GetJournalInput struct {
	Date string `path:"date" doc:"Entry date as YYYY-MM-DD"`
}

// GetJournalOutput represents a single decrypted entry.
type GetJournalOutput struct {
	Body struct {
		Entry *models.JournalEntry `json:"entry"`
	}
}

// GetJournal returns the decrypted entry for a date.
func (h *JournalHandler) GetJournal(ctx context.Context, input *GetJournalInput) (*GetJournalOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	entry, err := h.journalSvc.Get(ctx, userID, input.Date)
	if err != nil {
		if errors.Is(err, service.ErrJournalNotFound) {
			return nil, huma.Error404NotFound("journal entry not found")
		}
		return nil, huma.Error500InternalServerError("failed to get journal entry")
	}

	out := &GetJournalOutput{}
	out.Body.Entry = entry
	return out, nil
}

// ListJournalInput represents a journal list request.
type ListJournalInput struct {
	Limit  int `query:"limit" default:"30" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListJournalOutput represents the journal list response.
type ListJournalOutput struct {
	Body struct {
		Entries []*models.JournalEntry `json:"entries"`
	}
}

// ListJournal returns decrypted entries, newest first.
func (h *JournalHandler) ListJournal(ctx context.Context, input *ListJournalInput) (*ListJournalOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	entries, err := h.journalSvc.List(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list journal entries")
	}
	if entries == nil {
		entries = []*models.JournalEntry{}
	}

	out := &ListJournalOutput{}
	out.Body.Entries = entries
	return out, nil
}

// DeleteJournalInput represents a journal delete request.
type DeleteJournalInput struct {
	Date string `path:"date" doc:"Entry date as YYYY-MM-DD"`
}

// DeleteJournalOutput represents the delete response.
type DeleteJournalOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteJournal removes the entry for a date.
func (h *JournalHandler) DeleteJournal(ctx context.Context, input *DeleteJournalInput) (*DeleteJournalOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.journalSvc.Delete(ctx, userID, input.Date); err != nil {
		if errors.Is(err, service.ErrJournalNotFound) {
			return nil, huma.Error404NotFound("journal entry not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete journal entry")
	}

	out := &DeleteJournalOutput{}
	out.Body.Deleted = true
	return out, nil
}
