package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/service"
)

// ChatHandler handles companion chat endpoints.
type ChatHandler struct {
	chatSvc *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// SendMessageInput represents a chat message send request.
type SendMessageInput struct {
	Body struct {
		ConversationID string `json:"conversationId,omitempty" doc:"Existing thread; empty starts a new one"`
		Content        string `json:"content" minLength:"1" maxLength:"8000" doc:"Message text"`
		EventID        string `json:"eventId,omitempty" maxLength:"128" doc:"Idempotency key for safe retries"`
	}
}

// SendMessageOutput represents the companion's reply.
type SendMessageOutput struct {
	Body struct {
		Conversation *models.Conversation `json:"conversation"`
		UserMessage  *models.Message      `json:"userMessage"`
		Reply        *models.Message      `json:"reply"`
		Usage        MessageUsageBody     `json:"usage"`
		Streak       int                  `json:"streak"`
		Milestone    int                  `json:"milestone,omitempty"`
	}
}

// SendMessage sends one user message and returns the companion's reply.
// The message cap is checked before any tokens are spent; a denied send
// returns 403 with the counter state and persists nothing.
func (h *ChatHandler) SendMessage(ctx context.Context, input *SendMessageInput) (*SendMessageOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reply, err := h.chatSvc.SendMessage(ctx, userID, input.Body.ConversationID, input.Body.Content, input.Body.EventID)
	if err != nil {
		var le *service.LimitError
		switch {
		case errors.As(err, &le):
			return nil, limitError(le)
		case errors.Is(err, service.ErrEmptyMessage):
			return nil, huma.Error422UnprocessableEntity("message content is empty")
		case errors.Is(err, service.ErrConversationNotFound):
			return nil, huma.Error404NotFound("conversation not found")
		case errors.Is(err, service.ErrNotConversationOwner):
			return nil, huma.Error403Forbidden("conversation belongs to another user")
		default:
			return nil, huma.Error500InternalServerError("failed to send message")
		}
	}

	out := &SendMessageOutput{}
	out.Body.Conversation = reply.Conversation
	out.Body.UserMessage = reply.UserMessage
	out.Body.Reply = reply.Reply
	out.Body.Usage = messageUsageBody(reply.Usage)
	out.Body.Streak = reply.Streak.Streak
	out.Body.Milestone = reply.Streak.Milestone
	return out, nil
}

// ListConversationsInput represents a conversation list request.
type ListConversationsInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListConversationsOutput represents the conversation list response.
type ListConversationsOutput struct {
	Body struct {
		Conversations []*models.Conversation `json:"conversations"`
	}
}

// ListConversations returns the user's threads, most recently active first.
func (h *ChatHandler) ListConversations(ctx context.Context, input *ListConversationsInput) (*ListConversationsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	conversations, err := h.chatSvc.ListConversations(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list conversations")
	}
	if conversations == nil {
		conversations = []*models.Conversation{}
	}

	out := &ListConversationsOutput{}
	out.Body.Conversations = conversations
	return out, nil
}

// GetMessagesInput represents a message page request.
type GetMessagesInput struct {
	ID     string `path:"id" doc:"Conversation ID"`
	Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Page size"`
	Offset int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// GetMessagesOutput represents the message page response.
type GetMessagesOutput struct {
	Body struct {
		Messages []*models.Message `json:"messages"`
	}
}

// GetMessages returns a page of messages from a conversation the user owns.
func (h *ChatHandler) GetMessages(ctx context.Context, input *GetMessagesInput) (*GetMessagesOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	messages, err := h.chatSvc.GetMessages(ctx, userID, input.ID, input.Limit, input.Offset)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			return nil, huma.Error404NotFound("conversation not found")
		case errors.Is(err, service.ErrNotConversationOwner):
			return nil, huma.Error403Forbidden("conversation belongs to another user")
		default:
			return nil, huma.Error500InternalServerError("failed to get messages")
		}
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	out := &GetMessagesOutput{}
	out.Body.Messages = messages
	return out, nil
}

// DeleteConversationInput represents a conversation delete request.
type DeleteConversationInput struct {
	ID string `path:"id" doc:"Conversation ID"`
}

// DeleteConversationOutput represents the delete response.
type DeleteConversationOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteConversation removes a thread and its messages.
func (h *ChatHandler) DeleteConversation(ctx context.Context, input *DeleteConversationInput) (*DeleteConversationOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.chatSvc.DeleteConversation(ctx, userID, input.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			return nil, huma.Error404NotFound("conversation not found")
		case errors.Is(err, service.ErrNotConversationOwner):
			return nil, huma.Error403Forbidden("conversation belongs to another user")
		default:
			return nil, huma.Error500InternalServerError("failed to delete conversation")
		}
	}

	out := &DeleteConversationOutput{}
	out.Body.Deleted = true
	return out, nil
}
