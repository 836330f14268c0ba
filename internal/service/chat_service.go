package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/streak"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConversationOwner = errors.New("conversation belongs to another user")
	ErrEmptyMessage         = errors.New("message content is empty")
)

// historyWindow is how many prior messages are sent to the LLM as context.
const historyWindow = 20

// summaryEvery is how many messages accumulate between rolling-summary
// refreshes.
const summaryEvery = 20

// companionChatter is the slice of LLMClient the chat service needs.
type companionChatter interface {
	Chat(ctx context.Context, messages []ChatMessage, opts LLMCallOptions) (*LLMCallResult, error)
	ClassifySentiment(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, messages []ChatMessage) (string, error)
}

// SendReply is the outcome of sending one chat message.
type SendReply struct {
	Conversation *models.Conversation
	UserMessage  *models.Message
	Reply        *models.Message
	Usage        *ConsumeResult
	Streak       streak.Result
}

// ChatService handles companion conversations. Every user message is
// metered before the LLM is called; a denied increment means no tokens are
// spent and nothing is persisted.
type ChatService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	usage         *UsageService
	streaks       *StreakService
	llm           companionChatter
	logger        *slog.Logger
	now           func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(repos *repository.Repositories, usageSvc *UsageService, streakSvc *StreakService, llm companionChatter, logger *slog.Logger) *ChatService {
	return &ChatService{
		conversations: repos.Conversation,
		messages:      repos.Message,
		users:         repos.User,
		usage:         usageSvc,
		streaks:       streakSvc,
		llm:           llm,
		logger:        logger,
		now:           time.Now,
	}
}

// SendMessage meters, persists, and answers one user message. An empty
// conversationID starts a new thread. eventID makes client retries safe.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID, content, eventID string) (*SendReply, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}

	// Gate on the message cap before doing anything else.
	usageResult, err := s.usage.Consume(ctx, userID, usage.ResourceMessages, 1, eventID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	conv, err := s.resolveConversation(ctx, userID, conversationID, content, now)
	if err != nil {
		return nil, err
	}

	// A replayed event ID means this is a retry after a failed reply: the
	// user's message row already landed, so reuse it rather than write a
	// twin into the thread.
	var userMsg *models.Message
	if usageResult.AlreadyApplied {
		if recent, err := s.messages.ListRecentByConversationID(ctx, conv.ID, 1); err == nil &&
			len(recent) == 1 && recent[0].Role == models.RoleUser && recent[0].Content == content {
			userMsg = recent[0]
		}
	}
	if userMsg == nil {
		sentiment := ""
		if tag, err := s.llm.ClassifySentiment(ctx, content); err != nil {
			s.logger.Debug("sentiment classification failed", "error", err)
		} else {
			sentiment = tag
		}

		userMsg = &models.Message{
			ID:             ulid.Make().String(),
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           models.RoleUser,
			Content:        content,
			Sentiment:      sentiment,
			CreatedAt:      now,
		}
		if err := s.messages.Create(ctx, userMsg); err != nil {
			return nil, err
		}
		if err := s.conversations.RecordMessage(ctx, conv.ID, now); err != nil {
			return nil, err
		}
	}

	reply, err := s.companionReply(ctx, userID, conv, content)
	if err != nil {
		// The user's message is kept; the companion just failed to answer.
		s.logger.Error("companion reply failed", "conversation_id", conv.ID, "error", err)
		return nil, fmt.Errorf("companion reply failed: %w", err)
	}

	replyAt := s.now().UTC()
	replyMsg := &models.Message{
		ID:             ulid.Make().String(),
		ConversationID: conv.ID,
		UserID:         userID,
		Role:           models.RoleCompanion,
		Content:        reply,
		CreatedAt:      replyAt,
	}
	if err := s.messages.Create(ctx, replyMsg); err != nil {
		return nil, err
	}
	if err := s.conversations.RecordMessage(ctx, conv.ID, replyAt); err != nil {
		return nil, err
	}

	s.maybeSummarize(ctx, conv)

	streakResult, err := s.streaks.RecordActivity(ctx, userID, streak.ActivityChat)
	if err != nil {
		// Streak bookkeeping never fails the chat itself.
		s.logger.Error("failed to record chat streak", "user_id", userID, "error", err)
	}

	return &SendReply{
		Conversation: conv,
		UserMessage:  userMsg,
		Reply:        replyMsg,
		Usage:        usageResult,
		Streak:       streakResult,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, userID, conversationID, firstMessage string, now time.Time) (*models.Conversation, error) {
	if conversationID == "" {
		conv := &models.Conversation{
			ID:        ulid.Make().String(),
			UserID:    userID,
			Title:     truncate(firstMessage, 60),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, err
		}
		return conv, nil
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	return conv, nil
}

func (s *ChatService) companionReply(ctx context.Context, userID string, conv *models.Conversation, latest string) (string, error) {
	history, err := s.messages.ListRecentByConversationID(ctx, conv.ID, historyWindow)
	if err != nil {
		return "", err
	}

	companionName := "your companion"
	if user, err := s.users.GetByID(ctx, userID); err == nil && user != nil && user.CompanionName != "" {
		companionName = user.CompanionName
	}

	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{
		Role: "system",
		Content: fmt.Sprintf(
			"You are %s, a warm and attentive companion. Be supportive and conversational, remember details the user shares, and keep replies concise.",
			companionName,
		),
	})
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleCompanion {
			role = "assistant"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}
	// History may not yet include the message we just wrote.
	if len(history) == 0 || history[len(history)-1].Content != latest {
		msgs = append(msgs, ChatMessage{Role: "user", Content: latest})
	}

	result, err := s.llm.Chat(ctx, msgs, LLMCallOptions{})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// maybeSummarize refreshes the conversation's rolling summary once per
// summaryEvery messages. Summary failures never affect the chat.
func (s *ChatService) maybeSummarize(ctx context.Context, conv *models.Conversation) {
	fresh, err := s.conversations.GetByID(ctx, conv.ID)
	if err != nil || fresh == nil {
		return
	}
	if fresh.MessageCount == 0 || fresh.MessageCount%summaryEvery != 0 {
		return
	}

	history, err := s.messages.ListRecentByConversationID(ctx, conv.ID, historyWindow)
	if err != nil {
		return
	}
	msgs := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleCompanion {
			role = "assistant"
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}

	summary, err := s.llm.Summarize(ctx, msgs)
	if err != nil {
		s.logger.Debug("conversation summary failed", "conversation_id", conv.ID, "error", err)
		return
	}
	fresh.Summary = summary
	fresh.UpdatedAt = s.now().UTC()
	if err := s.conversations.Update(ctx, fresh); err != nil {
		s.logger.Debug("failed to store conversation summary", "conversation_id", conv.ID, "error", err)
	}
}

// ListConversations returns the user's threads, most recently active first.
func (s *ChatService) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, error) {
	return s.conversations.ListByUserID(ctx, userID, limit, offset)
}

// GetMessages returns a page of messages from a conversation the user owns.
func (s *ChatService) GetMessages(ctx context.Context, userID, conversationID string, limit, offset int) ([]*models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	return s.messages.ListByConversationID(ctx, conversationID, limit, offset)
}

// DeleteConversation removes a thread and its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if conv.UserID != userID {
		return ErrNotConversationOwner
	}
	if err := s.messages.DeleteByConversationID(ctx, conversationID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}
