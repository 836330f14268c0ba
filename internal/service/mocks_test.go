package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/kindred-api/internal/models"
	"github.com/jmylchreest/kindred-api/internal/repository"
	"github.com/jmylchreest/kindred-api/internal/streak"
	"github.com/jmylchreest/kindred-api/internal/usage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockUserRepository implements repository.UserRepository for testing
type mockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*models.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ReferralCode == code && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.DeletedAt = &deletedAt
	}
	return nil
}

func (m *mockUserRepository) SetPlanOverride(ctx context.Context, id string, plan models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.PlanOverride = plan
	}
	return nil
}

func (m *mockUserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsAdmin = isAdmin
	}
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// mockSubscriptionRepository implements repository.SubscriptionRepository for testing
type mockSubscriptionRepository struct {
	mu   sync.RWMutex
	subs map[string]*models.Subscription // keyed by stripe subscription ID
}

func newMockSubscriptionRepository() *mockSubscriptionRepository {
	return &mockSubscriptionRepository{subs: make(map[string]*models.Subscription)}
}

func (m *mockSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.StripeSubscriptionID] = &cp
	return nil
}

func (m *mockSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *models.Subscription
	for _, s := range m.subs {
		if s.UserID != userID || !s.Status.Entitled() {
			continue
		}
		if newest == nil || s.CurrentPeriodEnd.After(newest.CurrentPeriodEnd) {
			cp := *s
			newest = &cp
		}
	}
	return newest, nil
}

func (m *mockSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.subs[stripeSubID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.StripeCustomerID == customerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) UpdateStatus(ctx context.Context, stripeSubID string, status models.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[stripeSubID]; ok {
		s.Status = status
	}
	return nil
}

// mockUsageRepository implements repository.UsageRepository for testing
type mockUsageRepository struct {
	mu       sync.Mutex
	counters map[string]usage.Units
	events   map[string]*repository.UsageEvent

	// consumeEventErr, when set, fails the next ConsumeEvent without
	// recording anything, mimicking a transaction rollback.
	consumeEventErr error
}

func newMockUsageRepository() *mockUsageRepository {
	return &mockUsageRepository{
		counters: make(map[string]usage.Units),
		events:   make(map[string]*repository.UsageEvent),
	}
}

func counterKey(userID string, resource usage.Resource, period string) string {
	return userID + "|" + string(resource) + "|" + period
}

func (m *mockUsageRepository) Get(ctx context.Context, userID string, resource usage.Resource, period string) (usage.Units, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[counterKey(userID, resource, period)], nil
}

func (m *mockUsageRepository) GetAll(ctx context.Context, userID, period string) (map[usage.Resource]usage.Units, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[usage.Resource]usage.Units)
	for _, r := range []usage.Resource{usage.ResourceMessages, usage.ResourceVoiceMinutes, usage.ResourceVoiceSessions} {
		if v, ok := m.counters[counterKey(userID, r, period)]; ok {
			out[r] = v
		}
	}
	return out, nil
}

func (m *mockUsageRepository) Increment(ctx context.Context, userID string, resource usage.Resource, period string, delta usage.Units) (usage.Units, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := counterKey(userID, resource, period)
	m.counters[key] += delta
	return m.counters[key], nil
}

func eventKey(userID, eventID, period string) string {
	return userID + "|" + eventID + "|" + period
}

func (m *mockUsageRepository) ConsumeEvent(ctx context.Context, event *repository.UsageEvent) (usage.Units, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeEventErr != nil {
		err := m.consumeEventErr
		m.consumeEventErr = nil
		return 0, false, err
	}
	ck := counterKey(event.UserID, event.Resource, event.Period)
	ek := eventKey(event.UserID, event.EventID, event.Period)
	if _, ok := m.events[ek]; ok {
		return m.counters[ck], false, nil
	}
	cp := *event
	m.events[ek] = &cp
	m.counters[ck] += event.Amount
	return m.counters[ck], true, nil
}

func (m *mockUsageRepository) GetEvent(ctx context.Context, userID, eventID, period string) (*repository.UsageEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.events[eventKey(userID, eventID, period)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUsageRepository) Reset(ctx context.Context, userID string, resource usage.Resource, period string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, counterKey(userID, resource, period))
	return nil
}

func (m *mockUsageRepository) DeletePeriodsBefore(ctx context.Context, cutoff string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for key := range m.counters {
		// key format: user|resource|period
		period := key[len(key)-7:]
		if period < cutoff {
			delete(m.counters, key)
			removed++
		}
	}
	return removed, nil
}

// mockStreakRepository implements repository.StreakRepository for testing
type mockStreakRepository struct {
	mu      sync.Mutex
	records map[string]*streak.Record
}

func newMockStreakRepository() *mockStreakRepository {
	return &mockStreakRepository{records: make(map[string]*streak.Record)}
}

func (m *mockStreakRepository) Get(ctx context.Context, userID string, activity streak.Activity) (*streak.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[userID+"|"+string(activity)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStreakRepository) GetAll(ctx context.Context, userID string) ([]*streak.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*streak.Record
	for _, r := range m.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStreakRepository) Upsert(ctx context.Context, rec *streak.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.UserID+"|"+string(rec.Activity)] = &cp
	return nil
}

// mockConversationRepository implements repository.ConversationRepository for testing
type mockConversationRepository struct {
	mu    sync.Mutex
	convs map[string]*models.Conversation
}

func newMockConversationRepository() *mockConversationRepository {
	return &mockConversationRepository{convs: make(map[string]*models.Conversation)}
}

func (m *mockConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *conv
	m.convs[conv.ID] = &cp
	return nil
}

func (m *mockConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *mockConversationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Conversation
	for _, c := range m.convs {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockConversationRepository) Update(ctx context.Context, conv *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *conv
	m.convs[conv.ID] = &cp
	return nil
}

func (m *mockConversationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
	return nil
}

func (m *mockConversationRepository) RecordMessage(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[id]; ok {
		c.MessageCount++
		c.LastMessageAt = &at
		c.UpdatedAt = at
	}
	return nil
}

// mockMessageRepository implements repository.MessageRepository for testing
type mockMessageRepository struct {
	mu       sync.Mutex
	messages []*models.Message
}

func newMockMessageRepository() *mockMessageRepository {
	return &mockMessageRepository{}
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *mockMessageRepository) ListByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockMessageRepository) ListRecentByConversationID(ctx context.Context, conversationID string, limit int) ([]*models.Message, error) {
	all, _ := m.ListByConversationID(ctx, conversationID, 0, 0)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *mockMessageRepository) DeleteByConversationID(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.Message
	for _, msg := range m.messages {
		if msg.ConversationID != conversationID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

// mockChatter implements companionChatter for testing
type mockChatter struct {
	reply     string
	sentiment string
	chatErr   error
	calls     int
}

func (m *mockChatter) Chat(ctx context.Context, messages []ChatMessage, opts LLMCallOptions) (*LLMCallResult, error) {
	m.calls++
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return &LLMCallResult{Content: m.reply}, nil
}

func (m *mockChatter) ClassifySentiment(ctx context.Context, text string) (string, error) {
	if m.sentiment == "" {
		return "neutral", nil
	}
	return m.sentiment, nil
}

func (m *mockChatter) Summarize(ctx context.Context, messages []ChatMessage) (string, error) {
	return "summary", nil
}

// staticResolver implements planResolver with a fixed entitlement.
type staticResolver struct {
	ent Entitlement
}

func (r staticResolver) Resolve(ctx context.Context, userID string) (Entitlement, error) {
	return r.ent, nil
}
