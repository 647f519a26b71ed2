package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wayfarer/internal/journal"
	"wayfarer/internal/models"
	"wayfarer/internal/providers"
)

type ChatServiceInterface interface {
	// RecordTurn stores one exchange: session history and digest in
	// memory, the journal durably. Missing timestamp and session id are
	// filled in. The returned turn is what was stored.
	RecordTurn(ctx context.Context, userID string, turn models.ConversationTurn) (models.ConversationTurn, error)
	SessionMessages(userID, sessionID string, limit int) []models.ChatMessage
	SessionInfo(userID, sessionID string) (models.SessionInfo, bool)
	UserSessions(userID string) []string
	SessionDigest(userID, sessionID string) string
	ClearSession(userID, sessionID string) bool
	DeleteSession(userID, sessionID string) bool
	ActiveSessions() int
}

type ChatService struct {
	sessions   *models.SessionStore
	digests    *models.DigestStore
	aggregator journal.AggregatorInterface
	profile    ProfileServiceInterface
	logger     providers.Logger
}

func NewChatService(
	sessions *models.SessionStore,
	digests *models.DigestStore,
	aggregator journal.AggregatorInterface,
	profile ProfileServiceInterface,
	logger providers.Logger,
) ChatServiceInterface {
	return &ChatService{
		sessions:   sessions,
		digests:    digests,
		aggregator: aggregator,
		profile:    profile,
		logger:     logger,
	}
}

func (c *ChatService) RecordTurn(ctx context.Context, userID string, turn models.ConversationTurn) (models.ConversationTurn, error) {
	if userID == "" {
		return models.ConversationTurn{}, fmt.Errorf("user id is required")
	}
	if turn.Message == "" && turn.Response == "" {
		return models.ConversationTurn{}, fmt.Errorf("conversation turn is empty")
	}
	if turn.Timestamp == "" {
		turn.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if turn.SessionID == "" {
		turn.SessionID = uuid.NewString()
	}

	if turn.Message != "" {
		c.sessions.AppendMessage(userID, turn.SessionID, models.ChatMessage{
			Role:      models.RoleUser,
			Content:   turn.Message,
			Timestamp: turn.Timestamp,
		})
	}
	if turn.Response != "" {
		c.sessions.AppendMessage(userID, turn.SessionID, models.ChatMessage{
			Role:      models.RoleAssistant,
			Content:   turn.Response,
			Timestamp: turn.Timestamp,
		})
	}

	c.digests.UpdateDigest(userID, turn.SessionID, turn)
	if turn.Summary == "" {
		if digest := c.digests.GetDigest(userID, turn.SessionID); digest != models.NoDigestSentinel {
			turn.Summary = digest
		}
	}

	if err := c.aggregator.SaveConversationEntry(ctx, userID, turn); err != nil {
		return models.ConversationTurn{}, err
	}

	// A visited place is a nice-to-have on top of the recorded turn, so
	// a profile write failure must not fail the request.
	if turn.LocationName != "" {
		if err := c.profile.RecordVisit(ctx, userID, turn.LocationName); err != nil {
			c.logger.Warnf(providers.TypePost, "Failed to record visit to %s for user %s: %s", turn.LocationName, userID, err)
		}
	}

	return turn, nil
}

func (c *ChatService) SessionMessages(userID, sessionID string, limit int) []models.ChatMessage {
	return c.sessions.Messages(userID, sessionID, limit)
}

func (c *ChatService) SessionInfo(userID, sessionID string) (models.SessionInfo, bool) {
	return c.sessions.Info(userID, sessionID)
}

func (c *ChatService) UserSessions(userID string) []string {
	return c.sessions.UserSessions(userID)
}

func (c *ChatService) SessionDigest(userID, sessionID string) string {
	return c.digests.GetDigest(userID, sessionID)
}

func (c *ChatService) ClearSession(userID, sessionID string) bool {
	c.digests.ClearDigest(userID, sessionID)
	return c.sessions.ClearSession(userID, sessionID)
}

func (c *ChatService) DeleteSession(userID, sessionID string) bool {
	c.digests.ClearDigest(userID, sessionID)
	return c.sessions.DeleteSession(userID, sessionID)
}

func (c *ChatService) ActiveSessions() int {
	return c.sessions.Sessions()
}
