package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"match-service/internal/matching"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

type MatchServiceMock struct {
	mock.Mock
}

func (m *MatchServiceMock) RecordDecision(ctx context.Context, in matching.DecisionInput) (matching.Result, error) {
	args := m.Called(ctx, in)
	var res matching.Result
	if val := args.Get(0); val != nil {
		res = val.(matching.Result)
	}
	return res, args.Error(1)
}

func (m *MatchServiceMock) LikeAfterDislike(ctx context.Context, actorID, targetID int64) (matching.Result, error) {
	args := m.Called(ctx, actorID, targetID)
	var res matching.Result
	if val := args.Get(0); val != nil {
		res = val.(matching.Result)
	}
	return res, args.Error(1)
}

type MatchRepositoryMock struct {
	mock.Mock
}

func (m *MatchRepositoryMock) GetMatch(ctx context.Context, matchID int64) (models.Match, error) {
	args := m.Called(ctx, matchID)
	var match models.Match
	if val := args.Get(0); val != nil {
		match = val.(models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) ListMatched(ctx context.Context, userID int64) ([]models.MatchSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.MatchSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.MatchSummary)
	}
	return list, args.Error(1)
}

func (m *MatchRepositoryMock) ListLikes(ctx context.Context, userID int64) ([]models.MatchSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.MatchSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.MatchSummary)
	}
	return list, args.Error(1)
}

func (m *MatchRepositoryMock) ListDisliked(ctx context.Context, userID int64, limit int) ([]models.MatchSummary, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.MatchSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.MatchSummary)
	}
	return list, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) Exists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) Block(ctx context.Context, blockerID, blockedID int64) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) ListBlocked(ctx context.Context, blockerID int64) ([]models.BlockedUser, error) {
	args := m.Called(ctx, blockerID)
	var list []models.BlockedUser
	if val := args.Get(0); val != nil {
		list = val.([]models.BlockedUser)
	}
	return list, args.Error(1)
}

type ReportRepositoryMock struct {
	mock.Mock
}

func (m *ReportRepositoryMock) CreateReport(ctx context.Context, reporterID, reportedID int64, reportType, reason string) (models.Report, error) {
	args := m.Called(ctx, reporterID, reportedID, reportType, reason)
	var r models.Report
	if val := args.Get(0); val != nil {
		r = val.(models.Report)
	}
	return r, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) CreateNotification(ctx context.Context, userID int64, eventID string, eventType models.EventType, payload json.RawMessage) (models.Notification, error) {
	args := m.Called(ctx, userID, eventID, eventType, payload)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, userID, notificationID int64) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) DeleteRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, matchID, senderID int64, content string) (models.Message, error) {
	args := m.Called(ctx, matchID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, matchID int64, beforeID int64, limit int) ([]models.Message, error) {
	args := m.Called(ctx, matchID, beforeID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) RecallMessage(ctx context.Context, messageID, senderID int64) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) CanChat(ctx context.Context, matchID, userID int64) (bool, error) {
	args := m.Called(ctx, matchID, userID)
	return args.Bool(0), args.Error(1)
}

type AccountRepositoryMock struct {
	mock.Mock
}

func (m *AccountRepositoryMock) DeleteAccount(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ matching.Service = (*MatchServiceMock)(nil)
var _ repositories.MatchRepository = (*MatchRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.BlockRepository = (*BlockRepositoryMock)(nil)
var _ repositories.ReportRepository = (*ReportRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.AccountRepository = (*AccountRepositoryMock)(nil)
