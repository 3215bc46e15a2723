package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"match-service/internal/mocks"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

func setupChatRouter(conversations *mocks.ConversationRepositoryMock, messages *mocks.MessageRepositoryMock, hub ChatBroadcaster) http.Handler {
	h := NewChatHandler(conversations, messages, hub)
	r := newTestRouter()
	r.GET("/chats", h.ListChats)
	r.GET("/chats/:match_id/messages", h.GetMessages)
	r.POST("/chats/:match_id/messages", h.PostMessage)
	r.DELETE("/chats/:match_id/messages/:message_id", h.RecallMessage)
	return r
}

func TestListChatsSuccess(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	router := setupChatRouter(conversations, nil, nil)
	conversations.On("ListConversations", mock.Anything, callerID).Return([]models.Conversation{{MatchID: 3, PeerID: 2, PeerUsername: "bob"}}, nil).Once()

	rec := do(router, http.MethodGet, "/chats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"peer_username":"bob"`)
	conversations.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	router := setupChatRouter(conversations, nil, nil)
	conversations.On("ListConversations", mock.Anything, callerID).Return(nil, assert.AnError).Once()

	assert.Equal(t, http.StatusInternalServerError, do(router, http.MethodGet, "/chats", "").Code)
}

func TestGetMessagesRequiresParticipant(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	router := setupChatRouter(conversations, messages, nil)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(false, nil).Once()

	rec := do(router, http.MethodGet, "/chats/3/messages", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMessagesPaging(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	router := setupChatRouter(conversations, messages, nil)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(true, nil)
	messages.On("ListMessages", mock.Anything, int64(3), int64(50), 10).Return([]models.Message{{ID: 49, MatchID: 3, Content: "hi"}}, nil).Once()

	rec := do(router, http.MethodGet, "/chats/3/messages?before_id=50&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":49`)

	rec = do(router, http.MethodGet, "/chats/3/messages?before_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertExpectations(t)
}

func TestPostMessageBroadcasts(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	hub := &broadcastRecorder{}
	router := setupChatRouter(conversations, messages, hub)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(true, nil).Once()
	messages.On("CreateMessage", mock.Anything, int64(3), callerID, "hello").Return(models.Message{ID: 7, MatchID: 3, SenderID: callerID, Content: "hello"}, nil).Once()

	rec := do(router, http.MethodPost, "/chats/3/messages", `{"content":"  hello  "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, hub.messages, 1)
	assert.Equal(t, int64(7), hub.messages[0].ID)
	messages.AssertExpectations(t)
}

func TestPostMessageValidation(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	router := setupChatRouter(conversations, new(mocks.MessageRepositoryMock), nil)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(true, nil)

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/chats/3/messages", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/chats/3/messages", `{"content":"   "}`).Code)
	long := `{"content":"` + strings.Repeat("a", maxMessageLength+1) + `"}`
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPost, "/chats/3/messages", long).Code)
}

func TestRecallMessage(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	hub := &broadcastRecorder{}
	router := setupChatRouter(conversations, messages, hub)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(true, nil)
	messages.On("GetMessage", mock.Anything, int64(7)).Return(models.Message{ID: 7, MatchID: 3, SenderID: callerID}, nil).Once()
	messages.On("RecallMessage", mock.Anything, int64(7), callerID).Return(nil).Once()

	rec := do(router, http.MethodDelete, "/chats/3/messages/7", "")

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{7}, hub.recalls)
	messages.AssertExpectations(t)
}

func TestRecallMessageRejections(t *testing.T) {
	conversations := new(mocks.ConversationRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	hub := &broadcastRecorder{}
	router := setupChatRouter(conversations, messages, hub)
	conversations.On("CanChat", mock.Anything, int64(3), callerID).Return(true, nil)
	messages.On("GetMessage", mock.Anything, int64(8)).Return(models.Message{ID: 8, MatchID: 3, SenderID: 2}, nil).Once()
	messages.On("GetMessage", mock.Anything, int64(9)).Return(models.Message{ID: 9, MatchID: 4, SenderID: callerID}, nil).Once()
	messages.On("GetMessage", mock.Anything, int64(10)).Return(nil, repositories.ErrMessageNotFound).Once()

	assert.Equal(t, http.StatusForbidden, do(router, http.MethodDelete, "/chats/3/messages/8", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/chats/3/messages/9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/chats/3/messages/10", "").Code)
	assert.Empty(t, hub.recalls)
	messages.AssertNotCalled(t, "RecallMessage", mock.Anything, mock.Anything, mock.Anything)
}
