package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"match-service/internal/matching"
	"match-service/internal/mocks"
	"match-service/internal/models"
)

func setupMatchRouter(service *mocks.MatchServiceMock, repo *mocks.MatchRepositoryMock) http.Handler {
	h := NewMatchHandler(service, repo)
	r := newTestRouter()
	r.POST("/matches/decisions", h.RecordDecision)
	r.POST("/matches/like-after-dislike", h.LikeAfterDislike)
	r.GET("/matches", h.ListMatched)
	r.GET("/matches/likes", h.ListLikes)
	r.GET("/matches/disliked", h.ListDisliked)
	return r
}

func TestRecordDecisionUsesAuthenticatedActor(t *testing.T) {
	service := new(mocks.MatchServiceMock)
	router := setupMatchRouter(service, nil)

	in := matching.DecisionInput{ActorID: callerID, TargetID: 2, Decision: models.DecisionLike}
	service.On("RecordDecision", mock.Anything, in).Return(matching.Result{
		Status:     models.MatchStatusAccepted,
		IsNewMatch: true,
		Match:      models.Match{ID: 5, User1ID: 2, User2ID: 1, Status: models.MatchStatusAccepted},
	}, nil).Once()

	rec := do(router, http.MethodPost, "/matches/decisions", `{"target_id":2,"decision":"like","actor_id":99}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp matching.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.MatchStatusAccepted, resp.Status)
	assert.True(t, resp.IsNewMatch)
	assert.Equal(t, int64(5), resp.Match.ID)
	service.AssertExpectations(t)
}

func TestRecordDecisionBadBody(t *testing.T) {
	router := setupMatchRouter(new(mocks.MatchServiceMock), nil)

	rec := do(router, http.MethodPost, "/matches/decisions", `{"decision":"like"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordDecisionErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{&matching.Error{Kind: matching.KindInvalidActor, Msg: "cannot match with yourself"}, http.StatusBadRequest},
		{&matching.Error{Kind: matching.KindInvalidDecision, Msg: "decision must be like or dislike"}, http.StatusBadRequest},
		{&matching.Error{Kind: matching.KindForbidden, Msg: "user is blocked"}, http.StatusForbidden},
		{&matching.Error{Kind: matching.KindInvalidStateTransition, Msg: "match is not in a disliked state"}, http.StatusConflict},
		{fmt.Errorf("retries exhausted: %w", matching.ErrConflictRace), http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			service := new(mocks.MatchServiceMock)
			router := setupMatchRouter(service, nil)
			service.On("RecordDecision", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rec := do(router, http.MethodPost, "/matches/decisions", `{"target_id":2,"decision":"like"}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRecordDecisionDeletedTargetIsBadRequest(t *testing.T) {
	service := new(mocks.MatchServiceMock)
	router := setupMatchRouter(service, nil)
	cause := errors.New("pq: insert or update on table \"matches\" violates foreign key constraint")
	service.On("RecordDecision", mock.Anything, mock.Anything).
		Return(nil, &matching.Error{Kind: matching.KindInvalidActor, Msg: "target user not found", Err: cause}).Once()

	rec := do(router, http.MethodPost, "/matches/decisions", `{"target_id":2,"decision":"like"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"target user not found"}`, rec.Body.String())
}

func TestLikeAfterDislike(t *testing.T) {
	service := new(mocks.MatchServiceMock)
	router := setupMatchRouter(service, nil)
	service.On("LikeAfterDislike", mock.Anything, callerID, int64(3)).Return(matching.Result{Status: models.MatchStatusPending}, nil).Once()

	rec := do(router, http.MethodPost, "/matches/like-after-dislike", `{"target_id":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	service.AssertExpectations(t)
}

func TestLikeAfterDislikeNotDisliked(t *testing.T) {
	service := new(mocks.MatchServiceMock)
	router := setupMatchRouter(service, nil)
	service.On("LikeAfterDislike", mock.Anything, callerID, int64(3)).
		Return(nil, &matching.Error{Kind: matching.KindInvalidStateTransition, Msg: "match is not in a disliked state"}).Once()

	rec := do(router, http.MethodPost, "/matches/like-after-dislike", `{"target_id":3}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "match is not in a disliked state")
}

func TestListMatched(t *testing.T) {
	repo := new(mocks.MatchRepositoryMock)
	router := setupMatchRouter(nil, repo)
	repo.On("ListMatched", mock.Anything, callerID).Return([]models.MatchSummary{{MatchID: 4, UserID: 2, Username: "bob", Status: models.MatchStatusAccepted}}, nil).Once()

	rec := do(router, http.MethodGet, "/matches", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Matches []models.MatchSummary `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "bob", resp.Matches[0].Username)
	repo.AssertExpectations(t)
}

func TestListLikesEmptyIsArray(t *testing.T) {
	repo := new(mocks.MatchRepositoryMock)
	router := setupMatchRouter(nil, repo)
	repo.On("ListLikes", mock.Anything, callerID).Return(nil, nil).Once()

	rec := do(router, http.MethodGet, "/matches/likes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"likes":[]}`, rec.Body.String())
}

func TestListDislikedLimit(t *testing.T) {
	repo := new(mocks.MatchRepositoryMock)
	router := setupMatchRouter(nil, repo)
	repo.On("ListDisliked", mock.Anything, callerID, 5).Return([]models.MatchSummary{}, nil).Once()
	repo.On("ListDisliked", mock.Anything, callerID, maxPageSize).Return([]models.MatchSummary{}, nil).Once()
	repo.On("ListDisliked", mock.Anything, callerID, defaultPageSize).Return(nil, assert.AnError).Once()

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/matches/disliked?limit=5", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/matches/disliked?limit=1000", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(router, http.MethodGet, "/matches/disliked", "").Code)
	repo.AssertExpectations(t)
}
