package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"match-service/internal/matching"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

// MatchHandler exposes the reconciliation engine and the match lists.
type MatchHandler struct {
	service matching.Service
	matches repositories.MatchRepository
}

func NewMatchHandler(service matching.Service, matches repositories.MatchRepository) *MatchHandler {
	return &MatchHandler{service: service, matches: matches}
}

type decisionRequest struct {
	TargetID int64  `json:"target_id" binding:"required"`
	Decision string `json:"decision" binding:"required"`
}

// RecordDecision applies a swipe by the authenticated user.
func (h *MatchHandler) RecordDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.RecordDecision(c.Request.Context(), matching.DecisionInput{
		ActorID:  c.GetInt64("userID"),
		TargetID: req.TargetID,
		Decision: models.Decision(req.Decision),
	})
	if err != nil {
		writeMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// LikeAfterDislike lets the caller take back an earlier decline.
func (h *MatchHandler) LikeAfterDislike(c *gin.Context) {
	var req struct {
		TargetID int64 `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.LikeAfterDislike(c.Request.Context(), c.GetInt64("userID"), req.TargetID)
	if err != nil {
		writeMatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListMatched returns accepted matches, newest first.
func (h *MatchHandler) ListMatched(c *gin.Context) {
	list, err := h.matches.ListMatched(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load matches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": nonNil(list)})
}

// ListLikes returns people who liked the caller and are still unanswered.
func (h *MatchHandler) ListLikes(c *gin.Context) {
	list, err := h.matches.ListLikes(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load likes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": nonNil(list)})
}

// ListDisliked returns people the caller declined, for a second look.
func (h *MatchHandler) ListDisliked(c *gin.Context) {
	list, err := h.matches.ListDisliked(c.Request.Context(), c.GetInt64("userID"), limitQuery(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load disliked users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"disliked": nonNil(list)})
}

func writeMatchError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "failed to record decision"

	var merr *matching.Error
	if errors.As(err, &merr) {
		msg = merr.Msg
		if msg == "" {
			msg = string(merr.Kind)
		}
		switch merr.Kind {
		case matching.KindInvalidActor, matching.KindInvalidDecision:
			status = http.StatusBadRequest
		case matching.KindForbidden:
			status = http.StatusForbidden
		case matching.KindInvalidStateTransition:
			status = http.StatusConflict
		case matching.KindConflictRace:
			status = http.StatusConflict
			msg = "concurrent update, please retry"
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
