package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"match-service/internal/repositories"
	"match-service/internal/telemetry"
)

// ModerationHandler serves blocking and reporting.
type ModerationHandler struct {
	users   repositories.UserRepository
	blocks  repositories.BlockRepository
	reports repositories.ReportRepository
	audit   *telemetry.AuditEmitter
}

func NewModerationHandler(users repositories.UserRepository, blocks repositories.BlockRepository, reports repositories.ReportRepository, audit *telemetry.AuditEmitter) *ModerationHandler {
	return &ModerationHandler{users: users, blocks: blocks, reports: reports, audit: audit}
}

// targetUser resolves :user_id and rejects the caller themselves or an
// unknown user.
func (h *ModerationHandler) targetUser(c *gin.Context, selfMsg string) (int64, bool) {
	targetID, ok := idParam(c, "user_id", "invalid user id")
	if !ok {
		return 0, false
	}
	if targetID == c.GetInt64("userID") {
		c.JSON(http.StatusBadRequest, gin.H{"error": selfMsg})
		return 0, false
	}

	exists, err := h.users.Exists(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up user"})
		return 0, false
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return 0, false
	}
	return targetID, true
}

// BlockUser hides the target from the caller and stops future matching.
func (h *ModerationHandler) BlockUser(c *gin.Context) {
	targetID, ok := h.targetUser(c, "cannot block yourself")
	if !ok {
		return
	}

	userID := c.GetInt64("userID")
	if err := h.blocks.Block(c.Request.Context(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyBlocked):
			c.JSON(http.StatusConflict, gin.H{"error": "user already blocked"})
		case errors.Is(err, repositories.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to block user"})
		}
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.LevelInfo, "user blocked", requestIDFromContext(c), auditUserID(c), telemetry.Int64Attr("target_user_id", targetID))
	c.JSON(http.StatusCreated, gin.H{"status": "blocked", "user_id": targetID})
}

func (h *ModerationHandler) UnblockUser(c *gin.Context) {
	targetID, ok := idParam(c, "user_id", "invalid user id")
	if !ok {
		return
	}

	if err := h.blocks.Unblock(c.Request.Context(), c.GetInt64("userID"), targetID); err != nil {
		if errors.Is(err, repositories.ErrNotBlocked) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user is not blocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked", "user_id": targetID})
}

func (h *ModerationHandler) ListBlocked(c *gin.Context) {
	list, err := h.blocks.ListBlocked(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load blocked users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked_users": nonNil(list)})
}

// ReportUser files a report. One report per reporter and target.
func (h *ModerationHandler) ReportUser(c *gin.Context) {
	targetID, ok := h.targetUser(c, "cannot report yourself")
	if !ok {
		return
	}

	var req struct {
		ReportType string `json:"report_type" binding:"required"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	report, err := h.reports.CreateReport(c.Request.Context(), userID, targetID, strings.TrimSpace(req.ReportType), strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyReported) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already reported"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.LevelWarn, "user reported", requestIDFromContext(c), auditUserID(c),
		telemetry.Int64Attr("target_user_id", targetID),
		telemetry.Int64Attr("report_id", report.ID),
		telemetry.Attr{Key: "report_type", Value: report.ReportType},
	)
	c.JSON(http.StatusCreated, report)
}
