package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"match-service/internal/handlers"
	"match-service/internal/observability"
	"match-service/internal/telemetry"
	"match-service/internal/ws"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Match          *handlers.MatchHandler
	Moderation     *handlers.ModerationHandler
	Account        *handlers.AccountHandler
	Notification   *handlers.NotificationHandler
	Chat           *handlers.ChatHandler
	NotificationWS *ws.NotificationWebSocketHandler
	ChatWS         *ws.ChatWebSocketHandler
}

type RouterOptions struct {
	ServiceName string
	DebugRoutes bool
	Audit       *telemetry.AuditEmitter
	// Health backs GET /healthz. Nil reports healthy.
	Health func(ctx context.Context) error
}

// NewRouter builds the gin engine with every public route.
func NewRouter(h Handlers, authMiddleware gin.HandlerFunc, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(opts.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", authMiddleware)

	api.POST("/matches/decisions", h.Match.RecordDecision)
	api.POST("/matches/like-after-dislike", h.Match.LikeAfterDislike)
	api.GET("/matches", h.Match.ListMatched)
	api.GET("/matches/likes", h.Match.ListLikes)
	api.GET("/matches/disliked", h.Match.ListDisliked)

	api.POST("/users/:user_id/block", h.Moderation.BlockUser)
	api.DELETE("/users/:user_id/block", h.Moderation.UnblockUser)
	api.GET("/users/blocked", h.Moderation.ListBlocked)
	api.POST("/users/:user_id/report", h.Moderation.ReportUser)

	api.DELETE("/account", h.Account.DeleteAccount)

	api.GET("/notifications", h.Notification.ListNotifications)
	api.POST("/notifications/:id/read", h.Notification.MarkRead)
	api.DELETE("/notifications/read", h.Notification.ClearRead)

	api.GET("/chats", h.Chat.ListChats)
	api.GET("/chats/:match_id/messages", h.Chat.GetMessages)
	api.POST("/chats/:match_id/messages", h.Chat.PostMessage)
	api.DELETE("/chats/:match_id/messages/:message_id", h.Chat.RecallMessage)

	// Browsers cannot set headers on a websocket handshake, so these routes
	// authenticate themselves and also accept ?token=.
	router.GET("/ws/notifications", h.NotificationWS.Handle)
	router.GET("/ws/chats/:match_id", h.ChatWS.Handle)

	handlers.RegisterDebugRoutes(api, opts.Audit, opts.DebugRoutes)
	return router
}
