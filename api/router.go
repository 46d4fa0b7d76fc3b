// Package api serves the REST surface: group management, direct chats,
// delivery acknowledgments and device tokens, plus the websocket route.
package api

import (
	"chat-relay/services"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route. websocket handles GET /ws, which
// authenticates through its own connect frame.
func NewRouter(handlers *Handlers, identities services.IIdentityService, websocket gin.HandlerFunc, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/ws", websocket)

	v1 := router.Group("/api/v1", AuthMiddleware(identities))
	{
		v1.POST("/chat/group", handlers.CreateGroup)
		v1.PUT("/chat/group", handlers.UpdateGroup)
		v1.DELETE("/chat/group", handlers.DeleteGroup)
		v1.POST("/chat/direct", handlers.OpenDirect)
		v1.POST("/message/delivery", handlers.MarkDelivered)
		v1.POST("/notification/token", handlers.SaveToken)
	}
	return router
}
