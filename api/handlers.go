package api

import (
	"chat-relay/errors"
	"chat-relay/protocol"
	"chat-relay/services"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers exposes chat management and acknowledgments over REST.
type Handlers struct {
	chats    services.IChatService
	delivery services.IDeliveryService
	tokens   services.ITokenService
	log      *slog.Logger
}

func NewHandlers(
	chats services.IChatService,
	delivery services.IDeliveryService,
	tokens services.ITokenService,
	log *slog.Logger) *Handlers {
	return &Handlers{chats: chats, delivery: delivery, tokens: tokens, log: log}
}

func (h *Handlers) CreateGroup(c *gin.Context) {
	var body protocol.CreateGroupRequest
	if !bind(c, &body) {
		return
	}
	chat, err := h.chats.CreateGroupChat(c.Request.Context(), identityOf(c), body.Command())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *Handlers) UpdateGroup(c *gin.Context) {
	var body protocol.UpdateGroupRequest
	if !bind(c, &body) {
		return
	}
	chat, err := h.chats.UpdateGroupChat(c.Request.Context(), identityOf(c), body.Command())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handlers) DeleteGroup(c *gin.Context) {
	var body protocol.DeleteGroupRequest
	if !bind(c, &body) {
		return
	}
	if err := h.chats.DeleteGroupChat(c.Request.Context(), identityOf(c), body.ChatID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) OpenDirect(c *gin.Context) {
	var body protocol.OpenDirectRequest
	if !bind(c, &body) {
		return
	}
	chat, err := h.chats.OpenDirectChat(c.Request.Context(), identityOf(c), body.AccountID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// MarkDelivered is the REST twin of the mark-delivered event, used by push
// handlers on devices that are not connected.
func (h *Handlers) MarkDelivered(c *gin.Context) {
	var body protocol.MarkDeliveredRequest
	if !bind(c, &body) {
		return
	}
	chat, err := h.delivery.MarkDelivered(c.Request.Context(), services.Origin{Identity: identityOf(c)}, body.ChatID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *Handlers) SaveToken(c *gin.Context) {
	var body protocol.SaveTokenRequest
	if !bind(c, &body) {
		return
	}
	token, err := h.tokens.SaveToken(c.Request.Context(), identityOf(c), body.Token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// bind decodes and validates the body with the websocket rules.
func bind(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		abortWithError(c, errors.ErrIllegalAction)
		return false
	}
	if err := protocol.Validate(body); err != nil {
		abortWithError(c, err)
		return false
	}
	return true
}
