package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/token"
)

// upgrader 将 HTTP 连接升级为 WebSocket。鉴权由一次性令牌完成，不校验 Origin。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamDoneMarker 标记一轮流式回答结束。
const streamDoneMarker = "[DONE]"

// ChatHandler 处理流式聊天的令牌签发与 WebSocket 会话。
type ChatHandler struct {
	chatService *service.ChatService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService *service.ChatService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		jwtManager:  jwtManager,
	}
}

// IssueToken 为指定用户签发短期 WebSocket 接入令牌。
// GET /api/v1/chat/token?user_id=...
func (h *ChatHandler) IssueToken(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "缺少参数 user_id"})
		return
	}

	tokenStr, err := h.jwtManager.GenerateWSToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": "签发令牌失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"token": tokenStr}})
}

// Serve 升级 WebSocket 连接并进入聊天循环：每收到一条文本消息，
// 就流式写回一轮回答，并以结束标记收尾。
// GET /api/v1/chat/ws?token=...
func (h *ChatHandler) Serve(c *gin.Context) {
	userID, err := h.jwtManager.VerifyWSToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": 1, "message": "令牌无效或已过期"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("[ChatHandler] WebSocket 升级失败, Error: %v", err)
		return
	}
	defer conn.Close()
	log.Infof("[ChatHandler] WebSocket 连接建立, UserID: %s", userID)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			log.Infof("[ChatHandler] WebSocket 连接关闭, UserID: %s, Error: %v", userID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if err := h.chatService.StreamAnswer(c.Request.Context(), userID, string(data), nil, conn); err != nil {
			log.Errorf("[ChatHandler] 流式回答失败, UserID: %s, Error: %v", userID, err)
			if writeErr := conn.WriteMessage(websocket.TextMessage, []byte("回答生成失败，请重试。")); writeErr != nil {
				return
			}
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(streamDoneMarker)); err != nil {
			return
		}
	}
}

// ClearHistory 清空当前用户的会话历史。
// DELETE /api/v1/chat/history?user_id=...
func (h *ChatHandler) ClearHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "缺少参数 user_id"})
		return
	}
	if err := h.chatService.ClearHistory(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": "清空会话历史失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}
