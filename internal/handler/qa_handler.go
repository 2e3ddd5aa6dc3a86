package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/service"
)

// QAHandler 处理问答请求。
type QAHandler struct {
	qaService *service.QAService
}

// NewQAHandler 创建一个新的 QAHandler 实例。
func NewQAHandler(qaService *service.QAService) *QAHandler {
	return &QAHandler{qaService: qaService}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
	UserID   string `json:"user_id"`
}

// Ask 回答一个问题。业务层面的失败同样返回 200，
// 由响应体中的结构化结果表达，调用方无需区分传输错误与回答失败。
func (h *QAHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "参数错误: " + err.Error()})
		return
	}

	result := h.qaService.Ask(c.Request.Context(), req.Question, req.TopK, req.UserID)
	c.JSON(http.StatusOK, gin.H{"code": boolToCode(result.Success), "message": "success", "data": result})
}
