package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/service"
)

// SearchHandler 处理纯检索请求。
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 按向量或关键词模式检索相关分块。
// GET /api/v1/search?q=...&top_k=5&mode=vector
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "缺少检索词参数 q"})
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "0"))
	mode := c.Query("mode")

	chunks, err := h.searchService.Search(c.Request.Context(), query, topK, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": chunks})
}
