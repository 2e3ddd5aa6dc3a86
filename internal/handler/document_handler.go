// Package handler 实现 HTTP/WebSocket 接入层。
package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/kafka"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"
	"doc-qa-go/pkg/tasks"
)

// DocumentHandler 处理文档的上传、入库与管理请求。
type DocumentHandler struct {
	processor  *pipeline.Processor
	docService *service.DocumentService
	minioCfg   config.MinIOConfig
	ragCfg     config.RAGConfig
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(processor *pipeline.Processor, docService *service.DocumentService, minioCfg config.MinIOConfig, ragCfg config.RAGConfig) *DocumentHandler {
	return &DocumentHandler{
		processor:  processor,
		docService: docService,
		minioCfg:   minioCfg,
		ragCfg:     ragCfg,
	}
}

// Upload 接收上传文件，写入对象存储后投递异步入库任务。
// 立即返回 202，入库由 Kafka 消费者在后台完成。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "缺少上传文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": "读取上传文件失败"})
		return
	}
	defer file.Close()

	filename := filepath.Base(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := storage.PutDocument(c.Request.Context(), h.minioCfg.BucketName, filename, file, fileHeader.Size, contentType); err != nil {
		log.Errorf("[DocumentHandler] 写入对象存储失败, FileName: %s, Error: %v", filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": "文件存储失败"})
		return
	}

	task := tasks.DocumentIngestTask{
		Filename:     filename,
		ObjectName:   storage.ObjectName(filename),
		ChunkSize:    h.ragCfg.ChunkSize,
		ChunkOverlap: h.ragCfg.ChunkOverlap,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[DocumentHandler] 投递入库任务失败, FileName: %s, Error: %v", filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": "投递入库任务失败"})
		return
	}

	log.Infof("[DocumentHandler] 文件上传成功, 已投递入库任务, FileName: %s", filename)
	c.JSON(http.StatusAccepted, gin.H{"code": 0, "message": "文件已接收，正在后台处理", "data": gin.H{"filename": filename}})
}

type ingestRequest struct {
	FilePath     string `json:"file_path" binding:"required"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// Ingest 同步入库一个服务端本地文件，返回结构化的入库结果。
func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "message": "参数错误: " + err.Error()})
		return
	}

	result := h.processor.Ingest(c.Request.Context(), req.FilePath, req.ChunkSize, req.ChunkOverlap)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"code": boolToCode(result.Success), "message": result.Message, "data": result})
}

// List 返回全部已入库文档。
func (h *DocumentHandler) List(c *gin.Context) {
	infos, err := h.docService.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": infos})
}

// Stats 返回文档数与向量分块数。
func (h *DocumentHandler) Stats(c *gin.Context) {
	docCount, chunkCount, err := h.docService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{
		"document_count": docCount,
		"chunk_count":    chunkCount,
	}})
}

// Delete 删除文档及其派生数据。
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "删除成功"})
}

func boolToCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}
