// Package pipeline 定义了文档入库的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/minio/minio-go/v7"

	"doc-qa-go/internal/chunker"
	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"
	"doc-qa-go/pkg/tasks"
)

// TextExtractor 定义了文本提取协作方的接口，pkg/tika 的客户端是其生产实现。
// 提取结果为空串表示文件没有可提取的文本，由管道转化为结构化失败。
type TextExtractor interface {
	ExtractFile(ctx context.Context, filePath string) (string, error)
	ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error)
}

// Processor 封装了文档入库的所有依赖和逻辑。
// 入库是同步、单写入方的流程；并发入库不同文档时由调用方自行串行化。
type Processor struct {
	extractor       TextExtractor
	embeddingClient embedding.Client
	splitter        *chunker.RecursiveSplitter
	docRepo         repository.DocumentRepository
	vectorRepo      repository.VectorRepository
	minioCfg        config.MinIOConfig
	embeddingCfg    config.EmbeddingConfig
	ragCfg          config.RAGConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	extractor TextExtractor,
	embeddingClient embedding.Client,
	docRepo repository.DocumentRepository,
	vectorRepo repository.VectorRepository,
	minioCfg config.MinIOConfig,
	embeddingCfg config.EmbeddingConfig,
	ragCfg config.RAGConfig,
) *Processor {
	return &Processor{
		extractor:       extractor,
		embeddingClient: embeddingClient,
		splitter:        chunker.NewRecursiveSplitter(),
		docRepo:         docRepo,
		vectorRepo:      vectorRepo,
		minioCfg:        minioCfg,
		embeddingCfg:    embeddingCfg,
		ragCfg:          ragCfg,
	}
}

// Ingest 将本地文件入库：校验 → 提取 → 分块 → 向量化 → 持久化。
// 每一步失败都通过结构化结果返回，本方法不向外抛错。
func (p *Processor) Ingest(ctx context.Context, filePath string, chunkSize, chunkOverlap int) model.IngestResult {
	log.Infof("[Processor] 开始入库文件: %s", filePath)

	// 1. 校验文件存在
	if _, err := os.Stat(filePath); err != nil {
		log.Warnf("[Processor] 文件不存在: %s", filePath)
		return model.IngestResult{
			Success: false,
			Message: fmt.Sprintf("文件不存在: %s", filePath),
		}
	}
	filename := filepath.Base(filePath)

	// 2. 提取文本
	log.Infof("[Processor] 步骤1: 提取文本, FileName: %s", filename)
	text, err := p.extractor.ExtractFile(ctx, filePath)
	if err != nil {
		log.Errorf("[Processor] 提取文本失败, FileName: %s, Error: %v", filename, err)
		return model.IngestResult{
			Filename: filename,
			Success:  false,
			Message:  fmt.Sprintf("提取文本失败: %v", err),
		}
	}

	return p.ingestText(ctx, filename, text, chunkSize, chunkOverlap)
}

// Process 处理一个来自 Kafka 的入库任务：文件原件在对象存储中。
// 返回 error 以驱动消费者的重试语义。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIngestTask) error {
	log.Infof("[Processor] 开始处理入库任务, FileName: %s, Object: %s", task.Filename, task.ObjectName)

	// 1. 从 MinIO 下载文件
	object, err := storage.MinioClient.GetObject(ctx, p.minioCfg.BucketName, task.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		log.Errorf("[Processor] 从 MinIO 下载文件失败, Object: %s, Error: %v", task.ObjectName, err)
		return fmt.Errorf("从 MinIO 下载文件失败: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(object)
	if err != nil {
		log.Errorf("[Processor] 读取 MinIO 对象流失败, Error: %v", err)
		return fmt.Errorf("读取 MinIO 对象流失败: %w", err)
	}
	if size == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.Filename)
		return errors.New("文件内容为空")
	}
	log.Infof("[Processor] 文件下载成功, 大小: %d 字节", size)

	// 2. 提取文本
	text, err := p.extractor.ExtractText(ctx, bytes.NewReader(buf.Bytes()), task.Filename)
	if err != nil {
		log.Errorf("[Processor] 提取文本失败, FileName: %s, Error: %v", task.Filename, err)
		return fmt.Errorf("提取文本失败: %w", err)
	}

	result := p.ingestText(ctx, task.Filename, text, task.ChunkSize, task.ChunkOverlap)
	if !result.Success {
		return errors.New(result.Message)
	}
	return nil
}

// ingestText 是两条入库路径共用的主体：分块 → 逐块向量化 → 先写向量索引再写文档仓储。
func (p *Processor) ingestText(ctx context.Context, filename, text string, chunkSize, chunkOverlap int) model.IngestResult {
	if chunkSize <= 0 {
		chunkSize = p.ragCfg.ChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = p.ragCfg.ChunkOverlap
	}

	if strings.TrimSpace(text) == "" {
		log.Warnf("[Processor] 提取的文本内容为空, 处理中止, FileName: %s", filename)
		return model.IngestResult{
			Filename: filename,
			Success:  false,
			Message:  "无法从文件中提取文本",
		}
	}
	log.Infof("[Processor] 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(text))

	// 3. 文本切块
	log.Infof("[Processor] 步骤2: 文本分块, chunkSize: %d, chunkOverlap: %d", chunkSize, chunkOverlap)
	chunkTexts := p.splitter.Split(text, chunkSize, chunkOverlap)
	if len(chunkTexts) == 0 {
		log.Warnf("[Processor] 未生成任何文本分块, 处理中止, FileName: %s", filename)
		return model.IngestResult{
			Filename: filename,
			Success:  false,
			Message:  "未生成任何文本分块",
		}
	}
	log.Infof("[Processor] 文本分块完成, 共生成 %d 个分块", len(chunkTexts))

	// 4. 逐块向量化并装配实体。
	// 向量是入库的硬前提：任一分块向量化失败即放弃整个文件，
	// 不允许把没有向量的分块悄悄存成不可检索的数据。
	documentID := filename
	docChunks := make([]*model.DocumentChunk, 0, len(chunkTexts))
	esChunks := make([]model.EsChunk, 0, len(chunkTexts))
	for i, chunkText := range chunkTexts {
		if strings.TrimSpace(chunkText) == "" {
			continue
		}

		vector, err := p.embeddingClient.CreateEmbedding(ctx, chunkText)
		if err != nil {
			log.Errorf("[Processor] 分块 %d 向量化失败, Error: %v", i, err)
			return model.IngestResult{
				DocumentID: documentID,
				Filename:   filename,
				Success:    false,
				Message:    fmt.Sprintf("分块 %d 向量化失败: %v", i, err),
			}
		}

		chunk, err := model.NewDocumentChunk(documentID, i, chunkText, filename, vector)
		if err != nil {
			return model.IngestResult{
				DocumentID: documentID,
				Filename:   filename,
				Success:    false,
				Message:    fmt.Sprintf("装配分块 %d 失败: %v", i, err),
			}
		}
		docChunks = append(docChunks, chunk)
		esChunks = append(esChunks, model.EsChunk{
			VectorID:     chunk.ID,
			DocumentID:   documentID,
			ChunkIndex:   i,
			TextContent:  chunkText,
			Vector:       vector,
			Source:       filename,
			ModelVersion: p.embeddingCfg.Model,
		})
		log.Infof("[Processor] 分块 %d/%d 向量化成功", i+1, len(chunkTexts))
	}

	document, err := model.NewDocument(documentID, filename, text, docChunks)
	if err != nil {
		return model.IngestResult{
			DocumentID: documentID,
			Filename:   filename,
			Success:    false,
			Message:    fmt.Sprintf("装配文档失败: %v", err),
		}
	}

	// 5. 先写向量索引，再写文档仓储。
	// 这样"文档仓储中存在的文档"总是隐含"其分块可被检索"；
	// 文档保存失败时尽力回收刚写入的向量，并返回独立的存储失败结果。
	log.Info("[Processor] 步骤3: 写入向量索引")
	if err := p.vectorRepo.Add(ctx, esChunks); err != nil {
		log.Errorf("[Processor] 向量索引写入失败, Error: %v", err)
		return model.IngestResult{
			DocumentID: documentID,
			Filename:   filename,
			Success:    false,
			Message:    fmt.Sprintf("向量索引写入失败: %v", err),
		}
	}

	log.Info("[Processor] 步骤4: 保存文档聚合")
	if err := p.docRepo.Save(document); err != nil {
		log.Errorf("[Processor] 文档保存失败, 回收已写入的向量, Error: %v", err)
		message := fmt.Sprintf("文档保存失败: %v", err)
		if _, delErr := p.vectorRepo.DeleteBySource(ctx, filename); delErr != nil {
			log.Errorf("[Processor] 回收向量失败, 两个存储不一致, Error: %v", delErr)
			message = fmt.Sprintf("文档保存失败且向量回收失败, 索引中残留来源 %s 的分块: %v", filename, err)
		}
		return model.IngestResult{
			DocumentID: documentID,
			Filename:   filename,
			Success:    false,
			Message:    message,
		}
	}

	log.Infof("[Processor] 文件入库成功, FileName: %s, 分块数: %d", filename, document.ChunkCount())
	return model.IngestResult{
		DocumentID: documentID,
		Filename:   filename,
		ChunkCount: document.ChunkCount(),
		Success:    true,
		Message:    fmt.Sprintf("文档处理成功: %d 个分块", document.ChunkCount()),
	}
}
