package service

import (
	"context"
	"fmt"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"
)

// DocumentService 提供文档的管理面能力：枚举、统计与删除。
type DocumentService struct {
	docRepo    repository.DocumentRepository
	vectorRepo repository.VectorRepository
	minioCfg   config.MinIOConfig
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(docRepo repository.DocumentRepository, vectorRepo repository.VectorRepository, minioCfg config.MinIOConfig) *DocumentService {
	return &DocumentService{
		docRepo:    docRepo,
		vectorRepo: vectorRepo,
		minioCfg:   minioCfg,
	}
}

// List 返回全部已入库文档的概要信息。
func (s *DocumentService) List() ([]model.DocumentInfoDTO, error) {
	documents, err := s.docRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("查询文档列表失败: %w", err)
	}

	infos := make([]model.DocumentInfoDTO, 0, len(documents))
	for _, doc := range documents {
		infos = append(infos, model.DocumentInfoDTO{
			ID:         doc.ID,
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount(),
			CreatedAt:  doc.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return infos, nil
}

// Stats 返回文档数与向量索引中的分块数。
func (s *DocumentService) Stats(ctx context.Context) (docCount, chunkCount int64, err error) {
	docCount, err = s.docRepo.Count()
	if err != nil {
		return 0, 0, fmt.Errorf("统计文档数失败: %w", err)
	}
	chunkCount, err = s.vectorRepo.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("统计向量分块数失败: %w", err)
	}
	return docCount, chunkCount, nil
}

// Delete 删除一个文档及其全部派生数据：文档记录、向量分块与对象存储原件。
// 向量清理失败必须上报：文档记录已删而分块仍可检索是两个存储间的不一致，
// 调用方需要感知并重试。对象存储原件的清理失败只记录日志。
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	document, err := s.docRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("查询文档失败: %w", err)
	}
	if document == nil {
		return fmt.Errorf("文档不存在: %s", id)
	}

	if err := s.docRepo.Delete(id); err != nil {
		return fmt.Errorf("删除文档记录失败: %w", err)
	}

	// 文档 ID 即来源文件名，向量分块按来源清理
	if _, err := s.vectorRepo.DeleteBySource(ctx, document.Filename); err != nil {
		log.Errorf("[DocumentService] 清理向量分块失败, Filename: %s, Error: %v", document.Filename, err)
		return fmt.Errorf("文档记录已删除，但清理向量分块失败: %w", err)
	}
	if err := storage.RemoveDocument(ctx, s.minioCfg.BucketName, document.Filename); err != nil {
		log.Errorf("[DocumentService] 清理对象存储原件失败, Filename: %s, Error: %v", document.Filename, err)
	}

	log.Infof("[DocumentService] 文档删除完成, ID: %s", id)
	return nil
}
