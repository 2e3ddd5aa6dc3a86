package service

import (
	"context"
	"fmt"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/log"
)

// 检索模式。
const (
	SearchModeVector  = "vector"
	SearchModeKeyword = "keyword"
)

// SearchService 提供不经过大模型的纯检索能力，用于调试与相关度排查。
type SearchService struct {
	embeddingClient embedding.Client
	vectorRepo      repository.VectorRepository
	ragCfg          config.RAGConfig
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, vectorRepo repository.VectorRepository, ragCfg config.RAGConfig) *SearchService {
	return &SearchService{
		embeddingClient: embeddingClient,
		vectorRepo:      vectorRepo,
		ragCfg:          ragCfg,
	}
}

// Search 按指定模式检索相关分块。mode 为空时默认向量检索。
func (s *SearchService) Search(ctx context.Context, query string, topK int, mode string) ([]model.RetrievedChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("检索词不能为空")
	}
	if topK <= 0 {
		topK = s.ragCfg.TopK
	}

	switch mode {
	case SearchModeKeyword:
		log.Infof("[SearchService] 关键词检索, Query: %s, TopK: %d", query, topK)
		return s.vectorRepo.QueryText(ctx, query, topK)
	case SearchModeVector, "":
		log.Infof("[SearchService] 向量检索, Query: %s, TopK: %d", query, topK)
		vector, err := s.embeddingClient.CreateEmbedding(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("检索词向量化失败: %w", err)
		}
		return s.vectorRepo.Query(ctx, vector, topK)
	default:
		return nil, fmt.Errorf("不支持的检索模式: %s", mode)
	}
}
