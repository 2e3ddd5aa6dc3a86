package service

import (
	"context"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
	"doc-qa-go/internal/repository"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/log"
)

// QAService 实现端到端的问答流程：校验 → 向量化 → 检索 → 合成。
type QAService struct {
	embeddingClient embedding.Client
	vectorRepo      repository.VectorRepository
	synthesizer     *AnswerSynthesizer
	ragCfg          config.RAGConfig
}

// NewQAService 创建一个新的 QAService 实例。
func NewQAService(
	embeddingClient embedding.Client,
	vectorRepo repository.VectorRepository,
	synthesizer *AnswerSynthesizer,
	ragCfg config.RAGConfig,
) *QAService {
	return &QAService{
		embeddingClient: embeddingClient,
		vectorRepo:      vectorRepo,
		synthesizer:     synthesizer,
		ragCfg:          ragCfg,
	}
}

// Ask 回答一个问题。任何失败都折叠为结构化的 AskResult，不向调用方抛错。
// 无效问题在触达向量索引和模型之前短路返回。
func (s *QAService) Ask(ctx context.Context, questionText string, topK int, userID string) model.AskResult {
	question := model.NewQuestion(questionText, userID)
	if !question.IsValid() {
		log.Warnf("[QAService] 问题过短, 拒绝处理: %q", question.Text)
		return model.FailedAskResult("问题过短，请至少输入 3 个字符。", "问题未通过长度校验")
	}

	if topK <= 0 {
		topK = s.ragCfg.TopK
	}

	// 步骤1: 问题向量化
	log.Infof("[QAService] 步骤1: 问题向量化, Question: %s", question.Text)
	vector, err := s.embeddingClient.CreateEmbedding(ctx, question.Text)
	if err != nil {
		log.Errorf("[QAService] 问题向量化失败, Error: %v", err)
		return model.FailedAskResult("问题处理失败，请稍后重试。", "问题向量化失败")
	}

	// 步骤2: 向量检索
	log.Infof("[QAService] 步骤2: 向量检索, TopK: %d", topK)
	chunks, err := s.vectorRepo.Query(ctx, vector, topK)
	if err != nil {
		log.Errorf("[QAService] 向量检索失败, Error: %v", err)
		return model.FailedAskResult("检索失败，请稍后重试。", "向量索引查询失败")
	}
	if len(chunks) == 0 {
		log.Warn("[QAService] 向量索引为空或无匹配结果")
		return model.FailedAskResult("知识库中没有可用文档，无法回答该问题。", "向量索引未返回任何分块")
	}
	log.Infof("[QAService] 检索到 %d 个相关分块, 最高相似度: %.4f", len(chunks), chunks[0].Score)

	// 步骤3: 合成回答。合成永不失败：哨兵回答同样是一次完成的问答，
	// 协议层面的"文档中没有答案"通过 source=N/A 与低置信度表达，而非失败标志。
	answer := s.synthesizer.Synthesize(ctx, question, chunks)
	return model.NewAskResult(answer, true)
}
