package service

import (
	"context"
	"fmt"
	"strings"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/repository"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
)

// ChatService 实现带检索增强的多轮流式聊天。
type ChatService struct {
	embeddingClient embedding.Client
	vectorRepo      repository.VectorRepository
	convRepo        repository.ConversationRepository
	llmClient       llm.Client
	ragCfg          config.RAGConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	embeddingClient embedding.Client,
	vectorRepo repository.VectorRepository,
	convRepo repository.ConversationRepository,
	llmClient llm.Client,
	ragCfg config.RAGConfig,
) *ChatService {
	return &ChatService{
		embeddingClient: embeddingClient,
		vectorRepo:      vectorRepo,
		convRepo:        convRepo,
		llmClient:       llmClient,
		ragCfg:          ragCfg,
	}
}

// capturingWriter 在把流式分块转发给下游连接的同时累积完整回答，
// 用于流结束后写入会话历史。
type capturingWriter struct {
	inner llm.MessageWriter
	buf   strings.Builder
}

func (w *capturingWriter) WriteMessage(messageType int, data []byte) error {
	w.buf.Write(data)
	return w.inner.WriteMessage(messageType, data)
}

// StreamAnswer 处理一轮聊天：检索上下文 → 拼装历史 → 流式生成 → 落历史。
// 检索失败不是致命错误，降级为无上下文的普通聊天。
func (s *ChatService) StreamAnswer(ctx context.Context, userID, question string, gen *llm.GenerationParams, writer llm.MessageWriter) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("聊天内容不能为空")
	}

	// 步骤1: 检索相关文档作为系统上下文
	contextBlock := s.retrieveContext(ctx, question)

	// 步骤2: 读取会话历史
	history, err := s.convRepo.GetHistory(ctx, userID)
	if err != nil {
		log.Warnf("[ChatService] 读取会话历史失败, 以空历史继续, UserID: %s, Error: %v", userID, err)
		history = nil
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.buildSystemPrompt(contextBlock)})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})

	// 步骤3: 流式生成
	log.Infof("[ChatService] 开始流式生成, UserID: %s, 历史消息数: %d", userID, len(history))
	capturer := &capturingWriter{inner: writer}
	if err := s.llmClient.StreamChatMessages(ctx, messages, gen, capturer); err != nil {
		return fmt.Errorf("流式生成失败: %w", err)
	}

	// 步骤4: 写入会话历史
	if err := s.convRepo.AppendExchange(ctx, userID, question, capturer.buf.String()); err != nil {
		log.Errorf("[ChatService] 写入会话历史失败, UserID: %s, Error: %v", userID, err)
	}
	return nil
}

// ClearHistory 清空指定用户的会话历史。
func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	return s.convRepo.ClearHistory(ctx, userID)
}

// retrieveContext 对聊天消息做一次向量检索，失败时返回空串。
func (s *ChatService) retrieveContext(ctx context.Context, question string) string {
	vector, err := s.embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		log.Warnf("[ChatService] 聊天消息向量化失败, 跳过检索, Error: %v", err)
		return ""
	}
	chunks, err := s.vectorRepo.Query(ctx, vector, s.ragCfg.TopK)
	if err != nil {
		log.Warnf("[ChatService] 聊天检索失败, 跳过上下文注入, Error: %v", err)
		return ""
	}

	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(fmt.Sprintf("[文档: %s]\n%s\n\n", chunk.Source, chunk.TextContent))
	}
	return b.String()
}

func (s *ChatService) buildSystemPrompt(contextBlock string) string {
	if contextBlock == "" {
		return "你是一个文档问答助手。当前没有检索到相关文档，请基于通用知识谨慎回答，并明确告知用户答案未经文档佐证。"
	}
	return fmt.Sprintf(`你是一个文档问答助手。请优先依据下面检索到的文档内容回答用户问题，回答时注明依据的文档名。

检索到的文档内容:
%s`, contextBlock)
}
