// Package service 实现问答、检索与聊天的业务逻辑。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
)

// AnswerSynthesizer 负责把检索到的上下文和问题组装成提示词，
// 调用大模型并把其 JSON 输出解析为回答实体。
type AnswerSynthesizer struct {
	llmClient llm.Client
}

// NewAnswerSynthesizer 创建一个新的 AnswerSynthesizer 实例。
func NewAnswerSynthesizer(llmClient llm.Client) *AnswerSynthesizer {
	return &AnswerSynthesizer{llmClient: llmClient}
}

// llmAnswer 是模型被要求严格输出的 JSON 结构。
type llmAnswer struct {
	Reasoning  string `json:"reasoning"`
	Answer     string `json:"answer"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
	Citation   string `json:"citation"`
}

// Synthesize 基于检索结果合成回答。
// 合成永不抛错：模型通信失败或输出不可解析时返回低置信度的哨兵回答。
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, question *model.Question, chunks []model.RetrievedChunk) *model.Answer {
	prompt := s.buildPrompt(question, chunks)
	log.Infof("[Synthesizer] 调用大模型合成回答, 上下文分块数: %d", len(chunks))

	raw, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		log.Errorf("[Synthesizer] 大模型调用失败, Error: %v", err)
		return model.FallbackAnswer("与大模型通信失败，请稍后重试。", fmt.Sprintf("模型调用失败: %v", err))
	}

	var parsed llmAnswer
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		log.Errorf("[Synthesizer] 模型输出不是合法 JSON, Error: %v, Raw: %s", err, raw)
		return model.FallbackAnswer("模型输出无法解析，请重试。", "模型未按要求返回 JSON")
	}

	answer, err := model.NewAnswer(
		parsed.Answer,
		parsed.Source,
		model.ParseConfidence(parsed.Confidence),
		parsed.Reasoning,
		citationOrNA(parsed.Citation),
	)
	if err != nil {
		log.Warnf("[Synthesizer] 模型输出缺少必要字段, Error: %v", err)
		return model.FallbackAnswer("模型输出不完整，请重试。", fmt.Sprintf("模型输出缺少必要字段: %v", err))
	}

	log.Infof("[Synthesizer] 回答合成完成, Source: %s, Confidence: %s", answer.Source, answer.Confidence)
	return answer
}

// buildPrompt 组装思维链提示词：带来源标注的上下文块 + 问题 + 严格的 JSON 输出契约。
func (s *AnswerSynthesizer) buildPrompt(question *model.Question, chunks []model.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for _, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf("[文档: %s]\n%s\n\n", chunk.Source, chunk.TextContent))
	}

	return fmt.Sprintf(`你是一个严谨的文档问答助手。请仅依据下面提供的文档内容回答用户问题。

文档内容:
%s
用户问题: %s

请先在内部逐步推理：定位与问题相关的文档段落，判断其是否足以回答问题，再得出结论。
如果文档内容不足以回答问题，answer 字段必须说明"根据提供的文档无法回答该问题"，source 填 "N/A"，confidence 填 "low"。

回答必须是一个 JSON 对象，且只输出 JSON，不要输出任何其他文字。字段要求:
{
  "reasoning": "你的推理过程",
  "answer": "最终回答",
  "source": "回答依据的文档名，无法回答时为 N/A",
  "confidence": "low、medium 或 high 三者之一",
  "citation": "支撑回答的原文片段，没有则为 N/A"
}`, contextBuilder.String(), question.Text)
}

// stripCodeFence 去掉模型可能包裹在 JSON 外层的 Markdown 代码围栏。
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func citationOrNA(citation string) string {
	if strings.TrimSpace(citation) == "" {
		return "N/A"
	}
	return citation
}
