package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

type stubVectorRepo struct {
	chunks    []model.RetrievedChunk
	queryErr  error
	deleteErr error
	calls     int
	lastTopK  int
}

func (s *stubVectorRepo) Add(_ context.Context, _ []model.EsChunk) error { return nil }

func (s *stubVectorRepo) Query(_ context.Context, _ []float32, topK int) ([]model.RetrievedChunk, error) {
	s.calls++
	s.lastTopK = topK
	return s.chunks, s.queryErr
}

func (s *stubVectorRepo) QueryText(_ context.Context, _ string, _ int) ([]model.RetrievedChunk, error) {
	return s.chunks, s.queryErr
}

func (s *stubVectorRepo) DeleteBySource(_ context.Context, _ string) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	return true, nil
}
func (s *stubVectorRepo) Count(_ context.Context) (int64, error) { return 0, nil }
func (s *stubVectorRepo) Clear(_ context.Context) error          { return nil }

func newTestQAService(embedder *stubEmbedder, vecRepo *stubVectorRepo, llmClient *fakeLLM) *QAService {
	return NewQAService(
		embedder,
		vecRepo,
		NewAnswerSynthesizer(llmClient),
		config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 5},
	)
}

func TestAskShortQuestionShortCircuits(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	vecRepo := &stubVectorRepo{}
	svc := newTestQAService(embedder, vecRepo, &fakeLLM{})

	// 去除首尾空白后只剩 2 个字符，不足 3
	result := svc.Ask(context.Background(), "  hi  ", 5, "")

	assert.False(t, result.Success)
	assert.Equal(t, "N/A", result.Source)
	assert.Equal(t, string(model.ConfidenceLow), result.Confidence)
	// 校验失败时不应触达向量化与检索
	assert.Zero(t, embedder.calls)
	assert.Zero(t, vecRepo.calls)
}

func TestAskMinimalValidQuestion(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(embedder, vecRepo, &fakeLLM{response: validJSON})

	result := svc.Ask(context.Background(), "hello", 5, "")

	assert.True(t, result.Success)
	assert.Equal(t, 1, embedder.calls)
}

func TestAskEmptyIndex(t *testing.T) {
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, &stubVectorRepo{}, &fakeLLM{})

	result := svc.Ask(context.Background(), "退货期限是多久", 5, "")

	assert.False(t, result.Success)
	assert.Equal(t, "N/A", result.Source)
	assert.Equal(t, string(model.ConfidenceLow), result.Confidence)
	assert.NotEmpty(t, result.Answer)
	assert.NotEmpty(t, result.Reasoning)
	assert.Equal(t, "N/A", result.Citation)
}

func TestAskHappyPath(t *testing.T) {
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, vecRepo, &fakeLLM{response: validJSON})

	result := svc.Ask(context.Background(), "退货期限是多久", 3, "")

	assert.True(t, result.Success)
	assert.Equal(t, "签收后 30 天内可以退货。", result.Answer)
	assert.Equal(t, "policy.pdf", result.Source)
	assert.Equal(t, "high", result.Confidence)
	assert.NotEmpty(t, result.Reasoning)
	assert.NotEmpty(t, result.Citation)
	assert.Equal(t, 3, vecRepo.lastTopK)
}

func TestAskNotFoundAnswerStillSucceeds(t *testing.T) {
	// 模型按协议返回"文档中没有答案"：这是一次完成的问答，不是失败
	notFound := `{"reasoning":"文档中没有相关内容。","answer":"根据提供的文档无法回答该问题","source":"N/A","confidence":"low","citation":"N/A"}`
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, vecRepo, &fakeLLM{response: notFound})

	result := svc.Ask(context.Background(), "退货期限是多久", 5, "")

	assert.True(t, result.Success)
	assert.Equal(t, "N/A", result.Source)
	assert.Equal(t, string(model.ConfidenceLow), result.Confidence)
}

func TestAskSynthesisFallbackStillSucceeds(t *testing.T) {
	// 模型输出不可解析时合成器产出哨兵回答，问答流程本身仍算完成
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, vecRepo, &fakeLLM{response: "不是 JSON"})

	result := svc.Ask(context.Background(), "退货期限是多久", 5, "")

	assert.True(t, result.Success)
	assert.Equal(t, "N/A", result.Source)
}

func TestAskDefaultTopK(t *testing.T) {
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, vecRepo, &fakeLLM{response: validJSON})

	svc.Ask(context.Background(), "退货期限是多久", 0, "")

	assert.Equal(t, 5, vecRepo.lastTopK)
}

func TestAskEmbeddingFailure(t *testing.T) {
	vecRepo := &stubVectorRepo{chunks: sampleChunks}
	svc := newTestQAService(&stubEmbedder{err: errors.New("quota exceeded")}, vecRepo, &fakeLLM{})

	result := svc.Ask(context.Background(), "退货期限是多久", 5, "")

	assert.False(t, result.Success)
	assert.Zero(t, vecRepo.calls)
}

func TestAskQueryFailure(t *testing.T) {
	vecRepo := &stubVectorRepo{queryErr: errors.New("es unreachable")}
	svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, vecRepo, &fakeLLM{})

	result := svc.Ask(context.Background(), "退货期限是多久", 5, "")

	assert.False(t, result.Success)
	assert.Equal(t, string(model.ConfidenceLow), result.Confidence)
}

func TestAskResultAlwaysCarriesAllFields(t *testing.T) {
	// 无论成功失败，五个协议字段都必须非空
	cases := []AskCase{
		{"短问题", func(svc *QAService) model.AskResult {
			return svc.Ask(context.Background(), "a", 5, "")
		}},
		{"空索引", func(svc *QAService) model.AskResult {
			return svc.Ask(context.Background(), "有效的问题", 5, "")
		}},
	}
	for _, tc := range cases {
		svc := newTestQAService(&stubEmbedder{vector: []float32{0.1}}, &stubVectorRepo{}, &fakeLLM{})
		result := tc.run(svc)
		assert.NotEmpty(t, result.Answer, tc.name)
		assert.NotEmpty(t, result.Source, tc.name)
		assert.NotEmpty(t, result.Confidence, tc.name)
		assert.NotEmpty(t, result.Reasoning, tc.name)
		assert.NotEmpty(t, result.Citation, tc.name)
	}
}

type AskCase struct {
	name string
	run  func(svc *QAService) model.AskResult
}
