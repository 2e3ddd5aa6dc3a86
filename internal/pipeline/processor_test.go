package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractFile(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ io.Reader, _ string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	failAfter int // 第 N 次调用开始失败；0 表示永不失败
	calls     int
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeDocRepo struct {
	saved     *model.Document
	saveCalls int
	saveErr   error
}

func (f *fakeDocRepo) Save(document *model.Document) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	// 与 MySQL 实现一致：按文档 ID 覆盖写
	f.saved = document
	return nil
}
func (f *fakeDocRepo) FindByID(string) (*model.Document, error)       { return nil, nil }
func (f *fakeDocRepo) FindByFilename(string) (*model.Document, error) { return nil, nil }
func (f *fakeDocRepo) FindAll() ([]*model.Document, error)            { return nil, nil }
func (f *fakeDocRepo) Delete(string) error                            { return nil }
func (f *fakeDocRepo) Count() (int64, error)                          { return 0, nil }

type fakeVectorRepo struct {
	added          []model.EsChunk
	addErr         error
	deleteErr      error
	deletedSources []string
}

func (f *fakeVectorRepo) Add(_ context.Context, chunks []model.EsChunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks...)
	return nil
}

func (f *fakeVectorRepo) Query(_ context.Context, _ []float32, _ int) ([]model.RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeVectorRepo) QueryText(_ context.Context, _ string, _ int) ([]model.RetrievedChunk, error) {
	return nil, nil
}

func (f *fakeVectorRepo) DeleteBySource(_ context.Context, source string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.deletedSources = append(f.deletedSources, source)
	return true, nil
}

func (f *fakeVectorRepo) Count(_ context.Context) (int64, error) { return int64(len(f.added)), nil }
func (f *fakeVectorRepo) Clear(_ context.Context) error          { return nil }

func newTestProcessor(extractor TextExtractor, embedder *fakeEmbedder, docRepo *fakeDocRepo, vecRepo *fakeVectorRepo) *Processor {
	return NewProcessor(
		extractor,
		embedder,
		docRepo,
		vecRepo,
		config.MinIOConfig{BucketName: "documents"},
		config.EmbeddingConfig{Model: "text-embedding-v1"},
		config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 200, TopK: 5},
	)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestMissingFile(t *testing.T) {
	p := newTestProcessor(&fakeExtractor{}, &fakeEmbedder{}, &fakeDocRepo{}, &fakeVectorRepo{})

	result := p.Ingest(context.Background(), "/no/such/file.pdf", 1000, 200)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "文件不存在")
}

func TestIngestEmptyExtraction(t *testing.T) {
	path := writeTempFile(t, "empty.pdf", "binary")
	p := newTestProcessor(&fakeExtractor{text: "   \n  "}, &fakeEmbedder{}, &fakeDocRepo{}, &fakeVectorRepo{})

	result := p.Ingest(context.Background(), path, 1000, 200)

	assert.False(t, result.Success)
	assert.Equal(t, "无法从文件中提取文本", result.Message)
}

func TestIngestExtractionError(t *testing.T) {
	path := writeTempFile(t, "broken.pdf", "binary")
	p := newTestProcessor(&fakeExtractor{err: errors.New("tika down")}, &fakeEmbedder{}, &fakeDocRepo{}, &fakeVectorRepo{})

	result := p.Ingest(context.Background(), path, 1000, 200)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "提取文本失败")
}

func TestIngestSuccess(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	text := strings.Repeat("段落内容。", 30) // 150 个字符，chunkSize 60 下会产生多个分块
	extractor := &fakeExtractor{text: text}
	docRepo := &fakeDocRepo{}
	vecRepo := &fakeVectorRepo{}
	p := newTestProcessor(extractor, &fakeEmbedder{}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 60, 10)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, "manual.pdf", result.Filename)
	assert.Equal(t, "manual.pdf", result.DocumentID)
	assert.Greater(t, result.ChunkCount, 1)

	require.NotNil(t, docRepo.saved)
	assert.Equal(t, result.ChunkCount, docRepo.saved.ChunkCount())
	assert.Len(t, vecRepo.added, result.ChunkCount)
	for i, chunk := range vecRepo.added {
		assert.Equal(t, "manual.pdf", chunk.Source)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.NotEmpty(t, chunk.Vector)
		assert.Equal(t, "text-embedding-v1", chunk.ModelVersion)
	}
}

func TestIngestEmbeddingFailureAborts(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	text := strings.Repeat("段落内容。", 30)
	docRepo := &fakeDocRepo{}
	vecRepo := &fakeVectorRepo{}
	p := newTestProcessor(&fakeExtractor{text: text}, &fakeEmbedder{failAfter: 2}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 60, 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "向量化失败")
	assert.Nil(t, docRepo.saved)
	assert.Empty(t, vecRepo.added)
}

func TestIngestDocSaveFailureRollsBackVectors(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	docRepo := &fakeDocRepo{saveErr: errors.New("mysql gone")}
	vecRepo := &fakeVectorRepo{}
	p := newTestProcessor(&fakeExtractor{text: "足够长的一段文档内容，用于入库。"}, &fakeEmbedder{}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 1000, 200)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "文档保存失败")
	// 向量先落库，文档保存失败后按来源回收
	assert.NotEmpty(t, vecRepo.added)
	assert.Equal(t, []string{"manual.pdf"}, vecRepo.deletedSources)
}

func TestIngestRollbackFailureSurfacesInconsistency(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	docRepo := &fakeDocRepo{saveErr: errors.New("mysql gone")}
	vecRepo := &fakeVectorRepo{deleteErr: errors.New("es unreachable")}
	p := newTestProcessor(&fakeExtractor{text: "足够长的一段文档内容，用于入库。"}, &fakeEmbedder{}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 1000, 200)

	assert.False(t, result.Success)
	// 回收也失败时，结果必须指出索引中残留了该来源的分块
	assert.Contains(t, result.Message, "向量回收失败")
	assert.Contains(t, result.Message, "manual.pdf")
}

func TestIngestSameFileTwiceDuplicatesVectors(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	text := strings.Repeat("段落内容。", 30)
	docRepo := &fakeDocRepo{}
	vecRepo := &fakeVectorRepo{}
	p := newTestProcessor(&fakeExtractor{text: text}, &fakeEmbedder{}, docRepo, vecRepo)

	first := p.Ingest(context.Background(), path, 60, 10)
	require.True(t, first.Success, first.Message)
	second := p.Ingest(context.Background(), path, 60, 10)
	require.True(t, second.Success, second.Message)

	// 向量索引不去重：重复入库同一文件后可检索分块翻倍
	assert.Len(t, vecRepo.added, first.ChunkCount*2)
	// 文档仓储按 ID 覆盖写，只保留最后一次入库的聚合
	assert.Equal(t, 2, docRepo.saveCalls)
	require.NotNil(t, docRepo.saved)
	assert.Equal(t, second.ChunkCount, docRepo.saved.ChunkCount())
}

func TestIngestVectorWriteFailure(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	docRepo := &fakeDocRepo{}
	vecRepo := &fakeVectorRepo{addErr: errors.New("es unreachable")}
	p := newTestProcessor(&fakeExtractor{text: "足够长的一段文档内容，用于入库。"}, &fakeEmbedder{}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 1000, 200)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "向量索引写入失败")
	assert.Nil(t, docRepo.saved)
}

func TestIngestUsesConfigDefaultsForInvalidSizes(t *testing.T) {
	path := writeTempFile(t, "manual.pdf", "binary")
	docRepo := &fakeDocRepo{}
	vecRepo := &fakeVectorRepo{}
	p := newTestProcessor(&fakeExtractor{text: "一段简短的内容。"}, &fakeEmbedder{}, docRepo, vecRepo)

	result := p.Ingest(context.Background(), path, 0, -1)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.ChunkCount)
}
