package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/model"
)

type stubDocRepo struct {
	document  *model.Document
	deleted   []string
	deleteErr error
}

func (s *stubDocRepo) Save(*model.Document) error { return nil }

func (s *stubDocRepo) FindByID(id string) (*model.Document, error) {
	if s.document != nil && s.document.ID == id {
		return s.document, nil
	}
	return nil, nil
}

func (s *stubDocRepo) FindByFilename(string) (*model.Document, error) { return s.document, nil }
func (s *stubDocRepo) FindAll() ([]*model.Document, error) {
	if s.document == nil {
		return nil, nil
	}
	return []*model.Document{s.document}, nil
}

func (s *stubDocRepo) Delete(id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubDocRepo) Count() (int64, error) { return 1, nil }

func storedDocument(t *testing.T) *model.Document {
	t.Helper()
	chunk, err := model.NewDocumentChunk("manual.pdf", 0, "内容", "manual.pdf", []float32{0.1})
	require.NoError(t, err)
	doc, err := model.NewDocument("manual.pdf", "manual.pdf", "全文", []*model.DocumentChunk{chunk})
	require.NoError(t, err)
	return doc
}

func TestDeleteUnknownDocument(t *testing.T) {
	svc := NewDocumentService(&stubDocRepo{}, &stubVectorRepo{}, config.MinIOConfig{BucketName: "doc-qa"})

	err := svc.Delete(context.Background(), "nope.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "文档不存在")
}

func TestDeleteVectorCleanupFailurePropagates(t *testing.T) {
	// 文档记录已删而分块清理失败：两个存储不一致，必须让调用方感知
	docRepo := &stubDocRepo{document: storedDocument(t)}
	vecRepo := &stubVectorRepo{deleteErr: errors.New("es unreachable")}
	svc := NewDocumentService(docRepo, vecRepo, config.MinIOConfig{BucketName: "doc-qa"})

	err := svc.Delete(context.Background(), "manual.pdf")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "清理向量分块失败")
	assert.Equal(t, []string{"manual.pdf"}, docRepo.deleted)
}
