package repository

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTransport 按路径返回预置的 HTTP 响应，模拟 Elasticsearch 服务端。
type stubTransport struct {
	statusCode int
	body       string
}

func (t *stubTransport) RoundTrip(_ *http.Request) (*http.Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Elastic-Product", "Elasticsearch")
	return &http.Response{
		StatusCode: t.statusCode,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(t.body)),
	}, nil
}

func newStubESRepo(t *testing.T, statusCode int, body string) VectorRepository {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://stub:9200"},
		Transport: &stubTransport{statusCode: statusCode, body: body},
	})
	require.NoError(t, err)
	return NewVectorRepository(client, "doc_qa_chunks")
}

func TestDeleteBySourceSucceeds(t *testing.T) {
	repo := newStubESRepo(t, http.StatusOK, `{"deleted": 3}`)

	ok, err := repo.DeleteBySource(context.Background(), "manual.pdf")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteBySourceReportsESError(t *testing.T) {
	// Elasticsearch 返回错误状态时必须向调用方抛错，不能在仓储内吞掉：
	// 调用方要依据它感知两个存储间的不一致
	repo := newStubESRepo(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)

	ok, err := repo.DeleteBySource(context.Background(), "manual.pdf")

	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "manual.pdf")
}

func TestClearReportsESError(t *testing.T) {
	repo := newStubESRepo(t, http.StatusInternalServerError, `{"error":{}}`)

	assert.Error(t, repo.Clear(context.Background()))
}
