package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"doc-qa-go/internal/model"
	"doc-qa-go/pkg/log"
)

// VectorRepository 接口定义了向量索引的全部操作。
type VectorRepository interface {
	// Add 将分块连同向量批量写入索引。
	Add(ctx context.Context, chunks []model.EsChunk) error
	// Query 以向量做 kNN 检索，返回按相似度排序的前 topK 条结果。
	Query(ctx context.Context, vector []float32, topK int) ([]model.RetrievedChunk, error)
	// QueryText 以原始文本做关键词检索，供未携带向量的调用方兜底使用。
	QueryText(ctx context.Context, text string, topK int) ([]model.RetrievedChunk, error)
	// DeleteBySource 删除指定来源文件名下的全部分块。
	DeleteBySource(ctx context.Context, source string) (bool, error)
	// Count 返回索引中的分块总数。
	Count(ctx context.Context) (int64, error)
	// Clear 清空整个索引。
	Clear(ctx context.Context) error
}

// vectorRepository 是 VectorRepository 接口的 Elasticsearch 实现。
type vectorRepository struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewVectorRepository 创建一个新的 VectorRepository 实例。
func NewVectorRepository(esClient *elasticsearch.Client, indexName string) VectorRepository {
	return &vectorRepository{esClient: esClient, indexName: indexName}
}

// Add 将分块逐条索引到 Elasticsearch。
// 文档 ID 使用随机 UUID：重复入库同一来源会产生重复的可检索分块，
// 去重是调用方的责任（先 DeleteBySource 再入库）。
func (r *vectorRepository) Add(ctx context.Context, chunks []model.EsChunk) error {
	for _, chunk := range chunks {
		docBytes, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("序列化分块 %s 失败: %w", chunk.VectorID, err)
		}

		req := esapi.IndexRequest{
			Index:      r.indexName,
			DocumentID: uuid.New().String(),
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}

		res, err := req.Do(ctx, r.esClient)
		if err != nil {
			return fmt.Errorf("索引分块 %s 失败: %w", chunk.VectorID, err)
		}
		if res.IsError() {
			body, _ := io.ReadAll(res.Body)
			res.Body.Close()
			log.Errorf("[VectorRepository] 索引分块到 Elasticsearch 出错: %s", string(body))
			return fmt.Errorf("索引分块 %s 时 Elasticsearch 返回错误", chunk.VectorID)
		}
		res.Body.Close()
	}
	return nil
}

// Query 以向量做 kNN 检索。
func (r *vectorRepository) Query(ctx context.Context, vector []float32, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
		},
		"size": topK,
	}
	return r.search(ctx, esQuery)
}

// QueryText 以 BM25 match 查询做关键词检索。
func (r *vectorRepository) QueryText(ctx context.Context, text string, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"text_content": text,
			},
		},
		"size": topK,
	}
	return r.search(ctx, esQuery)
}

// search 执行查询并把命中解析为检索结果。
func (r *vectorRepository) search(ctx context.Context, esQuery map[string]interface{}) ([]model.RetrievedChunk, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[VectorRepository] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsChunk `json:"_source"`
				Score  float64       `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.RetrievedChunk, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.RetrievedChunk{
			TextContent: hit.Source.TextContent,
			Source:      hit.Source.Source,
			Score:       hit.Score,
		})
	}
	return results, nil
}

// DeleteBySource 通过 delete_by_query 删除指定来源的全部分块。
func (r *vectorRepository) DeleteBySource(ctx context.Context, source string) (bool, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"source": source,
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return false, fmt.Errorf("failed to encode delete query: %w", err)
	}

	res, err := r.esClient.DeleteByQuery(
		[]string{r.indexName},
		&buf,
		r.esClient.DeleteByQuery.WithContext(ctx),
		r.esClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return false, fmt.Errorf("delete_by_query failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[VectorRepository] 按来源删除失败, status: %s, body: %s", res.Status(), string(bodyBytes))
		return false, fmt.Errorf("按来源 %s 删除分块时 Elasticsearch 返回错误: %s", source, res.Status())
	}
	return true, nil
}

// Count 返回索引中的分块总数。
func (r *vectorRepository) Count(ctx context.Context) (int64, error) {
	res, err := r.esClient.Count(
		r.esClient.Count.WithContext(ctx),
		r.esClient.Count.WithIndex(r.indexName),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.New("统计分块总数时 Elasticsearch 返回错误")
	}

	var countResp struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return countResp.Count, nil
}

// Clear 通过 match_all 的 delete_by_query 清空索引。
func (r *vectorRepository) Clear(ctx context.Context) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("failed to encode clear query: %w", err)
	}

	res, err := r.esClient.DeleteByQuery(
		[]string{r.indexName},
		&buf,
		r.esClient.DeleteByQuery.WithContext(ctx),
		r.esClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("delete_by_query failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.New("清空索引时 Elasticsearch 返回错误")
	}
	return nil
}
