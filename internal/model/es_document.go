package model

// EsChunk 定义了存储在 Elasticsearch 向量索引中的分块文档结构。
// 向量索引持有分块内容的独立副本，与文档仓储的生命周期互不影响。
type EsChunk struct {
	VectorID     string    `json:"vector_id"` // 分块标识，形如 {documentID}_{chunkIndex}
	DocumentID   string    `json:"document_id"`
	ChunkIndex   int       `json:"chunk_index"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	Source       string    `json:"source"` // 来源文件名，删除操作按此字段定位
	ModelVersion string    `json:"model_version"`
}

// RetrievedChunk 定义了向量检索返回的单条结果。
type RetrievedChunk struct {
	TextContent string  `json:"textContent"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}
