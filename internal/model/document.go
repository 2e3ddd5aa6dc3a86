// Package model 包含了应用的领域实体与数据模型定义。
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Document 是文档聚合根，代表一份已完成入库的文档及其全部分块。
// 一经创建不再变更，由文档仓储独占管理。
type Document struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	Content   string           `json:"content"`
	Chunks    []*DocumentChunk `json:"chunks"`
	CreatedAt time.Time        `json:"createdAt"`
}

// DocumentChunk 代表文档切分后的一个文本分块，是检索的基本单位。
type DocumentChunk struct {
	ID         string    `json:"id"` // 形如 {documentID}_{index}
	DocumentID string    `json:"documentId"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunkIndex"`
	Source     string    `json:"source"`    // 来源文件名
	Embedding  []float32 `json:"embedding"` // 入库时生成的向量
}

// NewDocumentChunk 构造一个文档分块，内容去除空白后为空视为非法。
func NewDocumentChunk(documentID string, index int, content, source string, embedding []float32) (*DocumentChunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("分块内容不能为空")
	}
	return &DocumentChunk{
		ID:         fmt.Sprintf("%s_%d", documentID, index),
		DocumentID: documentID,
		Content:    content,
		ChunkIndex: index,
		Source:     source,
		Embedding:  embedding,
	}, nil
}

// NewDocument 构造文档聚合，校验文件名、正文与分块数量。
func NewDocument(id, filename, content string, chunks []*DocumentChunk) (*Document, error) {
	if filename == "" {
		return nil, errors.New("文件名不能为空")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("文档内容不能为空")
	}
	if len(chunks) == 0 {
		return nil, errors.New("文档必须至少包含一个分块")
	}
	return &Document{
		ID:        id,
		Filename:  filename,
		Content:   content,
		Chunks:    chunks,
		CreatedAt: time.Now(),
	}, nil
}

// ChunkCount 返回文档的分块数量。
func (d *Document) ChunkCount() int {
	return len(d.Chunks)
}

// IsValid 检查文档是否满足所有不变量。
func (d *Document) IsValid() bool {
	return d.Filename != "" && d.Content != "" && len(d.Chunks) > 0
}

// ChunkByIndex 按分块序号返回分块，越界时返回 nil。
func (d *Document) ChunkByIndex(index int) *DocumentChunk {
	if index < 0 || index >= len(d.Chunks) {
		return nil
	}
	return d.Chunks[index]
}
