package model

import "time"

// DocumentRecord 对应于数据库中的 documents 表。
type DocumentRecord struct {
	ID        string    `gorm:"type:varchar(255);primaryKey;column:id"`
	Filename  string    `gorm:"type:varchar(255);not null;uniqueIndex;column:filename"`
	Content   string    `gorm:"type:longtext;column:content"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentRecord) TableName() string {
	return "documents"
}

// ChunkRecord 对应于数据库中的 document_chunks 表。
// 向量不落 MySQL，只随分块写入 Elasticsearch。
type ChunkRecord struct {
	ID         string `gorm:"type:varchar(255);primaryKey;column:id"`
	DocumentID string `gorm:"type:varchar(255);not null;index;column:document_id"`
	ChunkIndex int    `gorm:"not null;column:chunk_index"`
	Content    string `gorm:"type:text;column:content"`
	Source     string `gorm:"type:varchar(255);not null;index;column:source"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChunkRecord) TableName() string {
	return "document_chunks"
}
