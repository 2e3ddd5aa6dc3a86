// Package repository 定义了与存储层进行数据交换的接口和实现。
package repository

import (
	"errors"

	"gorm.io/gorm"

	"doc-qa-go/internal/model"
)

// DocumentRepository 接口定义了文档聚合的持久化操作。
// 仅提供精确匹配查询，检索语义由向量索引承担。
type DocumentRepository interface {
	Save(document *model.Document) error
	FindByID(id string) (*model.Document, error)
	FindByFilename(filename string) (*model.Document, error)
	FindAll() ([]*model.Document, error)
	Delete(id string) error
	Count() (int64, error)
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Save 保存文档聚合。同一文档 ID 重复保存时为后写覆盖：
// 在一个事务内删除旧记录与旧分块后重新写入。
func (r *documentRepository) Save(document *model.Document) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", document.ID).Delete(&model.ChunkRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", document.ID).Delete(&model.DocumentRecord{}).Error; err != nil {
			return err
		}

		record := &model.DocumentRecord{
			ID:        document.ID,
			Filename:  document.Filename,
			Content:   document.Content,
			CreatedAt: document.CreatedAt,
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		chunkRecords := make([]*model.ChunkRecord, 0, len(document.Chunks))
		for _, chunk := range document.Chunks {
			chunkRecords = append(chunkRecords, &model.ChunkRecord{
				ID:         chunk.ID,
				DocumentID: chunk.DocumentID,
				ChunkIndex: chunk.ChunkIndex,
				Content:    chunk.Content,
				Source:     chunk.Source,
			})
		}
		return tx.CreateInBatches(chunkRecords, 100).Error
	})
}

// FindByID 根据文档 ID 查找文档及其全部分块。
func (r *documentRepository) FindByID(id string) (*model.Document, error) {
	var record model.DocumentRecord
	if err := r.db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.assemble(&record)
}

// FindByFilename 根据文件名查找文档。
func (r *documentRepository) FindByFilename(filename string) (*model.Document, error) {
	var record model.DocumentRecord
	if err := r.db.Where("filename = ?", filename).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.assemble(&record)
}

// FindAll 返回全部文档。
func (r *documentRepository) FindAll() ([]*model.Document, error) {
	var records []model.DocumentRecord
	if err := r.db.Order("created_at asc").Find(&records).Error; err != nil {
		return nil, err
	}

	documents := make([]*model.Document, 0, len(records))
	for i := range records {
		doc, err := r.assemble(&records[i])
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// Delete 删除文档及其全部分块记录。
// 注意：向量索引中的副本不随之删除，需要调用方显式执行按来源删除。
func (r *documentRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.ChunkRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.DocumentRecord{}).Error
	})
}

// Count 返回已入库的文档总数。
func (r *documentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.DocumentRecord{}).Count(&count).Error
	return count, err
}

// assemble 将数据库记录装配为文档聚合。
func (r *documentRepository) assemble(record *model.DocumentRecord) (*model.Document, error) {
	var chunkRecords []model.ChunkRecord
	if err := r.db.Where("document_id = ?", record.ID).Order("chunk_index asc").Find(&chunkRecords).Error; err != nil {
		return nil, err
	}

	chunks := make([]*model.DocumentChunk, 0, len(chunkRecords))
	for _, cr := range chunkRecords {
		chunks = append(chunks, &model.DocumentChunk{
			ID:         cr.ID,
			DocumentID: cr.DocumentID,
			Content:    cr.Content,
			ChunkIndex: cr.ChunkIndex,
			Source:     cr.Source,
		})
	}

	return &model.Document{
		ID:        record.ID,
		Filename:  record.Filename,
		Content:   record.Content,
		Chunks:    chunks,
		CreatedAt: record.CreatedAt,
	}, nil
}
