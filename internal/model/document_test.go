package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustChunk(t *testing.T, docID string, index int, content string) *DocumentChunk {
	t.Helper()
	chunk, err := NewDocumentChunk(docID, index, content, "manual.pdf", []float32{0.1, 0.2})
	require.NoError(t, err)
	return chunk
}

func TestNewDocumentChunkRejectsBlankContent(t *testing.T) {
	_, err := NewDocumentChunk("manual.pdf", 0, "   ", "manual.pdf", nil)
	assert.Error(t, err)
}

func TestDocumentChunkIDFormat(t *testing.T) {
	chunk := mustChunk(t, "manual.pdf", 3, "内容")
	assert.Equal(t, "manual.pdf_3", chunk.ID)
	assert.Equal(t, 3, chunk.ChunkIndex)
}

func TestNewDocumentValidation(t *testing.T) {
	chunks := []*DocumentChunk{mustChunk(t, "manual.pdf", 0, "内容")}

	_, err := NewDocument("manual.pdf", "", "全文", chunks)
	assert.Error(t, err)

	_, err = NewDocument("manual.pdf", "manual.pdf", "", chunks)
	assert.Error(t, err)

	_, err = NewDocument("manual.pdf", "manual.pdf", "全文", nil)
	assert.Error(t, err)

	doc, err := NewDocument("manual.pdf", "manual.pdf", "全文", chunks)
	require.NoError(t, err)
	assert.True(t, doc.IsValid())
	assert.Equal(t, 1, doc.ChunkCount())
}

func TestDocumentChunkByIndex(t *testing.T) {
	doc, err := NewDocument("manual.pdf", "manual.pdf", "全文", []*DocumentChunk{
		mustChunk(t, "manual.pdf", 0, "第一块"),
		mustChunk(t, "manual.pdf", 1, "第二块"),
	})
	require.NoError(t, err)

	chunk := doc.ChunkByIndex(1)
	require.NotNil(t, chunk)
	assert.Equal(t, "第二块", chunk.Content)

	assert.Nil(t, doc.ChunkByIndex(2))
	assert.Nil(t, doc.ChunkByIndex(-1))
}
