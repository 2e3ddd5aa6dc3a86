package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmptyText(t *testing.T) {
	s := NewRecursiveSplitter()
	assert.Empty(t, s.Split("", 100, 20))
}

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter()
	chunks := s.Split("hello world", 100, 20)
	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewRecursiveSplitter()
	text := "aaaa\n\nbbbb\n\ncccc"
	chunks := s.Split(text, 10, 0)

	assert.Equal(t, []string{"aaaa\n\n", "bbbb\n\ncccc"}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	s := NewRecursiveSplitter()
	chunks := s.Split("One. Two. Three.", 10, 0)
	assert.Equal(t, []string{"One. Two. ", "Three."}, chunks)
}

func TestSplitCarriesExactOverlap(t *testing.T) {
	s := NewRecursiveSplitter()
	chunks := s.Split("aaaa bbbb cccc dddd", 10, 4)

	assert.Equal(t, []string{"aaaa bbbb ", "bbb cccc ", "ccc dddd"}, chunks)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-4:])
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"分块 %d 应以上一分块的重叠尾部开头", i)
	}
}

func TestSplitRespectsSizeBound(t *testing.T) {
	s := NewRecursiveSplitter()
	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString("palavra bastante longa. ")
		if i%7 == 0 {
			b.WriteString("\n\n")
		}
	}
	chunks := s.Split(b.String(), 50, 10)

	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
	}
}

func TestSplitHardCutsGiantToken(t *testing.T) {
	s := NewRecursiveSplitter()
	chunks := s.Split(strings.Repeat("x", 25), 10, 3)

	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)
}

func TestSplitRecursesIntoOversizedParagraph(t *testing.T) {
	s := NewRecursiveSplitter()
	text := "aaaa bbbb\n\ncc"
	chunks := s.Split(text, 6, 0)

	assert.Equal(t, []string{"aaaa ", "bbbb\n\n", "cc"}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitInvalidOverlapFallsBackToZero(t *testing.T) {
	s := NewRecursiveSplitter()
	chunks := s.Split("aaaa bbbb", 5, 7)
	assert.Equal(t, []string{"aaaa ", "bbbb"}, chunks)
}

func TestSplitHandlesMultibyteRunes(t *testing.T) {
	s := NewRecursiveSplitter()
	text := strings.Repeat("知", 12)
	chunks := s.Split(text, 5, 0)

	assert.Equal(t, []string{strings.Repeat("知", 5), strings.Repeat("知", 5), strings.Repeat("知", 2)}, chunks)
}
