package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuestionTrimsWhitespace(t *testing.T) {
	q := NewQuestion("  hi  ", "")
	assert.Equal(t, "hi", q.Text)
}

func TestQuestionValidity(t *testing.T) {
	cases := []struct {
		text  string
		valid bool
	}{
		{"", false},
		{"  ", false},
		{"hi", false},
		{"  hi  ", false}, // 去除空白后只剩 2 个字符
		{"abc", true},
		{"hello", true},
		{"你好吗", true}, // 按字符而非字节计数
		{"你好", false},
	}
	for _, tc := range cases {
		q := NewQuestion(tc.text, "")
		assert.Equal(t, tc.valid, q.IsValid(), "text=%q", tc.text)
	}
}

func TestQuestionWordCount(t *testing.T) {
	q := NewQuestion("what is the return policy", "")
	assert.Equal(t, 5, q.WordCount())
}
