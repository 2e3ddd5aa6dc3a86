package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfidence(t *testing.T) {
	cases := []struct {
		raw  string
		want ConfidenceLevel
	}{
		{"low", ConfidenceLow},
		{"medium", ConfidenceMedium},
		{"high", ConfidenceHigh},
		{"HIGH", ConfidenceHigh},
		{"Medium", ConfidenceMedium},
		{"HIGH ", ConfidenceLow}, // 不做空白修剪，非精确匹配一律归 low
		{" high", ConfidenceLow},
		{"certain", ConfidenceLow},
		{"", ConfidenceLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseConfidence(tc.raw), "raw=%q", tc.raw)
	}
}

func TestNewAnswerRequiredFields(t *testing.T) {
	_, err := NewAnswer("", "doc.pdf", ConfidenceHigh, "推理", "引用")
	assert.Error(t, err)

	_, err = NewAnswer("回答", "", ConfidenceHigh, "推理", "引用")
	assert.Error(t, err)

	_, err = NewAnswer("回答", "doc.pdf", ConfidenceHigh, "", "引用")
	assert.Error(t, err)

	a, err := NewAnswer("回答", "doc.pdf", ConfidenceHigh, "推理", "")
	require.NoError(t, err)
	assert.True(t, a.IsHighConfidence())
	assert.False(t, a.HasCitation())
}

func TestFallbackAnswerSentinels(t *testing.T) {
	a := FallbackAnswer("无法回答", "索引为空")

	assert.Equal(t, "N/A", a.Source)
	assert.Equal(t, ConfidenceLow, a.Confidence)
	assert.False(t, a.IsHighConfidence())
	assert.False(t, a.HasCitation())
}

func TestHasCitationExcludesNA(t *testing.T) {
	a, err := NewAnswer("回答", "doc.pdf", ConfidenceMedium, "推理", "N/A")
	require.NoError(t, err)
	assert.False(t, a.HasCitation())

	a.Citation = "原文片段"
	assert.True(t, a.HasCitation())
}

func TestNewAskResultAlwaysFiveFields(t *testing.T) {
	a, err := NewAnswer("回答", "doc.pdf", ConfidenceHigh, "推理", "")
	require.NoError(t, err)

	result := NewAskResult(a, true)

	assert.Equal(t, "回答", result.Answer)
	assert.Equal(t, "doc.pdf", result.Source)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "推理", result.Reasoning)
	assert.Equal(t, "N/A", result.Citation) // 缺失引用渲染为哨兵值
	assert.True(t, result.Success)
}

func TestFailedAskResult(t *testing.T) {
	result := FailedAskResult("知识库为空", "未检索到分块")

	assert.False(t, result.Success)
	assert.Equal(t, "N/A", result.Source)
	assert.Equal(t, "low", result.Confidence)
	assert.Equal(t, "N/A", result.Citation)
	assert.NotEmpty(t, result.Answer)
	assert.NotEmpty(t, result.Reasoning)
}
