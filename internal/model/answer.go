package model

import (
	"errors"
	"strings"
	"time"
)

// ConfidenceLevel 是回答置信度的封闭枚举。
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ParseConfidence 将模型输出的置信度字符串解析为枚举值。
// 仅接受大小写不敏感的精确匹配，其余任何值一律归为 low，
// 避免把模型返回的任意字符串当作领域值向下游传播。
func ParseConfidence(s string) ConfidenceLevel {
	switch ConfidenceLevel(strings.ToLower(s)) {
	case ConfidenceLow:
		return ConfidenceLow
	case ConfidenceMedium:
		return ConfidenceMedium
	case ConfidenceHigh:
		return ConfidenceHigh
	default:
		return ConfidenceLow
	}
}

// Answer 代表一次由大模型合成的最终回答，每次查询构造一次，不做持久化。
type Answer struct {
	Text       string          `json:"text"`
	Source     string          `json:"source"`
	Confidence ConfidenceLevel `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
	Citation   string          `json:"citation,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewAnswer 构造回答实体。正文、来源与推理过程缺一不可；
// 构造失败是致命错误，调用方应改用 FallbackAnswer 产生哨兵回答。
func NewAnswer(text, source string, confidence ConfidenceLevel, reasoning, citation string) (*Answer, error) {
	if text == "" {
		return nil, errors.New("回答内容不能为空")
	}
	if source == "" {
		return nil, errors.New("回答来源不能为空")
	}
	if reasoning == "" {
		return nil, errors.New("推理过程不能为空")
	}
	return &Answer{
		Text:       text,
		Source:     source,
		Confidence: confidence,
		Reasoning:  reasoning,
		Citation:   citation,
		CreatedAt:  time.Now(),
	}, nil
}

// FallbackAnswer 构造一个低置信度的哨兵回答，用于合成失败时兜底。
func FallbackAnswer(text, reasoning string) *Answer {
	return &Answer{
		Text:       text,
		Source:     "N/A",
		Confidence: ConfidenceLow,
		Reasoning:  reasoning,
		CreatedAt:  time.Now(),
	}
}

// IsHighConfidence 判断回答是否为高置信度。
func (a *Answer) IsHighConfidence() bool {
	return a.Confidence == ConfidenceHigh
}

// HasCitation 判断回答是否携带有效引用。
func (a *Answer) HasCitation() bool {
	return a.Citation != "" && a.Citation != "N/A"
}
