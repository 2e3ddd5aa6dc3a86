package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// minQuestionLength 是问题文本的最小有效长度（按字符计）。
const minQuestionLength = 3

// Question 代表一次用户提问，仅在查询过程中存在，不做持久化。
type Question struct {
	Text      string    `json:"text"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewQuestion 构造问题实体，文本首尾空白在构造时去除。
func NewQuestion(text, userID string) *Question {
	return &Question{
		Text:      strings.TrimSpace(text),
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// IsValid 检查问题是否满足最小长度要求。
func (q *Question) IsValid() bool {
	return utf8.RuneCountInString(q.Text) >= minQuestionLength
}

// WordCount 返回问题的词数。
func (q *Question) WordCount() int {
	return len(strings.Fields(q.Text))
}
