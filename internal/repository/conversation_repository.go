package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"doc-qa-go/internal/model"
)

// ConversationRepository 定义了对话历史记录的操作接口。
// 历史按用户标识分键存储在 Redis 中，超出容量时裁剪为最近若干条。
type ConversationRepository interface {
	GetHistory(ctx context.Context, userID string) ([]model.ChatMessage, error)
	AppendExchange(ctx context.Context, userID, question, answer string) error
	ClearHistory(ctx context.Context, userID string) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
	maxMessages int
	ttl         time.Duration
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client, maxMessages int, ttl time.Duration) ConversationRepository {
	return &redisConversationRepository{
		redisClient: redisClient,
		maxMessages: maxMessages,
		ttl:         ttl,
	}
}

func (r *redisConversationRepository) historyKey(userID string) string {
	return fmt.Sprintf("conversation:%s", userID)
}

// GetHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetHistory(ctx context.Context, userID string) ([]model.ChatMessage, error) {
	jsonData, err := r.redisClient.Get(ctx, r.historyKey(userID)).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}

	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendExchange 将一轮问答追加到用户的对话历史，并裁剪到容量上限。
func (r *redisConversationRepository) AppendExchange(ctx context.Context, userID, question, answer string) error {
	messages, err := r.GetHistory(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	messages = append(messages,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(messages) > r.maxMessages {
		messages = messages[len(messages)-r.maxMessages:]
	}

	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, r.historyKey(userID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

// ClearHistory 清空指定用户的对话历史。
func (r *redisConversationRepository) ClearHistory(ctx context.Context, userID string) error {
	return r.redisClient.Del(ctx, r.historyKey(userID)).Err()
}
