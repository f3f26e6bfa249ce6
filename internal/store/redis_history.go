package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jarvisbot/jarvis-gateway/internal/model"
	"github.com/redis/go-redis/v9"
)

// historyTTL 对话历史过期时间
const historyTTL = 24 * time.Hour

// RedisHistory 把问答追加到 Redis 列表，只保留最近 limit 条
type RedisHistory struct {
	client         redis.Cmdable
	conversationID string
	limit          int64
}

// NewRedisHistory 创建 Redis 对话历史
func NewRedisHistory(client redis.Cmdable, conversationID string, limit int64) *RedisHistory {
	if limit <= 0 {
		limit = 50
	}
	return &RedisHistory{
		client:         client,
		conversationID: conversationID,
		limit:          limit,
	}
}

// HistoryKey 对话历史的 key
func HistoryKey(conversationID string) string {
	return fmt.Sprintf("chat_history:%s", conversationID)
}

// Record 记录一次问答
func (r *RedisHistory) Record(ctx context.Context, exchange model.Exchange) error {
	key := HistoryKey(r.conversationID)

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key,
		model.SpeakerUser+": "+exchange.UserText,
		model.SpeakerBot+": "+exchange.Reply)
	pipe.LTrim(ctx, key, -r.limit, -1)
	pipe.Expire(ctx, key, historyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入对话历史失败: %w", err)
	}
	return nil
}
