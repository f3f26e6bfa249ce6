package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jarvisbot/jarvis-gateway/internal/model"
	"gorm.io/gorm"
)

const (
	senderTypeBot  = "jarvis"
	senderTypeUser = "user"
	personaBot     = "jarvis-core"
	personaUser    = "tori"
)

// MemoryLogStore 把问答写入 memory_log 表
type MemoryLogStore struct {
	db             *gorm.DB
	userID         string
	conversationID string
}

// NewMemoryLogStore 创建 memory_log 记录器
func NewMemoryLogStore(db *gorm.DB, userID, conversationID string) *MemoryLogStore {
	return &MemoryLogStore{
		db:             db,
		userID:         userID,
		conversationID: conversationID,
	}
}

// Migrate 建表
func (s *MemoryLogStore) Migrate() error {
	return s.db.AutoMigrate(&model.MemoryLog{})
}

// Record 一次 INSERT 写入用户和机器人两行
func (s *MemoryLogStore) Record(ctx context.Context, exchange model.Exchange) error {
	rows := s.rows(exchange)
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("写入 memory_log 失败: %w", err)
	}
	return nil
}

func (s *MemoryLogStore) rows(exchange model.Exchange) []model.MemoryLog {
	row := func(speaker, text, senderType, persona string) model.MemoryLog {
		return model.MemoryLog{
			ID:             uuid.New(),
			UserID:         s.userID,
			ConversationID: s.conversationID,
			Speaker:        speaker,
			Message:        text,
			Content:        text,
			SenderType:     senderType,
			Persona:        persona,
			Mode:           exchange.Mode,
			RequestID:      exchange.RequestID,
			CreatedAt:      exchange.At,
		}
	}
	return []model.MemoryLog{
		row(model.SpeakerUser, exchange.UserText, senderTypeUser, personaUser),
		row(model.SpeakerBot, exchange.Reply, senderTypeBot, personaBot),
	}
}
