package model

import (
	"time"

	"github.com/google/uuid"
)

// 发言方
const (
	SpeakerUser = "user"
	SpeakerBot  = "bot"
)

// MemoryLog memory_log 表的一行
type MemoryLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         string    `gorm:"type:text;index"`
	ConversationID string    `gorm:"type:text;index"`
	Speaker        string    `gorm:"type:varchar(16);not null"`
	Message        string    `gorm:"type:text;not null"`
	Content        string    `gorm:"type:text"` // 旧列兼容
	SenderType     string    `gorm:"type:varchar(32)"`
	Persona        string    `gorm:"type:varchar(64)"`
	Mode           string    `gorm:"type:varchar(16)"`
	RequestID      string    `gorm:"type:varchar(64)"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (MemoryLog) TableName() string {
	return "memory_log"
}
