package model

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    *uuid.UUID `gorm:"type:uuid;index"` // nullable for legacy anonymous rows
	Title     string     `gorm:"type:varchar(255);not null;default:'Conversation'"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`

	Messages []Message `gorm:"foreignKey:ConversationId;constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string {
	return "conversations"
}
