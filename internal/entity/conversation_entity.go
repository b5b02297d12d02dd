package entity

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is an ordered thread of messages owned by a user. UserId is
// nullable: legacy rows created before auth was enforced have no owner.
type Conversation struct {
	Id        uuid.UUID
	UserId    *uuid.UUID
	Title     string
	CreatedAt time.Time
}

const DefaultConversationTitle = "Conversation"
