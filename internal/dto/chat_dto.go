package dto

import (
	"time"

	"voicevibe-be/pkg/store"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type VoiceResponse struct {
	Transcription string `json:"transcription"`
	Response      string `json:"response"`
}

// ConversationSummary is the list-view projection: newest first, snippet of
// the last message.
type ConversationSummary struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Snippet   string    `json:"snippet"`
}

type HistoryResponse struct {
	Conversations []*ConversationSummary `json:"conversations"`
}

type MessageDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationDetail struct {
	Id       uuid.UUID    `json:"id"`
	Title    string       `json:"title"`
	Messages []MessageDTO `json:"messages"`
}

type SessionHistoryRequest struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

type SessionHistoryResponse struct {
	History []store.HistoryEntry `json:"history"`
}
