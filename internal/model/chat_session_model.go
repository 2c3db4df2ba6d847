package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatSession struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId    string         `gorm:"type:varchar(64);not null;index"` // owner identity: user uuid or anonymous cookie id
	Title     string         `gorm:"type:text;not null"`
	Meta      datatypes.JSON `gorm:"type:json"`
	Messages  []Message      `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
