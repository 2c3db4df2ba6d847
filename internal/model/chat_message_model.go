package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Message struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	AuthUserId  *uuid.UUID     `gorm:"type:uuid;index"`
	Content     string         `gorm:"type:text;not null"`
	Sender      string         `gorm:"type:varchar(20);not null;index"`
	MessageType string         `gorm:"type:varchar(20);not null;default:'message'"`
	Meta        datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
