package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             *string   `gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash      *string   `gorm:"type:varchar(255)"`
	Provider          string    `gorm:"type:varchar(50);index:idx_users_provider_identity"`
	ProviderId        *string   `gorm:"type:varchar(255);index:idx_users_provider_identity"`
	DisplayName       string    `gorm:"type:varchar(255)"`
	AvatarURL         *string   `gorm:"type:text"`
	Role              string    `gorm:"type:varchar(50);not null;default:'user'"`
	MessageLimit      *int
	ContextWindowSize int       `gorm:"not null;default:20"`
	IsBlocked         bool      `gorm:"default:false"`
	IsEmailVerified   bool      `gorm:"default:false"`
	ReceiveReports    bool      `gorm:"default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
