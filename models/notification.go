package models

import (
	"time"
)

// Tipe notifikasi yang dikenal di inbox
const (
	NotifTypeWorkout = "workout"
	NotifTypeMeal    = "meal"
	NotifTypeWater   = "water"
	NotifTypeWeight  = "weight"
	NotifTypeGoal    = "goal"
	NotifTypeChat    = "chat"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type      string    `gorm:"type:varchar(30);not null;index" json:"type"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Read      bool      `gorm:"column:is_read;default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
