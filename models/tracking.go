package models

import "time"

// WaterLog mencatat asupan air harian user
type WaterLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	AmountML  int       `gorm:"not null" json:"amount_ml"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkoutSession mencatat sesi latihan user
type WorkoutSession struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	WorkoutName string     `gorm:"type:varchar(255);not null" json:"workout_name"`
	Status      string     `gorm:"type:varchar(20);not null;default:started" json:"status"` // started, completed, cancelled
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
