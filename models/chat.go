package models

import "time"

// Status relasi student-instructor yang menaungi sebuah chat
const (
	ChatStatusActive = "active"
	ChatStatusPaused = "paused"
	ChatStatusEnded  = "ended"
)

// Tipe konten chat message
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeAudio = "audio"
	MessageTypeVideo = "video"
	MessageTypeFile  = "file"
)

// Chat adalah relasi 1:1 antara student dan instructor
type Chat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;index" json:"student_id"`
	Student      User      `gorm:"foreignKey:StudentID;references:ID" json:"-"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	Instructor   User      `gorm:"foreignKey:InstructorID;references:ID" json:"-"`
	Status       string    `gorm:"type:varchar(20);not null;default:active" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Participant mengecek apakah user termasuk peserta chat
func (ch Chat) Participant(userID uint) bool {
	return userID == ch.StudentID || userID == ch.InstructorID
}

type ChatMessage struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ChatID    uint       `gorm:"not null;index" json:"chat_id"`
	Chat      Chat       `gorm:"foreignKey:ChatID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID  uint       `gorm:"not null;index" json:"sender_id"`
	Sender    User       `gorm:"foreignKey:SenderID;references:ID" json:"-"`
	Content   string     `gorm:"type:text" json:"content"`
	Type      string     `gorm:"type:varchar(10);not null;default:text" json:"type"`
	FileURL   string     `gorm:"type:varchar(500)" json:"file_url,omitempty"`
	FileName  string     `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	FileSize  int64      `json:"file_size,omitempty"`
	MimeType  string     `gorm:"type:varchar(100)" json:"mime_type,omitempty"`
	Duration  int        `json:"duration,omitempty"` // detik, untuk audio/video
	Thumbnail string     `gorm:"type:varchar(500)" json:"thumbnail,omitempty"`
	Read      bool       `gorm:"column:is_read;default:false;index" json:"read"`
	Deleted   bool       `gorm:"default:false" json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Edited    bool       `gorm:"default:false" json:"edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	ReplyToID *uint      `json:"reply_to_id,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

// MessageWithSender adalah bentuk respons chat message beserta ringkasan pengirim
type MessageWithSender struct {
	ChatMessage
	Sender SenderSummary `json:"sender"`
}
