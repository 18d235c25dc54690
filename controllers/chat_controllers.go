package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const fullLoadLimit = 100

type ChatController struct {
	DB        *gorm.DB
	Publisher *channels.Publisher
}

func NewChatController(db *gorm.DB, pub *channels.Publisher) *ChatController {
	return &ChatController{DB: db, Publisher: pub}
}

// authorize memastikan requester adalah salah satu dari dua peserta chat dan
// relasinya masih aktif. Akses lintas-tenant dibalas 404, bukan 403, supaya
// keberadaan chat orang lain tidak bocor.
func (cc *ChatController) authorize(c *gin.Context) (*models.Chat, uint, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return nil, 0, false
	}

	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid chat id"))
		return nil, 0, false
	}

	var chat models.Chat
	if err := cc.DB.First(&chat, chatID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("chat not found"))
		return nil, 0, false
	}

	if !chat.Participant(userID) {
		utils.RespondError(c, http.StatusNotFound, errors.New("chat not found"))
		return nil, 0, false
	}

	if chat.Status != models.ChatStatusActive {
		utils.RespondError(c, http.StatusForbidden, errors.New("relationship is not active"))
		return nil, 0, false
	}

	return &chat, userID, true
}

// ChatSummary adalah satu baris daftar percakapan
type ChatSummary struct {
	Chat        models.Chat         `json:"chat"`
	LastMessage *models.ChatMessage `json:"last_message,omitempty"`
	UnreadCount int64               `json:"unread_count"`
}

// GetChats -> GET /chats: daftar percakapan user beserta message terakhir
// dan jumlah belum-dibaca
func (cc *ChatController) GetChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}

	var chats []models.Chat
	if err := cc.DB.Where("student_id = ? OR instructor_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summary := ChatSummary{Chat: chat}

		var last models.ChatMessage
		if err := cc.DB.Where("chat_id = ?", chat.ID).
			Order("created_at DESC").
			First(&last).Error; err == nil {
			summary.LastMessage = &last
		}

		cc.DB.Model(&models.ChatMessage{}).
			Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, userID, false).
			Count(&summary.UnreadCount)

		summaries = append(summaries, summary)
	}

	utils.RespondJSON(c, http.StatusOK, "Chats", summaries)
}

// CreateChat -> POST /chats: membuat relasi chat student-instructor baru
func (cc *ChatController) CreateChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthenticated"))
		return
	}

	var req struct {
		InstructorID uint `json:"instructor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	var instructor models.User
	if err := cc.DB.Where("id = ? AND role = ?", req.InstructorID, "instructor").
		First(&instructor).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("instructor not found"))
		return
	}

	// Relasi 1:1: pakai yang sudah ada jika pasangan ini sudah punya chat
	var existing models.Chat
	if err := cc.DB.Where("student_id = ? AND instructor_id = ?", userID, req.InstructorID).
		First(&existing).Error; err == nil {
		utils.RespondJSON(c, http.StatusOK, "Chat already exists", existing)
		return
	}

	chat := models.Chat{
		StudentID:    userID,
		InstructorID: req.InstructorID,
		Status:       models.ChatStatusActive,
	}
	if err := cc.DB.Create(&chat).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Chat created", chat)
}

// GetMessages -> GET /chats/:chat_id?since=RFC3339
// Tanpa cursor: 100 message terakhir, ascending. Dengan cursor: hanya yang
// dibuat setelahnya. Keduanya menandai read seluruh backlog lawan bicara
// (read receipt, tidak dibatasi window since).
func (cc *ChatController) GetMessages(c *gin.Context) {
	chat, userID, ok := cc.authorize(c)
	if !ok {
		return
	}

	var messages []models.ChatMessage
	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid since timestamp"))
			return
		}
		if err := cc.DB.Preload("Sender").
			Where("chat_id = ? AND created_at > ?", chat.ID, since).
			Order("created_at ASC").
			Find(&messages).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	} else {
		// Ambil 100 terakhir lalu balik urutannya agar ascending
		if err := cc.DB.Preload("Sender").
			Where("chat_id = ?", chat.ID).
			Order("created_at DESC").
			Limit(fullLoadLimit).
			Find(&messages).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}

	// Read receipt: tandai seluruh message lawan bicara yang belum dibaca
	if err := cc.DB.Model(&models.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chat.ID, userID, false).
		Update("is_read", true).Error; err != nil {
		utils.ErrorLogger.Printf("Error marking chat %d messages as read: %v", chat.ID, err)
	}

	out := make([]models.MessageWithSender, 0, len(messages))
	for _, msg := range messages {
		out = append(out, models.MessageWithSender{
			ChatMessage: msg,
			Sender:      msg.Sender.Summary(),
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Chat messages", gin.H{
		"chat":     chat,
		"messages": out,
	})
}

type sendMessageRequest struct {
	Content   string `json:"content"`
	Type      string `json:"type"`
	FileURL   string `json:"file_url"`
	FileName  string `json:"file_name"`
	FileSize  int64  `json:"file_size"`
	MimeType  string `json:"mime_type"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	ReplyToID *uint  `json:"reply_to_id"`
}

// SendMessage -> POST /chats/:chat_id
func (cc *ChatController) SendMessage(c *gin.Context) {
	chat, userID, ok := cc.authorize(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	// Invariant: content atau file_url harus terisi, tidak boleh dua-duanya kosong
	if req.Content == "" && req.FileURL == "" {
		c.JSON(http.StatusBadRequest, utils.JSONResponse{
			Status:  false,
			Message: "Validation failed",
			Errors:  gin.H{"content": "content or file_url is required"},
		})
		return
	}

	msgType := req.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	switch msgType {
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeAudio,
		models.MessageTypeVideo, models.MessageTypeFile:
	default:
		c.JSON(http.StatusBadRequest, utils.JSONResponse{
			Status:  false,
			Message: "Validation failed",
			Errors:  gin.H{"type": "unknown message type"},
		})
		return
	}

	msg := models.ChatMessage{
		ChatID:    chat.ID,
		SenderID:  userID,
		Content:   req.Content,
		Type:      msgType,
		FileURL:   req.FileURL,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		MimeType:  req.MimeType,
		Duration:  req.Duration,
		Thumbnail: req.Thumbnail,
		ReplyToID: req.ReplyToID,
	}
	if err := cc.DB.Create(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Sentuh updated_at chat supaya daftar percakapan tersortir benar
	if err := cc.DB.Model(chat).Update("updated_at", time.Now()).Error; err != nil {
		utils.ErrorLogger.Printf("Error bumping chat %d updated_at: %v", chat.ID, err)
	}

	// Mirror ke channel chat untuk konsumen out-of-band; gagal publish tidak
	// menggagalkan request
	if cc.Publisher != nil {
		ev := channels.ChatEvent{
			ID:        msg.ID,
			ChatID:    msg.ChatID,
			SenderID:  msg.SenderID,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		if err := cc.Publisher.Chat(c.Request.Context(), ev); err != nil {
			utils.ErrorLogger.Printf("Error publishing chat event: %v", err)
		}
	}

	var sender models.User
	if err := cc.DB.First(&sender, userID).Error; err == nil {
		msg.Sender = sender
	}

	utils.RespondJSON(c, http.StatusCreated, "Message sent", models.MessageWithSender{
		ChatMessage: msg,
		Sender:      msg.Sender.Summary(),
	})
}

// EditMessage -> PATCH /chats/:chat_id/messages/:message_id
// Hanya pengirim yang boleh mengedit message-nya sendiri.
func (cc *ChatController) EditMessage(c *gin.Context) {
	chat, userID, ok := cc.authorize(c)
	if !ok {
		return
	}

	msgID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid message id"))
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err)
		return
	}

	var msg models.ChatMessage
	if err := cc.DB.Where("id = ? AND chat_id = ?", msgID, chat.ID).
		First(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("message not found"))
		return
	}
	if msg.SenderID != userID {
		utils.RespondError(c, http.StatusForbidden, errors.New("only the sender can edit a message"))
		return
	}
	if msg.Deleted {
		utils.RespondError(c, http.StatusBadRequest, errors.New("message has been deleted"))
		return
	}

	now := time.Now()
	msg.Content = req.Content
	msg.Edited = true
	msg.EditedAt = &now
	if err := cc.DB.Save(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Message edited", msg)
}

// DeleteMessage -> DELETE /chats/:chat_id/messages/:message_id (soft delete)
func (cc *ChatController) DeleteMessage(c *gin.Context) {
	chat, userID, ok := cc.authorize(c)
	if !ok {
		return
	}

	msgID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid message id"))
		return
	}

	var msg models.ChatMessage
	if err := cc.DB.Where("id = ? AND chat_id = ?", msgID, chat.ID).
		First(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("message not found"))
		return
	}
	if msg.SenderID != userID {
		utils.RespondError(c, http.StatusForbidden, errors.New("only the sender can delete a message"))
		return
	}

	now := time.Now()
	msg.Content = ""
	msg.Deleted = true
	msg.DeletedAt = &now
	if err := cc.DB.Save(&msg).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Message deleted", gin.H{"message_id": msg.ID})
}
