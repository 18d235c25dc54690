package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/controllers"
	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/utils"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type chatFixture struct {
	db      *gorm.DB
	store   *channels.MemoryStore
	chat    models.Chat
	student models.User
	coach   models.User
}

func setupChatFixture(t *testing.T) *chatFixture {
	utils.InitLogger()
	db := setupTestDB(t)

	student := models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Role: "student"}
	coach := models.User{Name: "Luis", Email: "luis@example.com", Password: "x", Role: "instructor"}
	db.Create(&student)
	db.Create(&coach)

	chat := models.Chat{StudentID: student.ID, InstructorID: coach.ID, Status: models.ChatStatusActive}
	db.Create(&chat)

	return &chatFixture{
		db:      db,
		store:   channels.NewMemoryStore(),
		chat:    chat,
		student: student,
		coach:   coach,
	}
}

func (f *chatFixture) router(userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(fakeAuth(userID))
	chatCtrl := controllers.NewChatController(f.db, channels.NewPublisher(f.store))
	router.GET("/chats/:chat_id", chatCtrl.GetMessages)
	router.POST("/chats/:chat_id", chatCtrl.SendMessage)
	router.PATCH("/chats/:chat_id/messages/:message_id", chatCtrl.EditMessage)
	router.DELETE("/chats/:chat_id/messages/:message_id", chatCtrl.DeleteMessage)
	return router
}

func (f *chatFixture) seedMessage(senderID uint, content string, at time.Time) models.ChatMessage {
	msg := models.ChatMessage{
		ChatID:   f.chat.ID,
		SenderID: senderID,
		Content:  content,
		Type:     models.MessageTypeText,
	}
	f.db.Create(&msg)
	f.db.Model(&msg).Update("created_at", at)
	msg.CreatedAt = at
	return msg
}

type chatResponse struct {
	Data struct {
		Chat     models.Chat `json:"chat"`
		Messages []struct {
			ID      uint   `json:"id"`
			Content string `json:"content"`
			Read    bool   `json:"read"`
		} `json:"messages"`
	} `json:"data"`
}

func TestGetMessagesFullLoadAscending(t *testing.T) {
	f := setupChatFixture(t)
	router := f.router(f.student.ID)

	base := time.Now().Add(-time.Hour)
	f.seedMessage(f.coach.ID, "uno", base)
	f.seedMessage(f.student.ID, "dos", base.Add(time.Minute))
	f.seedMessage(f.coach.ID, "tres", base.Add(2*time.Minute))

	req, _ := http.NewRequest("GET", "/chats/"+itoa(f.chat.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Messages, 3)
	assert.Equal(t, "uno", resp.Data.Messages[0].Content)
	assert.Equal(t, "tres", resp.Data.Messages[2].Content)
}

func TestGetMessagesIncrementalMonotonic(t *testing.T) {
	f := setupChatFixture(t)
	router := f.router(f.student.ID)

	t1 := time.Now().Add(-3 * time.Hour).Truncate(time.Second)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	f.seedMessage(f.coach.ID, "m1", t1)
	f.seedMessage(f.coach.ID, "m2", t2)
	f.seedMessage(f.coach.ID, "m3", t3)

	// since=t1 -> tepat {m2, m3}
	req, _ := http.NewRequest("GET",
		"/chats/"+itoa(f.chat.ID)+"?since="+url.QueryEscape(t1.Format(time.RFC3339)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "m2", resp.Data.Messages[0].Content)
	assert.Equal(t, "m3", resp.Data.Messages[1].Content)

	// since=t3 -> kosong
	req, _ = http.NewRequest("GET",
		"/chats/"+itoa(f.chat.ID)+"?since="+url.QueryEscape(t3.Format(time.RFC3339)), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	resp = chatResponse{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Messages, 0)
}

func TestGetMessagesMarksWholeBacklogRead(t *testing.T) {
	f := setupChatFixture(t)
	router := f.router(f.student.ID)

	old := time.Now().Add(-2 * time.Hour)
	f.seedMessage(f.coach.ID, "viejo", old)
	f.seedMessage(f.coach.ID, "nuevo", time.Now().Add(-time.Minute))
	mine := f.seedMessage(f.student.ID, "mio", time.Now())

	// Fetch incremental dengan window sempit; read receipt tetap menandai
	// seluruh backlog lawan bicara
	req, _ := http.NewRequest("GET",
		"/chats/"+itoa(f.chat.ID)+"?since="+url.QueryEscape(time.Now().Add(-5*time.Minute).Format(time.RFC3339)), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var unread int64
	f.db.Model(&models.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", f.chat.ID, f.student.ID, false).
		Count(&unread)
	assert.Equal(t, int64(0), unread)

	// Message milik pembaca sendiri tidak ikut tertandai
	var got models.ChatMessage
	f.db.First(&got, mine.ID)
	assert.False(t, got.Read)
}

func TestSendMessageContentOrFileInvariant(t *testing.T) {
	f := setupChatFixture(t)
	router := f.router(f.student.ID)

	// Dua-duanya kosong -> 400 dengan error per-field
	body, _ := json.Marshal(map[string]interface{}{})
	req, _ := http.NewRequest("POST", "/chats/"+itoa(f.chat.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content or file_url is required")

	// Hanya file_url -> diterima
	body, _ = json.Marshal(map[string]interface{}{
		"file_url": "https://cdn.example.com/plan.pdf",
		"type":     "file",
	})
	req, _ = http.NewRequest("POST", "/chats/"+itoa(f.chat.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSendMessagePersistsAndPublishes(t *testing.T) {
	f := setupChatFixture(t)
	router := f.router(f.student.ID)

	body, _ := json.Marshal(map[string]interface{}{"content": "hola coach"})
	req, _ := http.NewRequest("POST", "/chats/"+itoa(f.chat.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID        uint      `json:"id"`
			Read      bool      `json:"read"`
			CreatedAt time.Time `json:"created_at"`
			Sender    struct {
				ID   uint   `json:"id"`
				Name string `json:"name"`
			} `json:"sender"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.Data.ID)
	assert.False(t, resp.Data.Read)
	assert.WithinDuration(t, time.Now(), resp.Data.CreatedAt, 5*time.Second)
	assert.Equal(t, "Ana", resp.Data.Sender.Name)

	// Event ringan ter-mirror ke channel chat
	entries, err := f.store.Range(req.Context(), channels.ChannelChat)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	var ev channels.ChatEvent
	assert.NoError(t, json.Unmarshal([]byte(entries[0]), &ev))
	assert.Equal(t, resp.Data.ID, ev.ID)
	assert.Equal(t, f.student.ID, ev.SenderID)
	assert.Equal(t, "hola coach", ev.Content)
}

func TestChatAccessControl(t *testing.T) {
	f := setupChatFixture(t)

	// Bukan peserta -> 404, bukan 403
	outsider := models.User{Name: "Max", Email: "max@example.com", Password: "x", Role: "student"}
	f.db.Create(&outsider)
	router := f.router(outsider.ID)

	req, _ := http.NewRequest("GET", "/chats/"+itoa(f.chat.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Chat tidak ada -> 404
	router = f.router(f.student.ID)
	req, _ = http.NewRequest("GET", "/chats/9999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Relasi tidak aktif -> 403
	f.db.Model(&f.chat).Update("status", models.ChatStatusEnded)
	req, _ = http.NewRequest("GET", "/chats/"+itoa(f.chat.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestEditAndDeleteOnlyBySender(t *testing.T) {
	f := setupChatFixture(t)

	msg := f.seedMessage(f.coach.ID, "original", time.Now().Add(-time.Minute))

	// Student mencoba edit message coach -> 403
	router := f.router(f.student.ID)
	body, _ := json.Marshal(map[string]interface{}{"content": "hacked"})
	req, _ := http.NewRequest("PATCH",
		"/chats/"+itoa(f.chat.ID)+"/messages/"+itoa(msg.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Coach mengedit message-nya sendiri
	router = f.router(f.coach.ID)
	body, _ = json.Marshal(map[string]interface{}{"content": "editado"})
	req, _ = http.NewRequest("PATCH",
		"/chats/"+itoa(f.chat.ID)+"/messages/"+itoa(msg.ID), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.ChatMessage
	f.db.First(&got, msg.ID)
	assert.Equal(t, "editado", got.Content)
	assert.True(t, got.Edited)
	assert.NotNil(t, got.EditedAt)

	// Soft delete: content dikosongkan, row tetap ada
	req, _ = http.NewRequest("DELETE",
		"/chats/"+itoa(f.chat.ID)+"/messages/"+itoa(msg.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	f.db.First(&got, msg.ID)
	assert.True(t, got.Deleted)
	assert.NotNil(t, got.DeletedAt)
	assert.Empty(t, got.Content)
}
