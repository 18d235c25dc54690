package controllers

import (
	"net/http"
	"strconv"

	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/Manuekle/gymratplus-sub004/realtime"
	"github.com/Manuekle/gymratplus-sub004/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatStreamHandler -> endpoint WebSocket per chat; peserta menerima event
// message baru yang di-mirror lewat channel chat
func ChatStreamHandler(c *gin.Context) {
	userIDValue, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID, ok := userIDValue.(uint)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var chat models.Chat
	if err := utils.GetDB().First(&chat, chatID).Error; err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if !chat.Participant(userID) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	realtime.RegisterClient(ws, chat.ID)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	realtime.UnregisterClient(ws)
}
