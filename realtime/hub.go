package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/gorilla/websocket"
)

// Event types
const (
	EventChatMessage = "chat_message"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi websocket yang mendengarkan sebuah chat
type Hub struct {
	clients map[*websocket.Conn]uint // conn -> chat id
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]uint),
}

// RegisterClient -> menambahkan connection untuk satu chat
func RegisterClient(conn *websocket.Conn, chatID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = chatID
}

// UnregisterClient -> melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastChatEvent -> menyiarkan event ke semua client chat terkait
func BroadcastChatEvent(ev channels.ChatEvent) {
	broadcast(ev.ChatID, Message{
		Event: EventChatMessage,
		Data:  ev,
	})
}

func broadcast(chatID uint, msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	for conn, id := range hub.clients {
		if id != chatID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending message to client: %v", err)
		}
	}
}

// ClientCount mengembalikan jumlah koneksi yang terdaftar untuk sebuah chat
func ClientCount(chatID uint) int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	n := 0
	for _, id := range hub.clients {
		if id == chatID {
			n++
		}
	}
	return n
}
