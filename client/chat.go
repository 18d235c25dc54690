package client

import (
	"context"
	"sync"
	"time"

	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/google/uuid"
)

// ChatAPI adalah kontrak yang dibutuhkan sesi chat terhadap endpoint chat
type ChatAPI interface {
	Messages(ctx context.Context, chatID uint, since *time.Time) ([]models.MessageWithSender, error)
	Send(ctx context.Context, chatID uint, req SendMessageRequest) (models.MessageWithSender, error)
}

// State sebuah message lokal
type MessageState int

const (
	MessageConfirmed MessageState = iota
	MessagePending
	MessageFailed
)

// LocalMessage membungkus message dengan state optimis. Message pending
// memakai LocalID sintetis sampai dikonfirmasi server.
type LocalMessage struct {
	models.MessageWithSender
	LocalID string       `json:"local_id,omitempty"`
	State   MessageState `json:"state"`
}

// ChatSession adalah loop fetch incremental satu percakapan: full load saat
// mulai, lalu tiap interval mengambil hanya message setelah cursor `since`
// (created_at message lokal terakhir).
type ChatSession struct {
	api    ChatAPI
	chatID uint

	PollInterval time.Duration
	// Visible meniru document.visibilityState; nil berarti selalu terlihat
	Visible func() bool
	// OnUpdate dipanggil setiap daftar message berubah
	OnUpdate func([]LocalMessage)

	mu       sync.Mutex
	messages []LocalMessage
	sending  bool
	stopChan chan struct{}
}

func NewChatSession(api ChatAPI, chatID uint) *ChatSession {
	return &ChatSession{
		api:          api,
		chatID:       chatID,
		PollInterval: 30 * time.Second,
	}
}

// Start melakukan full load lalu menyalakan loop incremental
func (cs *ChatSession) Start(ctx context.Context) error {
	msgs, err := cs.api.Messages(ctx, cs.chatID, nil)
	if err != nil {
		return err
	}
	cs.merge(msgs)

	cs.mu.Lock()
	cs.stopChan = make(chan struct{})
	stop := cs.stopChan
	cs.mu.Unlock()

	go cs.loop(stop)
	return nil
}

func (cs *ChatSession) Stop() {
	cs.mu.Lock()
	if cs.stopChan != nil {
		close(cs.stopChan)
		cs.stopChan = nil
	}
	cs.mu.Unlock()
}

func (cs *ChatSession) loop(stop chan struct{}) {
	ticker := time.NewTicker(cs.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Skip saat halaman tersembunyi atau ada send yang sedang jalan
			if cs.Visible != nil && !cs.Visible() {
				continue
			}
			cs.mu.Lock()
			inFlight := cs.sending
			cs.mu.Unlock()
			if inFlight {
				continue
			}
			cs.Poll(context.Background())
		case <-stop:
			return
		}
	}
}

// Poll mengambil message baru sejak cursor lokal terakhir
func (cs *ChatSession) Poll(ctx context.Context) error {
	since := cs.lastConfirmedAt()
	msgs, err := cs.api.Messages(ctx, cs.chatID, since)
	if err != nil {
		// Transien: dicoba lagi tick berikutnya
		return err
	}
	if len(msgs) > 0 {
		cs.merge(msgs)
	}
	return nil
}

func (cs *ChatSession) lastConfirmedAt() *time.Time {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for i := len(cs.messages) - 1; i >= 0; i-- {
		if cs.messages[i].State == MessageConfirmed {
			t := cs.messages[i].CreatedAt
			return &t
		}
	}
	return nil
}

// merge menggabungkan message masuk berdasarkan ID; ID yang sudah ada tidak
// pernah diduplikasi
func (cs *ChatSession) merge(incoming []models.MessageWithSender) {
	cs.mu.Lock()

	known := make(map[uint]bool, len(cs.messages))
	for _, m := range cs.messages {
		if m.ID != 0 {
			known[m.ID] = true
		}
	}

	for _, msg := range incoming {
		if known[msg.ID] {
			continue
		}
		known[msg.ID] = true
		cs.messages = append(cs.messages, LocalMessage{
			MessageWithSender: msg,
			State:             MessageConfirmed,
		})
	}

	cs.notifyLocked()
}

// Send menambahkan message pending dengan ID sintetis secara optimis, lalu
// menggantinya in-place dengan versi server saat sukses, atau mencabutnya
// saat gagal.
func (cs *ChatSession) Send(ctx context.Context, req SendMessageRequest) (models.MessageWithSender, error) {
	localID := uuid.NewString()

	pending := LocalMessage{
		MessageWithSender: models.MessageWithSender{
			ChatMessage: models.ChatMessage{
				ChatID:    cs.chatID,
				Content:   req.Content,
				Type:      req.Type,
				FileURL:   req.FileURL,
				CreatedAt: time.Now(),
			},
		},
		LocalID: localID,
		State:   MessagePending,
	}

	cs.mu.Lock()
	cs.messages = append(cs.messages, pending)
	cs.sending = true
	cs.notifyLocked()

	confirmed, err := cs.api.Send(ctx, cs.chatID, req)

	cs.mu.Lock()
	cs.sending = false
	if err != nil {
		// Revert: cabut echo optimis
		out := cs.messages[:0]
		for _, m := range cs.messages {
			if m.LocalID != localID {
				out = append(out, m)
			}
		}
		cs.messages = out
		cs.notifyLocked()
		return models.MessageWithSender{}, err
	}

	for i := range cs.messages {
		if cs.messages[i].LocalID == localID {
			cs.messages[i] = LocalMessage{
				MessageWithSender: confirmed,
				State:             MessageConfirmed,
			}
			break
		}
	}
	cs.notifyLocked()
	return confirmed, nil
}

// Messages mengembalikan salinan daftar message saat ini
func (cs *ChatSession) Messages() []LocalMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]LocalMessage, len(cs.messages))
	copy(out, cs.messages)
	return out
}

// notifyLocked memanggil OnUpdate dengan snapshot; harus dipanggil dengan
// lock dipegang, dan melepaskannya.
func (cs *ChatSession) notifyLocked() {
	fn := cs.OnUpdate
	var snapshot []LocalMessage
	if fn != nil {
		snapshot = make([]LocalMessage, len(cs.messages))
		copy(snapshot, cs.messages)
	}
	cs.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// ShouldAutoScroll memutuskan apakah viewport ikut turun ke message terbaru:
// selalu saat load awal, selebihnya hanya jika sebelumnya sudah dekat dasar
// (≤100px) supaya posisi baca user tidak tersentak.
func ShouldAutoScroll(initialLoad bool, distanceFromBottom float64) bool {
	if initialLoad {
		return true
	}
	return distanceFromBottom <= 100
}
