package services

import (
	"context"
	"log"
	"time"

	"github.com/Manuekle/gymratplus-sub004/channels"
	"github.com/Manuekle/gymratplus-sub004/models"
	"gorm.io/gorm"
)

// ChannelDrainer menguras channel queue ke inbox notifikasi secara periodik.
// Delivery-nya at-least-once: crash di antara Range dan Trim menyebabkan
// re-delivery, yang diserap oleh dedup harian di bawah.
type ChannelDrainer struct {
	DB       *gorm.DB
	Store    channels.ListStore
	Decoders map[string]channels.Decoder
	Interval time.Duration
	StopChan chan struct{}
}

func NewChannelDrainer(db *gorm.DB, store channels.ListStore) *ChannelDrainer {
	return &ChannelDrainer{
		DB:       db,
		Store:    store,
		Decoders: channels.Decoders(),
		Interval: 15 * time.Second,
		StopChan: make(chan struct{}),
	}
}

func (cd *ChannelDrainer) Start() {
	go func() {
		ticker := time.NewTicker(cd.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cd.DrainOnce(context.Background())
			case <-cd.StopChan:
				return
			}
		}
	}()
	log.Println("Channel drainer started")
}

func (cd *ChannelDrainer) Stop() {
	close(cd.StopChan)
}

// DrainOnce memproses satu siklus drain untuk semua channel terdaftar
func (cd *ChannelDrainer) DrainOnce(ctx context.Context) {
	for name, decode := range cd.Decoders {
		cd.drainChannel(ctx, name, decode)
	}
}

// drainChannel memproses seluruh backlog satu channel dalam satu tick
func (cd *ChannelDrainer) drainChannel(ctx context.Context, name string, decode channels.Decoder) {
	entries, err := cd.Store.Range(ctx, name)
	if err != nil {
		// Store tidak tersedia: tick ini dilewati, dicoba lagi interval berikutnya
		log.Printf("Error reading channel %s: %v", name, err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("Draining %d entries from channel %s", len(entries), name)

	for _, entry := range entries {
		userID, rendered, ok, err := decode([]byte(entry))
		if err != nil {
			// Entry rusak: di-skip tapi tetap dihitung untuk Trim agar
			// tidak menyumbat queue
			log.Printf("Skipping malformed entry on channel %s: %v", name, err)
			continue
		}
		if !ok {
			continue
		}
		cd.deliver(userID, rendered)
	}

	// Selalu Trim sebanyak yang terbaca di awal; entry yang masuk selama
	// pemrosesan tetap tersisa untuk tick berikutnya
	if err := cd.Store.Trim(ctx, name, int64(len(entries))); err != nil {
		log.Printf("Error truncating channel %s: %v", name, err)
	}
}

// deliver menulis satu notifikasi ke inbox, dengan dedup per hari kalender
// atas (user_id, type, title, message)
func (cd *ChannelDrainer) deliver(userID uint, r channels.Rendered) {
	var count int64
	err := cd.DB.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND title = ? AND message = ? AND created_at >= ?",
			userID, r.Type, r.Title, r.Message, StartOfDay(time.Now())).
		Count(&count).Error
	if err != nil {
		log.Printf("Error checking duplicate notification for user %d: %v", userID, err)
		return
	}
	if count > 0 {
		// Event setara sudah tercatat hari ini: bukan error, cukup di-skip
		return
	}

	notif := models.Notification{
		UserID:  userID,
		Type:    r.Type,
		Title:   r.Title,
		Message: r.Message,
	}
	if err := cd.DB.Create(&notif).Error; err != nil {
		log.Printf("Error creating notification for user %d: %v", userID, err)
		return
	}
	log.Printf("Notification created for user %d: %s", userID, r.Title)
}

// StartOfDay mengembalikan awal hari kalender lokal dari t
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
