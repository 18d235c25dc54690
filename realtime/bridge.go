package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Manuekle/gymratplus-sub004/channels"
)

// ChannelBridge adalah konsumen out-of-band channel chat: backlog dikuras
// dengan ticker pendek dan disiarkan ke client websocket. Sama seperti
// drainer inbox, semantiknya at-least-once.
type ChannelBridge struct {
	Store    channels.ListStore
	Interval time.Duration
	StopChan chan struct{}
}

func NewChannelBridge(store channels.ListStore) *ChannelBridge {
	return &ChannelBridge{
		Store:    store,
		Interval: 2 * time.Second,
		StopChan: make(chan struct{}),
	}
}

func (cb *ChannelBridge) Start() {
	go func() {
		ticker := time.NewTicker(cb.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cb.drain(context.Background())
			case <-cb.StopChan:
				return
			}
		}
	}()
	log.Println("Realtime channel bridge started")
}

func (cb *ChannelBridge) Stop() {
	close(cb.StopChan)
}

func (cb *ChannelBridge) drain(ctx context.Context) {
	entries, err := cb.Store.Range(ctx, channels.ChannelChat)
	if err != nil {
		log.Printf("Error reading chat channel: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	for _, entry := range entries {
		var ev channels.ChatEvent
		if err := json.Unmarshal([]byte(entry), &ev); err != nil {
			log.Printf("Skipping malformed chat event: %v", err)
			continue
		}
		BroadcastChatEvent(ev)
	}

	if err := cb.Store.Trim(ctx, channels.ChannelChat, int64(len(entries))); err != nil {
		log.Printf("Error truncating chat channel: %v", err)
	}
}
