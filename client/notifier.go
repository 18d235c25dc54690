package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Manuekle/gymratplus-sub004/models"
)

// InboxAPI adalah kontrak yang dibutuhkan broker terhadap endpoint inbox
type InboxAPI interface {
	Notifications(ctx context.Context, force bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id uint) error
}

// NotificationBroker adalah poller tunggal yang dibagi semua subscriber UI.
// Berapa pun subscriber yang terpasang, hanya ada satu timer dan satu fetch
// per tick; hasilnya di-fan-out ke semua subscriber.
type NotificationBroker struct {
	api InboxAPI

	PollInterval time.Duration
	CacheWindow  time.Duration
	// Jeda minimum sebelum poll segera saat halaman kembali terlihat,
	// mencegah thundering herd setelah tab switch
	MinVisibleGap time.Duration

	// OnNewArrivals dipanggil untuk notifikasi baru yang belum dibaca
	// (toast / system notification)
	OnNewArrivals func([]models.Notification)
	// Visible meniru document.visibilityState; nil berarti selalu terlihat
	Visible func() bool

	mu          sync.Mutex
	subscribers map[int]func([]models.Notification)
	nextSubID   int
	previousIDs map[uint]bool
	seenFirst   bool
	cached      []models.Notification
	hasCache    bool
	lastFetch   time.Time
	stopChan    chan struct{}
}

func NewNotificationBroker(api InboxAPI) *NotificationBroker {
	return &NotificationBroker{
		api:           api,
		PollInterval:  15 * time.Second,
		CacheWindow:   10 * time.Second,
		MinVisibleGap: 5 * time.Second,
		subscribers:   make(map[int]func([]models.Notification)),
		previousIDs:   make(map[uint]bool),
	}
}

// Subscribe memasang satu subscriber dan mengembalikan fungsi unsubscribe.
// Subscriber pertama menyalakan timer dan memicu satu poll segera; saat
// subscriber terakhir lepas, timer dimatikan dan state kembali dingin.
func (nb *NotificationBroker) Subscribe(fn func([]models.Notification)) func() {
	nb.mu.Lock()
	id := nb.nextSubID
	nb.nextSubID++
	nb.subscribers[id] = fn
	first := len(nb.subscribers) == 1
	if first {
		nb.stopChan = make(chan struct{})
		go nb.loop(nb.stopChan)
	}
	nb.mu.Unlock()

	if first {
		// Poll pertama tidak menunggu tick pertama
		go nb.Fetch(context.Background(), true)
	} else if nb.snapshotExists() {
		fn(nb.snapshot())
	}

	return func() {
		nb.mu.Lock()
		delete(nb.subscribers, id)
		if len(nb.subscribers) == 0 && nb.stopChan != nil {
			close(nb.stopChan)
			nb.stopChan = nil
			// Mount berikutnya mulai dari cache dingin
			nb.previousIDs = make(map[uint]bool)
			nb.seenFirst = false
			nb.cached = nil
			nb.hasCache = false
			nb.lastFetch = time.Time{}
		}
		nb.mu.Unlock()
	}
}

func (nb *NotificationBroker) loop(stop chan struct{}) {
	ticker := time.NewTicker(nb.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Halaman tersembunyi: tick jadi no-op
			if nb.Visible != nil && !nb.Visible() {
				continue
			}
			nb.Fetch(context.Background(), true)
		case <-stop:
			return
		}
	}
}

// NotifyVisible dipanggil saat halaman kembali terlihat; memicu poll segera
// jika fetch terakhir sudah cukup lama
func (nb *NotificationBroker) NotifyVisible() {
	nb.mu.Lock()
	stale := time.Since(nb.lastFetch) >= nb.MinVisibleGap
	nb.mu.Unlock()

	if stale {
		nb.Fetch(context.Background(), true)
	}
}

// ForceRefresh memaksa satu fetch di luar jadwal
func (nb *NotificationBroker) ForceRefresh() {
	nb.Fetch(context.Background(), true)
}

// Fetch mengambil inbox. Tanpa force, cache yang lebih muda dari CacheWindow
// dikembalikan langsung tanpa network call.
func (nb *NotificationBroker) Fetch(ctx context.Context, force bool) ([]models.Notification, error) {
	nb.mu.Lock()
	if !force && nb.hasCache && time.Since(nb.lastFetch) < nb.CacheWindow {
		cached := make([]models.Notification, len(nb.cached))
		copy(cached, nb.cached)
		nb.mu.Unlock()
		return cached, nil
	}
	nb.mu.Unlock()

	list, err := nb.api.Notifications(ctx, force)
	if err != nil {
		// Infrastruktur transien: dicoba lagi tick berikutnya
		return nil, err
	}

	nb.apply(list)
	return list, nil
}

// apply menghitung diff terhadap snapshot sebelumnya lalu fan-out.
// State selalu dihitung ulang dari respons server terakhir, bukan merge
// buta dari closure lama.
func (nb *NotificationBroker) apply(list []models.Notification) {
	nb.mu.Lock()

	newIDs := make(map[uint]bool, len(list))
	for _, n := range list {
		newIDs[n.ID] = true
	}

	var arrivals []models.Notification
	if nb.seenFirst {
		for _, n := range list {
			// Arrival hanya untuk ID baru yang belum dibaca; flip
			// read-state atas ID lama tidak boleh memicu toast ulang
			if !nb.previousIDs[n.ID] && !n.Read {
				arrivals = append(arrivals, n)
			}
		}
	}

	nb.seenFirst = true
	nb.previousIDs = newIDs
	nb.cached = list
	nb.hasCache = true
	nb.lastFetch = time.Now()

	subs := make([]func([]models.Notification), 0, len(nb.subscribers))
	for _, fn := range nb.subscribers {
		subs = append(subs, fn)
	}
	onArrivals := nb.OnNewArrivals
	nb.mu.Unlock()

	if len(arrivals) > 0 && onArrivals != nil {
		onArrivals(arrivals)
	}
	for _, fn := range subs {
		fn(list)
	}
}

func (nb *NotificationBroker) snapshotExists() bool {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	return nb.hasCache
}

func (nb *NotificationBroker) snapshot() []models.Notification {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	out := make([]models.Notification, len(nb.cached))
	copy(out, nb.cached)
	return out
}

// UnreadCount dihitung dari snapshot yang sedang dipegang
func (nb *NotificationBroker) UnreadCount() int {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	count := 0
	for _, n := range nb.cached {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAsRead melakukan update optimis lalu menulis ke server. 404 berarti
// record sudah hilang: item di-drop diam-diam. Kegagalan lain memicu
// refetch paksa untuk rekonsiliasi.
func (nb *NotificationBroker) MarkAsRead(ctx context.Context, id uint) error {
	nb.mutateLocal(func(list []models.Notification) []models.Notification {
		for i := range list {
			if list[i].ID == id {
				list[i].Read = true
			}
		}
		return list
	})

	err := nb.api.MarkRead(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		nb.dropLocal(id)
		return nil
	}
	nb.ForceRefresh()
	return err
}

func (nb *NotificationBroker) MarkAllAsRead(ctx context.Context) error {
	nb.mutateLocal(func(list []models.Notification) []models.Notification {
		for i := range list {
			list[i].Read = true
		}
		return list
	})

	if err := nb.api.MarkAllRead(ctx); err != nil {
		nb.ForceRefresh()
		return err
	}
	return nil
}

func (nb *NotificationBroker) Delete(ctx context.Context, id uint) error {
	nb.dropLocal(id)

	err := nb.api.DeleteNotification(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		return nil
	}
	nb.ForceRefresh()
	return err
}

func (nb *NotificationBroker) mutateLocal(mutate func([]models.Notification) []models.Notification) {
	nb.mu.Lock()
	nb.cached = mutate(nb.cached)
	list := make([]models.Notification, len(nb.cached))
	copy(list, nb.cached)
	subs := make([]func([]models.Notification), 0, len(nb.subscribers))
	for _, fn := range nb.subscribers {
		subs = append(subs, fn)
	}
	nb.mu.Unlock()

	for _, fn := range subs {
		fn(list)
	}
}

func (nb *NotificationBroker) dropLocal(id uint) {
	nb.mutateLocal(func(list []models.Notification) []models.Notification {
		out := list[:0]
		for _, n := range list {
			if n.ID != id {
				out = append(out, n)
			}
		}
		return out
	})

	nb.mu.Lock()
	delete(nb.previousIDs, id)
	nb.mu.Unlock()
}
