package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Manuekle/gymratplus-sub004/models"
	"github.com/stretchr/testify/assert"
)

type fakeInboxAPI struct {
	mu          sync.Mutex
	fetches     int
	list        []models.Notification
	markReadErr error
	deleteErr   error
}

func (f *fakeInboxAPI) setList(list []models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

func (f *fakeInboxAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeInboxAPI) Notifications(ctx context.Context, force bool) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]models.Notification, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeInboxAPI) MarkRead(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markReadErr
}

func (f *fakeInboxAPI) MarkAllRead(ctx context.Context) error { return nil }

func (f *fakeInboxAPI) DeleteNotification(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func notif(id uint, read bool) models.Notification {
	return models.Notification{ID: id, UserID: 1, Type: "workout", Title: "t", Message: "m", Read: read}
}

func TestSingletonFanOutOneFetchForManySubscribers(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})

	nb := NewNotificationBroker(api)
	nb.PollInterval = time.Hour // hanya poll langsung saat mount pertama

	var mu sync.Mutex
	updates := map[string]int{}
	sub := func(name string) func([]models.Notification) {
		return func([]models.Notification) {
			mu.Lock()
			updates[name]++
			mu.Unlock()
		}
	}

	un1 := nb.Subscribe(sub("a"))
	defer un1()

	assert.Eventually(t, func() bool { return api.fetchCount() == 1 }, time.Second, 5*time.Millisecond)

	un2 := nb.Subscribe(sub("b"))
	defer un2()
	un3 := nb.Subscribe(sub("c"))
	defer un3()

	// Subscriber tambahan tidak memicu fetch baru
	assert.Equal(t, 1, api.fetchCount())

	// Satu refresh paksa = satu fetch, hasilnya sampai ke ketiganya
	nb.ForceRefresh()
	assert.Equal(t, 2, api.fetchCount())

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, updates["a"], 1)
	assert.GreaterOrEqual(t, updates["b"], 1)
	assert.GreaterOrEqual(t, updates["c"], 1)
}

func TestCacheWindowServesPassiveReads(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})

	nb := NewNotificationBroker(api)

	_, err := nb.Fetch(context.Background(), true)
	assert.NoError(t, err)
	assert.Equal(t, 1, api.fetchCount())

	// Di dalam cache window: tanpa network call
	list, err := nb.Fetch(context.Background(), false)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, api.fetchCount())

	// Force selalu menembus cache
	_, err = nb.Fetch(context.Background(), true)
	assert.NoError(t, err)
	assert.Equal(t, 2, api.fetchCount())
}

func TestNewArrivalsOnlyForUnreadNewIDs(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false), notif(2, true)})

	nb := NewNotificationBroker(api)
	var arrivals [][]models.Notification
	nb.OnNewArrivals = func(list []models.Notification) {
		arrivals = append(arrivals, list)
	}

	// Diff pertama diterima tanpa syarat: tidak ada toast untuk backlog
	nb.Fetch(context.Background(), true)
	assert.Empty(t, arrivals)

	// ID baru belum dibaca -> callback dengan tepat [3]
	api.setList([]models.Notification{notif(1, false), notif(2, true), notif(3, false)})
	nb.Fetch(context.Background(), true)
	assert.Len(t, arrivals, 1)
	assert.Len(t, arrivals[0], 1)
	assert.Equal(t, uint(3), arrivals[0][0].ID)

	// ID baru tapi sudah dibaca -> tidak ada callback
	api.setList([]models.Notification{notif(1, false), notif(2, true), notif(3, false), notif(4, true)})
	nb.Fetch(context.Background(), true)
	assert.Len(t, arrivals, 1)
}

func TestReadStateEchoSuppressed(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false), notif(2, false)})

	nb := NewNotificationBroker(api)
	var arrivalCalls int
	nb.OnNewArrivals = func([]models.Notification) { arrivalCalls++ }

	nb.Fetch(context.Background(), true)
	assert.Equal(t, 2, nb.UnreadCount())

	// ID set sama, hanya read-state berubah: state ter-update tanpa toast
	api.setList([]models.Notification{notif(1, true), notif(2, false)})
	nb.Fetch(context.Background(), true)
	assert.Equal(t, 0, arrivalCalls)
	assert.Equal(t, 1, nb.UnreadCount())
}

func TestMarkAsReadNotFoundDropsItemSilently(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false), notif(2, false)})
	api.markReadErr = ErrNotFound

	nb := NewNotificationBroker(api)
	nb.Fetch(context.Background(), true)
	fetchesBefore := api.fetchCount()

	// 404 bukan error: item dicabut lokal, tanpa refetch
	err := nb.MarkAsRead(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, nb.snapshot(), 1)
	assert.Equal(t, fetchesBefore, api.fetchCount())
}

func TestMutationFailureForcesReconcileRefetch(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})
	api.markReadErr = errors.New("boom")

	nb := NewNotificationBroker(api)
	nb.Fetch(context.Background(), true)
	fetchesBefore := api.fetchCount()

	err := nb.MarkAsRead(context.Background(), 1)
	assert.Error(t, err)
	// Rekonsiliasi: state lokal dihitung ulang dari server
	assert.Equal(t, fetchesBefore+1, api.fetchCount())
	assert.Equal(t, 1, nb.UnreadCount())
}

func TestDeleteOptimistic(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false), notif(2, false)})

	nb := NewNotificationBroker(api)
	nb.Fetch(context.Background(), true)

	assert.NoError(t, nb.Delete(context.Background(), 1))
	assert.Len(t, nb.snapshot(), 1)
	assert.Equal(t, uint(2), nb.snapshot()[0].ID)
}

func TestTeardownRestartsFromColdCache(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})

	nb := NewNotificationBroker(api)
	nb.PollInterval = time.Hour

	var arrivalCalls int
	nb.OnNewArrivals = func([]models.Notification) { arrivalCalls++ }

	unsub := nb.Subscribe(func([]models.Notification) {})
	assert.Eventually(t, func() bool { return api.fetchCount() == 1 }, time.Second, 5*time.Millisecond)
	unsub()

	// Mount baru: fetch dari nol dan diff pertama lagi-lagi tanpa toast
	api.setList([]models.Notification{notif(1, false), notif(5, false)})
	unsub2 := nb.Subscribe(func([]models.Notification) {})
	defer unsub2()
	assert.Eventually(t, func() bool { return api.fetchCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, arrivalCalls)
}

func TestHiddenPageSkipsTicks(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})

	nb := NewNotificationBroker(api)
	nb.PollInterval = 20 * time.Millisecond
	nb.Visible = func() bool { return false }

	unsub := nb.Subscribe(func([]models.Notification) {})
	defer unsub()

	// Poll pertama saat mount tetap jalan; tick berikutnya no-op selama hidden
	assert.Eventually(t, func() bool { return api.fetchCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, api.fetchCount())
}

func TestNotifyVisibleGatedByMinGap(t *testing.T) {
	api := &fakeInboxAPI{}
	api.setList([]models.Notification{notif(1, false)})

	nb := NewNotificationBroker(api)
	nb.Fetch(context.Background(), true)
	assert.Equal(t, 1, api.fetchCount())

	// Baru saja fetch: visibilitychange tidak memicu poll
	nb.NotifyVisible()
	assert.Equal(t, 1, api.fetchCount())

	// Fetch terakhir sudah lama: poll segera
	nb.mu.Lock()
	nb.lastFetch = time.Now().Add(-time.Minute)
	nb.mu.Unlock()
	nb.NotifyVisible()
	assert.Equal(t, 2, api.fetchCount())
}
