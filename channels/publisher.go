package channels

import (
	"context"
	"encoding/json"
)

// Publisher menulis event ke channel. Event selalu di-serialize tepat satu
// kali di sini; konsumen selalu men-deserialize tepat satu kali.
type Publisher struct {
	store ListStore
}

func NewPublisher(store ListStore) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) publish(ctx context.Context, channel string, ev interface{}) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.store.Push(ctx, channel, string(data))
}

// Water mempublish event asupan air ke channel water-intake
func (p *Publisher) Water(ctx context.Context, userID uint, amountML int) error {
	return p.publish(ctx, ChannelWater, WaterEvent{UserID: userID, AmountML: amountML})
}

// Workout mempublish event workout ke channel workout
func (p *Publisher) Workout(ctx context.Context, userID uint, action, workoutName string) error {
	return p.publish(ctx, ChannelWorkout, WorkoutEvent{
		UserID:      userID,
		Action:      action,
		WorkoutName: workoutName,
	})
}

// Direct mempublish notifikasi generik yang sudah membawa triple-nya sendiri
func (p *Publisher) Direct(ctx context.Context, userID uint, typ, title, message string) error {
	return p.publish(ctx, ChannelNotifications, DirectEvent{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	})
}

// Chat me-mirror message yang baru dibuat ke channel chat (fire-and-forget
// untuk konsumen out-of-band)
func (p *Publisher) Chat(ctx context.Context, ev ChatEvent) error {
	return p.publish(ctx, ChannelChat, ev)
}
