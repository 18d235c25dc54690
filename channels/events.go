package channels

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Manuekle/gymratplus-sub004/models"
)

// Nama channel yang dikenal
const (
	ChannelNotifications = "notifications"
	ChannelWater         = "water-intake"
	ChannelWorkout       = "workout"
	ChannelChat          = "chat"
)

// Aksi yang dikenal di channel workout
const (
	WorkoutStarted   = "started"
	WorkoutCompleted = "completed"
	WorkoutCancelled = "cancelled"
	WorkoutProgress  = "progress"
)

var ErrMissingUserID = errors.New("event missing user_id")

// Rendered adalah triple (type, title, message) hasil render sebuah event
// menjadi baris inbox.
type Rendered struct {
	Type    string
	Title   string
	Message string
}

// WaterEvent dipublish setiap kali user mencatat asupan air
type WaterEvent struct {
	UserID   uint `json:"user_id"`
	AmountML int  `json:"amount_ml"`
}

func (e WaterEvent) Render() (Rendered, bool) {
	return Rendered{
		Type:    models.NotifTypeWater,
		Title:   "Registro de agua",
		Message: "Has registrado tu consumo de agua de hoy. ¡Sigue así!",
	}, true
}

// WorkoutEvent dipublish oleh fitur workout tracking
type WorkoutEvent struct {
	UserID      uint   `json:"user_id"`
	Action      string `json:"action"`
	WorkoutName string `json:"workout_name,omitempty"`
}

func (e WorkoutEvent) Render() (Rendered, bool) {
	switch e.Action {
	case WorkoutStarted:
		return Rendered{
			Type:    models.NotifTypeWorkout,
			Title:   "Entrenamiento iniciado",
			Message: "Has comenzado tu entrenamiento. ¡A por ello!",
		}, true
	case WorkoutCompleted:
		return Rendered{
			Type:    models.NotifTypeWorkout,
			Title:   "Entrenamiento completado",
			Message: "¡Buen trabajo! Has completado tu entrenamiento de hoy.",
		}, true
	case WorkoutCancelled:
		return Rendered{
			Type:    models.NotifTypeWorkout,
			Title:   "Entrenamiento cancelado",
			Message: "Has cancelado tu entrenamiento. Puedes retomarlo cuando quieras.",
		}, true
	case WorkoutProgress:
		return Rendered{
			Type:    models.NotifTypeWorkout,
			Title:   "Progreso registrado",
			Message: "Tu progreso de entrenamiento ha sido guardado.",
		}, true
	}
	// Aksi tidak dikenal: skip, bukan error
	return Rendered{}, false
}

// DirectEvent dipakai di channel notifications generik; payload sudah
// membawa triple-nya sendiri.
type DirectEvent struct {
	UserID  uint   `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (e DirectEvent) Render() (Rendered, bool) {
	if e.Title == "" || e.Message == "" {
		return Rendered{}, false
	}
	typ := e.Type
	if typ == "" {
		typ = models.NotifTypeGoal
	}
	return Rendered{Type: typ, Title: e.Title, Message: e.Message}, true
}

// ChatEvent adalah event ringan yang di-mirror ke channel chat saat sebuah
// message dibuat. Channel ini tidak dikeringkan ke inbox; konsumennya adalah
// hub realtime.
type ChatEvent struct {
	ID        uint      `json:"id"`
	ChatID    uint      `json:"chat_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Decoder mengubah satu entry mentah channel menjadi (userID, Rendered).
// ok=false berarti entry valid tapi tidak menghasilkan notifikasi (di-skip);
// err berarti entry rusak.
type Decoder func(raw []byte) (uint, Rendered, bool, error)

func DecodeWaterEvent(raw []byte) (uint, Rendered, bool, error) {
	var ev WaterEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return 0, Rendered{}, false, err
	}
	if ev.UserID == 0 {
		return 0, Rendered{}, false, ErrMissingUserID
	}
	r, ok := ev.Render()
	return ev.UserID, r, ok, nil
}

func DecodeWorkoutEvent(raw []byte) (uint, Rendered, bool, error) {
	var ev WorkoutEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return 0, Rendered{}, false, err
	}
	if ev.UserID == 0 {
		return 0, Rendered{}, false, ErrMissingUserID
	}
	r, ok := ev.Render()
	return ev.UserID, r, ok, nil
}

func DecodeDirectEvent(raw []byte) (uint, Rendered, bool, error) {
	var ev DirectEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return 0, Rendered{}, false, err
	}
	if ev.UserID == 0 {
		return 0, Rendered{}, false, ErrMissingUserID
	}
	r, ok := ev.Render()
	return ev.UserID, r, ok, nil
}

// Decoders memetakan channel ke decoder-nya; dipakai sebagai konfigurasi
// default drainer.
func Decoders() map[string]Decoder {
	return map[string]Decoder{
		ChannelNotifications: DecodeDirectEvent,
		ChannelWater:         DecodeWaterEvent,
		ChannelWorkout:       DecodeWorkoutEvent,
	}
}
