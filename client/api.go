// Package client adalah sisi konsumen dari subsistem notifikasi/chat:
// broker polling tunggal untuk inbox, sesi chat incremental, dan wrapper
// HTTP-nya.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Manuekle/gymratplus-sub004/models"
)

// ErrNotFound menandai mutasi atas record yang sudah tidak ada; caller
// memperlakukannya sebagai sukses-idempoten, bukan error.
var ErrNotFound = errors.New("record not found")

type API struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *API) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed (%d): %s", resp.StatusCode, env.Message)
	}
	return env.Data, nil
}

// Notifications mengambil inbox. force menambahkan parameter cache-busting
// supaya tidak tersangkut cache HTTP perantara.
func (a *API) Notifications(ctx context.Context, force bool) ([]models.Notification, error) {
	path := "/notifications"
	if force {
		path += "?t=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	data, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var notifs []models.Notification
	if err := json.Unmarshal(data, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

func (a *API) MarkRead(ctx context.Context, id uint) error {
	_, err := a.do(ctx, http.MethodPatch, fmt.Sprintf("/notifications/%d", id), nil)
	return err
}

func (a *API) MarkAllRead(ctx context.Context) error {
	_, err := a.do(ctx, http.MethodPatch, "/notifications/all", nil)
	return err
}

func (a *API) DeleteNotification(ctx context.Context, id uint) error {
	_, err := a.do(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d", id), nil)
	return err
}

// ChatPayload adalah bentuk respons endpoint chat
type ChatPayload struct {
	Chat     models.Chat                `json:"chat"`
	Messages []models.MessageWithSender `json:"messages"`
}

// Messages mengambil backlog chat; since=nil berarti full load (100
// terakhir), selain itu incremental.
func (a *API) Messages(ctx context.Context, chatID uint, since *time.Time) ([]models.MessageWithSender, error) {
	path := fmt.Sprintf("/chats/%d", chatID)
	if since != nil {
		// offset timezone bisa mengandung '+', wajib di-escape
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339Nano))
	}

	data, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var payload ChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// SendMessageRequest adalah body kirim message, mengikuti kontrak endpoint
type SendMessageRequest struct {
	Content   string `json:"content,omitempty"`
	Type      string `json:"type,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	ReplyToID *uint  `json:"reply_to_id,omitempty"`
}

func (a *API) Send(ctx context.Context, chatID uint, req SendMessageRequest) (models.MessageWithSender, error) {
	data, err := a.do(ctx, http.MethodPost, fmt.Sprintf("/chats/%d", chatID), req)
	if err != nil {
		return models.MessageWithSender{}, err
	}

	var msg models.MessageWithSender
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.MessageWithSender{}, err
	}
	return msg, nil
}
