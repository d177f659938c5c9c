// Package notify содержит адаптеры исходящих уведомлений.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Notifier - отправитель коротких текстовых сообщений
//
// Все вызовы best-effort: вызывающий код логирует ошибку и продолжает работу,
// сбой уведомления никогда не влияет на обработку алерта.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Discord отправляет сообщения в канал через входящий webhook
type Discord struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscord создаёт Discord notifier
func NewDiscord(webhookURL string, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discord{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send отправляет текстовое сообщение в канал
//
// Контракт Discord webhook: POST {"content": "<text>"}, успех - 2xx
// (обычно 204 No Content).
func (d *Discord) Send(ctx context.Context, text string) error {
	if d.webhookURL == "" {
		return fmt.Errorf("discord webhook URL is not configured")
	}

	payload, err := jsoniter.Marshal(map[string]string{"content": text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook returned status %d: %s", resp.StatusCode, string(raw))
	}

	return nil
}
