// Package notify envia avisos para administradores via webhook de chat.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured indica webhook ausente.
var ErrNotConfigured = errors.New("webhook de avisos não configurado")

// Notifier entrega avisos para canais externos.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Message é um aviso curto.
type Message struct {
	Title    string
	Text     string
	Severity string
}

// Webhook posta {"text": ...} no formato aceito por Slack e compatíveis.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook devolve nil quando url está vazia.
func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

// Notify envia a mensagem.
func (w *Webhook) Notify(ctx context.Context, msg Message) error {
	if w == nil || w.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{"text": Format(msg)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	return nil
}

// Format monta o texto com emoji por severidade.
func Format(msg Message) string {
	emoji := ":information_source:"
	switch msg.Severity {
	case "warning":
		emoji = ":warning:"
	case "critical":
		emoji = ":rotating_light:"
	}
	if msg.Title != "" {
		return emoji + " *" + msg.Title + "*\n" + msg.Text
	}
	return emoji + " " + msg.Text
}
