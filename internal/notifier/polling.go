package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	pollTimeout = 30 * time.Second
	pollRetry   = 5 * time.Second
)

// CommandHandler maps a chat command to its reply. An empty reply sends
// nothing.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool             `json:"ok"`
	Description string           `json:"description"`
	Result      []telegramUpdate `json:"result"`
}

// StartPolling long-polls getUpdates and answers each command through
// handler. It blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	// The HTTP timeout has to outlast the server-side long poll.
	client := &http.Client{Timeout: pollTimeout + 5*time.Second, Transport: t.Client.Transport}
	offset := 0
	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] telegram polling: %v", err)
			if !sleepCtx(ctx, pollRetry) {
				break
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.answer(ctx, u, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, int(pollTimeout.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	defer resp.Body.Close()

	var out updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode updates (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram API error: status %d, %s", resp.StatusCode, out.Description)
	}
	return out.Result, nil
}

func (t *TelegramNotifier) answer(ctx context.Context, u telegramUpdate, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return
	}
	log.Printf("[INFO] received command: %s", text)
	reply := handler(text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		log.Printf("[ERROR] send reply: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
