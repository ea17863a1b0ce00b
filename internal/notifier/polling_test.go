package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBotAPI serves one batch of updates, then holds later long polls open
// until the client goes away. Replies sent through sendMessage land on
// replies.
type fakeBotAPI struct {
	mu      sync.Mutex
	offsets []string
	batch   string
	replies chan string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		off := r.URL.Query().Get("offset")
		f.mu.Lock()
		f.offsets = append(f.offsets, off)
		f.mu.Unlock()
		if off == "0" {
			w.Write([]byte(f.batch))
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			w.Write([]byte(`{"ok":true,"result":[]}`))
		}
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			f.replies <- body["text"]
		}
		w.Write([]byte(`{"ok":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBotAPI) sawOffset(off string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offsets {
		if o == off {
			return true
		}
	}
	return false
}

func TestStartPolling_AnswersCommandsAndAdvancesOffset(t *testing.T) {
	api := &fakeBotAPI{
		batch:   `{"ok":true,"result":[{"update_id":7,"message":{"text":" /status "}},{"update_id":8}]}`,
		replies: make(chan string, 4),
	}
	srv := httptest.NewServer(api)
	defer srv.Close()

	n := NewTelegramNotifier("tok", "42", "")
	n.APIBase = srv.URL

	var mu sync.Mutex
	var commands []string
	handler := func(cmd string) string {
		mu.Lock()
		commands = append(commands, cmd)
		mu.Unlock()
		return "reply:" + cmd
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, handler)
		close(done)
	}()

	select {
	case reply := <-api.replies:
		if reply != "reply:/status" {
			t.Errorf("reply = %q, want reply:/status", reply)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply sent")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !api.sawOffset("9") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !api.sawOffset("9") {
		t.Error("offset not advanced past the last update")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(commands) != 1 || commands[0] != "/status" {
		t.Errorf("handler saw %v, want [/status]", commands)
	}
}

func TestStartPolling_APIErrorBacksOff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("bad", "42", "")
	n.APIBase = srv.URL
	if _, err := n.getUpdates(context.Background(), srv.Client(), 0); err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("expected API error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(string) string { return "" })
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("polling did not stop while backing off")
	}
}
