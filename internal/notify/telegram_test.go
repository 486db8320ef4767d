package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelegramNotify(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender, err := NewTelegram(srv.URL, "123:abc", "-100500")
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}

	if err := sender.Notify(context.Background(), "big win"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/bot123:abc/sendMessage" {
		t.Fatalf("path mismatch: %s", gotPath)
	}
	if gotBody["chat_id"] != "-100500" || gotBody["text"] != "big win" {
		t.Fatalf("body mismatch: %+v", gotBody)
	}
}

func TestTelegramNotifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender, err := NewTelegram(srv.URL, "123:abc", "-100500")
	if err != nil {
		t.Fatalf("new telegram: %v", err)
	}

	if err := sender.Notify(context.Background(), "big win"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestTelegramRequiresCredentials(t *testing.T) {
	if _, err := NewTelegram("", "", "chat"); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := NewTelegram("", "token", ""); err == nil {
		t.Fatalf("expected error for missing chat id")
	}
}
