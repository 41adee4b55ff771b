package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBarkNotify(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	bark := NewBark(server.URL, "device-key", nil)
	if err := bark.Notify(context.Background(), "定时任务启动", "定时任务启动"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["title"] != "定时任务启动" || got["device_key"] != "device-key" {
		t.Fatalf("payload = %v", got)
	}
}

func TestBarkNotifyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	bark := NewBark(server.URL, "device-key", nil)
	if err := bark.Notify(context.Background(), "t", "b"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestBarkNotifyMissingKey(t *testing.T) {
	bark := NewBark("", "", nil)
	if err := bark.Notify(context.Background(), "t", "b"); err == nil {
		t.Fatal("expected error when device key is not configured")
	}
}
