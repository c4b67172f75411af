package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSend(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("Authorization = %q, want test-key", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewGatewayClient(GatewayConfig{APIKey: "test-key", BaseURL: server.URL, Sender: "IDENTRA"})
	if err := c.Send(context.Background(), "+15551234567", "123456 is your verification code."); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["numbers"] != "+15551234567" {
		t.Errorf("numbers = %v", got["numbers"])
	}
	if got["sender"] != "IDENTRA" {
		t.Errorf("sender = %v", got["sender"])
	}
	if !strings.Contains(got["message"].(string), "123456") {
		t.Errorf("message = %v, want code included", got["message"])
	}
}

func TestSendMissingAPIKey(t *testing.T) {
	c := NewGatewayClient(GatewayConfig{BaseURL: "http://localhost"})
	if err := c.Send(context.Background(), "+15551234567", "x"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("err = %v, want ErrAPIKeyMissing", err)
	}
}

func TestSendGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid number"}`))
	}))
	defer server.Close()

	c := NewGatewayClient(GatewayConfig{APIKey: "k", BaseURL: server.URL})
	err := c.Send(context.Background(), "+15551234567", "x")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Errorf("err = %v, want status=400 mentioned", err)
	}
}
