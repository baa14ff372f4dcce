package placement

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
)

func TestPlaceCallSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calls" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req CallRequest
		if err := sonic.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if req.ToNumber != "+12132841509" {
			t.Errorf("to_number = %q", req.ToNumber)
		}
		if req.Information != "eligibility check" {
			t.Errorf("information = %q", req.Information)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","call_sid":"CA123","websocket_url":"ws://gateway/stream/CA123"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	placed, err := client.PlaceCall(context.Background(), "+12132841509", "eligibility check")
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if placed.CallSid != "CA123" {
		t.Errorf("CallSid = %q", placed.CallSid)
	}
	if placed.StreamURL != "ws://gateway/stream/CA123" {
		t.Errorf("StreamURL = %q", placed.StreamURL)
	}
}

func TestPlaceCallGatewayFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"destination unreachable"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.PlaceCall(context.Background(), "+12132841509", "")
	if !errors.Is(err, ErrPlacementFailed) {
		t.Fatalf("err = %v, want ErrPlacementFailed", err)
	}
}

func TestPlaceCallMissingWebsocketURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","call_sid":"CA123"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.PlaceCall(context.Background(), "+12132841509", "")
	if !errors.Is(err, ErrPlacementFailed) {
		t.Fatalf("err = %v, want ErrPlacementFailed", err)
	}
}

func TestPlaceCallHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.PlaceCall(context.Background(), "+12132841509", "")
	if !errors.Is(err, ErrPlacementFailed) {
		t.Fatalf("err = %v, want ErrPlacementFailed", err)
	}
}

func TestPlaceCallNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization header set without an API key")
		}
		w.Write([]byte(`{"status":"success","websocket_url":"ws://gateway/stream"}`))
	}))
	defer server.Close()

	client := NewClient("", server.URL)
	if _, err := client.PlaceCall(context.Background(), "+12132841509", ""); err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
}
