//go:build !rp2040

package uplink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telemetry-node/types"
)

func TestRESTPostsJSON(t *testing.T) {
	var got map[string]any
	var hdr http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rest := NewREST(srv.URL+"/rest/v1/readings", "k3y", time.Second, quiet())
	p := NewPayload(types.Reading{Temperature: 22.5, Humidity: 47.25}, time.Date(2024, 7, 1, 0, 30, 0, 0, time.UTC), true)
	if code := rest.Post(context.Background(), p); code != http.StatusCreated {
		t.Fatalf("code = %d", code)
	}
	if got["temperature"] != 22.5 || got["humidity"] != 47.25 || got["timestamp"] != "2024-07-01 00:30:00.000000+00" {
		t.Fatalf("body = %v", got)
	}
	if hdr.Get("apikey") != "k3y" || hdr.Get("Authorization") != "Bearer k3y" {
		t.Fatalf("auth headers = %v", hdr)
	}
	if hdr.Get("Content-Type") != "application/json" {
		t.Fatalf("content type = %q", hdr.Get("Content-Type"))
	}
}

func TestRESTReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"duplicate key"}`, http.StatusConflict)
	}))
	defer srv.Close()

	code := NewREST(srv.URL, "", time.Second, quiet()).Post(context.Background(), types.Payload{})
	if code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", code)
	}
}

func TestRESTTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if code := NewREST(url, "", 200*time.Millisecond, quiet()).Post(context.Background(), types.Payload{}); code != TransportError {
		t.Fatalf("code = %d, want %d", code, TransportError)
	}
}
