package diarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Diarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/diarize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req diarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.FilePath != "/recordings/m1.wav" {
			t.Errorf("file_path = %q", req.FilePath)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"speaker": "SPEAKER_00", "start": 0.0, "end": 4.2},
				{"speaker": "SPEAKER_01", "start": 4.2, "end": 9.9},
			},
			"num_speakers": 2,
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	spans, err := c.Diarize(context.Background(), "/recordings/m1.wav")
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Speaker != "SPEAKER_00" || spans[0].End != 4.2 {
		t.Errorf("span 0 = %+v", spans[0])
	}
}

func TestClient_DiarizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "pipeline not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.Diarize(context.Background(), "/x.wav"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if !c.Health(context.Background()) {
		t.Error("expected healthy")
	}

	srv.Close()
	if c.Health(context.Background()) {
		t.Error("expected unhealthy after server close")
	}
}
