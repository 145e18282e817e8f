package transcript

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "fake-video" || header.Filename != "talk.mp4" {
			t.Errorf("upload = %q/%q", header.Filename, data)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`data: {"text":"one","start":0,"end":10}`,
			`data: {"text":"two","start":62,"end":70}`,
		} {
			io.WriteString(w, line+"\n\n")
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithLogger(quietLogger()), WithChunkTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	res, err := c.Transcribe(context.Background(), "/tmp/talk.mp4", strings.NewReader("fake-video"), 70, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	if res.Segments[1].SegmentNumber != 2 || res.Segments[1].Text != "two" {
		t.Errorf("segment 2 = %+v", res.Segments[1])
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, WithLogger(quietLogger()))
	_, err := c.Transcribe(context.Background(), "a.mp4", strings.NewReader("x"), 10, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not mention status", err)
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}
