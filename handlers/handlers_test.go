package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"videomcq/internal/events"
	"videomcq/internal/jobs"
	"videomcq/internal/mcq"
	"videomcq/internal/pipeline"
	"videomcq/internal/store"
	"videomcq/models"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []jobs.Task
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, t jobs.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, t)
	return nil
}

type harness struct {
	t     *testing.T
	store *store.Memory
	bus   *events.Memory
	queue *recordingQueue
	h     *ApplicationHandler
	app   *fiber.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := store.NewMemory()
	bus := events.NewMemory(0)
	o, err := pipeline.New(pipeline.Config{
		TranscriptionEndpoint: "http://127.0.0.1:1/transcribe",
		GenerationEndpoint:    "http://127.0.0.1:1",
		Model:                 "test",
		Store:                 s,
	}, pipeline.WithLogger(logger), pipeline.WithBus(bus),
		pipeline.WithGenerator(mcq.GeneratorFunc(func(context.Context, string) (string, error) { return "", nil })))
	if err != nil {
		t.Fatal(err)
	}
	q := &recordingQueue{}
	h := NewApplicationHandler(s, o, jobs.NewService(s, q, logger), bus, logger)
	h.UploadDir = t.TempDir()
	h.MaxUploadBytes = 1 << 20
	h.Services = map[string]string{"transcription": "http://stt", "generation": "http://llm"}
	return &harness{t: t, store: s, bus: bus, queue: q, h: h, app: NewApp(h, AppConfig{})}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

func (hs *harness) do(method, path string, body any) (int, envelope) {
	hs.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			hs.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := hs.app.Test(req, -1)
	if err != nil {
		hs.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			hs.t.Fatalf("%s %s: body %q is not an envelope", method, path, raw)
		}
	}
	return resp.StatusCode, env
}

func (hs *harness) seedVideo(id string) models.Video {
	hs.t.Helper()
	path := filepath.Join(hs.h.UploadDir, id+".mp4")
	if err := os.WriteFile(path, []byte("fake-video"), 0o644); err != nil {
		hs.t.Fatal(err)
	}
	v := models.Video{ID: id, Filename: id + ".mp4", Filepath: path, UploadedAt: time.Now().UTC(), Status: models.VideoStatusUploaded}
	if err := hs.store.SaveVideo(context.Background(), v); err != nil {
		hs.t.Fatal(err)
	}
	return v
}

func multipartVideo(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadVideo(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		filename    string
		contentType string
		size        int
		wantStatus  int
	}{
		{"mp4", "video", "lecture.mp4", "video/mp4", 1024, http.StatusCreated},
		{"quicktime", "video", "clip.mov", "video/quicktime", 10, http.StatusCreated},
		{"wrong type", "video", "notes.pdf", "application/pdf", 10, http.StatusBadRequest},
		{"wrong field", "file", "lecture.mp4", "video/mp4", 10, http.StatusBadRequest},
		{"too large", "video", "big.mp4", "video/mp4", 2 << 20, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			body, ct := multipartVideo(t, tt.field, tt.filename, tt.contentType, make([]byte, tt.size))
			req := httptest.NewRequest("POST", "/api/upload", body)
			req.Header.Set("Content-Type", ct)
			resp, err := hs.app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				raw, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, raw)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var env envelope
			json.NewDecoder(resp.Body).Decode(&env)
			var v models.Video
			if err := json.Unmarshal(env.Data, &v); err != nil {
				t.Fatal(err)
			}
			if v.Filename != tt.filename || v.Status != models.VideoStatusUploaded || v.SizeBytes != int64(tt.size) {
				t.Errorf("video = %+v", v)
			}
			if _, err := os.Stat(v.Filepath); err != nil {
				t.Errorf("uploaded file missing: %v", err)
			}
			if _, err := hs.store.GetVideo(context.Background(), v.ID); err != nil {
				t.Errorf("video not stored: %v", err)
			}
		})
	}
}

func TestVideos_CRUD(t *testing.T) {
	hs := newHarness(t)
	v := hs.seedVideo("v1")

	code, env := hs.do("POST", "/api/videos", map[string]any{"id": "v2", "filename": "b.mp4"})
	if code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", code, env.Message)
	}
	if code, env := hs.do("POST", "/api/videos", map[string]any{"filename": "c.mp4"}); code != http.StatusBadRequest || len(env.Errors) == 0 {
		t.Errorf("create without id = %d %+v", code, env)
	}

	code, env = hs.do("GET", "/api/videos", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	var list []models.VideoSummary
	json.Unmarshal(env.Data, &list)
	if len(list) != 2 {
		t.Errorf("list = %d videos, want 2", len(list))
	}

	if code, _ := hs.do("GET", "/api/videos/v1", nil); code != http.StatusOK {
		t.Errorf("get status = %d", code)
	}
	if code, env := hs.do("GET", "/api/videos/nope", nil); code != http.StatusNotFound || env.Status != "error" {
		t.Errorf("get missing = %d %+v", code, env)
	}

	resp, err := hs.app.Test(httptest.NewRequest("GET", "/api/videos/v1/file", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := io.ReadAll(resp.Body); string(data) != "fake-video" {
		t.Errorf("file body = %q", data)
	}

	hs.store.SaveMCQs(context.Background(), "v1", []models.MCQQuestion{{ID: "q1", SegmentID: "s1", Question: "Q?", Options: []string{"a", "b"}}})
	if code, _ := hs.do("DELETE", "/api/videos/v1", nil); code != http.StatusOK {
		t.Fatalf("delete status = %d", code)
	}
	if _, err := os.Stat(v.Filepath); !os.IsNotExist(err) {
		t.Errorf("file still present after delete: %v", err)
	}
	if _, err := hs.store.GetMCQ(context.Background(), "q1"); err == nil {
		t.Error("question survived video delete")
	}
	if code, _ := hs.do("DELETE", "/api/videos/v1", nil); code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", code)
	}
}

func TestTranscripts(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")

	segs := []models.TranscriptSegment{
		{ID: "s2", Text: "two", StartTime: 60, EndTime: 90, SegmentNumber: 2},
		{ID: "s1", Text: "one", StartTime: 0, EndTime: 55, SegmentNumber: 1},
	}
	if code, env := hs.do("POST", "/api/transcripts", models.Transcript{VideoID: "v1", Segments: segs}); code != http.StatusOK {
		t.Fatalf("save status = %d (%s %v)", code, env.Message, env.Errors)
	}
	code, env := hs.do("GET", "/api/transcripts/v1", nil)
	if code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	var got []models.TranscriptSegment
	json.Unmarshal(env.Data, &got)
	if len(got) != 2 || got[0].ID != "s1" {
		t.Errorf("segments = %+v, want ordered by number", got)
	}

	bad := models.Transcript{VideoID: "v1", Segments: []models.TranscriptSegment{{ID: "x", StartTime: 10, EndTime: 5, SegmentNumber: 1}}}
	if code, _ := hs.do("POST", "/api/transcripts", bad); code != http.StatusBadRequest {
		t.Errorf("end before start = %d, want 400", code)
	}
	if code, _ := hs.do("POST", "/api/transcripts", models.Transcript{VideoID: "nope", Segments: segs}); code != http.StatusNotFound {
		t.Errorf("unknown video = %d, want 404", code)
	}
}

func TestMCQs(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")

	req := SaveMCQsRequest{VideoID: "v1", Questions: []models.MCQQuestion{
		{SegmentID: "s1", Question: "Q1?", Options: []string{"a", "b", "c"}, CorrectAnswer: 2},
		{ID: "q2", SegmentID: "s1", Question: "Q2?", Options: []string{"x", "y"}},
	}}
	code, env := hs.do("POST", "/api/mcqs", req)
	if code != http.StatusCreated {
		t.Fatalf("save status = %d (%s)", code, env.Message)
	}
	var saved []models.MCQQuestion
	json.Unmarshal(env.Data, &saved)
	if len(saved) != 2 || saved[0].ID == "" {
		t.Fatalf("saved = %+v", saved)
	}

	badReq := SaveMCQsRequest{VideoID: "v1", Questions: []models.MCQQuestion{{SegmentID: "s1", Question: "Q?", Options: []string{"only"}}}}
	if code, _ := hs.do("POST", "/api/mcqs", badReq); code != http.StatusBadRequest {
		t.Errorf("one option = %d, want 400", code)
	}

	code, env = hs.do("PUT", "/api/mcqs/q2", map[string]any{"question": "Edited?", "correctAnswer": 1})
	if code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", code, env.Message)
	}
	var q models.MCQQuestion
	json.Unmarshal(env.Data, &q)
	if q.Question != "Edited?" || q.CorrectAnswer != 1 || q.Options[0] != "x" {
		t.Errorf("updated = %+v", q)
	}
	if code, _ := hs.do("PUT", "/api/mcqs/q2", map[string]any{"correctAnswer": 5}); code != http.StatusBadRequest {
		t.Errorf("out of range answer = %d, want 400", code)
	}
	if code, _ := hs.do("PUT", "/api/mcqs/q2", map[string]any{}); code != http.StatusBadRequest {
		t.Errorf("empty patch = %d, want 400", code)
	}
	if code, _ := hs.do("PUT", "/api/mcqs/missing", map[string]any{"question": "x"}); code != http.StatusNotFound {
		t.Errorf("missing question = %d, want 404", code)
	}

	if code, _ := hs.do("DELETE", "/api/mcqs/q2", nil); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	code, env = hs.do("GET", "/api/mcqs/v1", nil)
	var list []models.MCQQuestion
	json.Unmarshal(env.Data, &list)
	if code != http.StatusOK || len(list) != 1 {
		t.Errorf("list after delete = %d, %d questions", code, len(list))
	}
}

func TestExportMCQs(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")
	hs.store.SaveMCQs(context.Background(), "v1", []models.MCQQuestion{
		{ID: "q1", SegmentID: "s1", Question: "Capital of France?", Options: []string{"Berlin", "Paris"}, CorrectAnswer: 1, Explanation: "Paris, obviously"},
	})

	get := func(format string) (*http.Response, string) {
		t.Helper()
		resp, err := hs.app.Test(httptest.NewRequest("GET", "/api/mcqs/v1/export?format="+format, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(resp.Body)
		return resp, string(b)
	}

	resp, body := get("csv")
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "mcq-questions-v1.csv") {
		t.Errorf("disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := []string{"1", "Capital of France?", "Berlin | Paris", "B", "Paris, obviously", "s1"}
	if len(rows) != 2 || strings.Join(rows[1], ";") != strings.Join(want, ";") {
		t.Errorf("rows = %q", rows)
	}

	_, body = get("txt")
	for _, s := range []string{"1. Capital of France?", "   B. Paris", "Answer Key", "1. Correct Answer: B", "Explanation: Paris, obviously"} {
		if !strings.Contains(body, s) {
			t.Errorf("txt export missing %q:\n%s", s, body)
		}
	}

	_, body = get("json")
	var qs []models.MCQQuestion
	if err := json.Unmarshal([]byte(body), &qs); err != nil || len(qs) != 1 {
		t.Errorf("json export = %s", body)
	}

	if resp, _ := get("pdf"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("pdf = %d, want 400", resp.StatusCode)
	}
}

func TestGenerationJobs(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")

	code, env := hs.do("POST", "/api/videos/v1/transcribe", nil)
	if code != http.StatusAccepted {
		t.Fatalf("transcribe = %d (%s)", code, env.Message)
	}
	var job models.ProcessingJob
	json.Unmarshal(env.Data, &job)
	if job.Status != models.JobStatusPending || job.JobType != models.JobTypeTranscribe {
		t.Errorf("job = %+v", job)
	}
	if len(hs.queue.tasks) != 1 || hs.queue.tasks[0].JobID != job.ID {
		t.Errorf("queued = %+v", hs.queue.tasks)
	}

	code, env = hs.do("GET", "/api/jobs/"+job.ID, nil)
	if code != http.StatusOK {
		t.Errorf("job status = %d", code)
	}

	if code, env := hs.do("POST", "/api/videos/v1/mcqs/generate", nil); code != http.StatusBadRequest || !strings.Contains(env.Message, "transcript") {
		t.Errorf("generate without transcript = %d %q", code, env.Message)
	}
	hs.store.SaveTranscript(context.Background(), "v1", []models.TranscriptSegment{{ID: "s1", Text: "t", EndTime: 5, SegmentNumber: 1}})
	if code, _ := hs.do("POST", "/api/videos/v1/mcqs/generate", nil); code != http.StatusAccepted {
		t.Errorf("generate = %d, want 202", code)
	}
	if code, _ := hs.do("POST", "/api/videos/nope/process", nil); code != http.StatusNotFound {
		t.Errorf("process unknown video = %d, want 404", code)
	}

	hs.queue.err = jobs.ErrQueueFull
	if code, _ := hs.do("POST", "/api/videos/v1/process", nil); code != http.StatusServiceUnavailable {
		t.Errorf("queue full = %d, want 503", code)
	}
	if code, _ := hs.do("GET", "/api/jobs/missing", nil); code != http.StatusNotFound {
		t.Errorf("missing job = %d, want 404", code)
	}
}

func parseSSE(body string) []events.Event {
	var out []events.Event
	for _, block := range strings.Split(body, "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				var e events.Event
				if json.Unmarshal([]byte(data), &e) == nil {
					out = append(out, e)
				}
			}
		}
	}
	return out
}

func TestStreamEvents_CompletedVideo(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")
	hs.store.UpdateVideoStatus(context.Background(), "v1", models.VideoStatusCompleted)

	resp, err := hs.app.Test(httptest.NewRequest("GET", "/api/videos/v1/events", nil), 5000)
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	evs := parseSSE(string(body))
	if len(evs) != 1 || evs[0].Kind != events.KindState || evs[0].Status != models.VideoStatusCompleted {
		t.Errorf("events = %+v", evs)
	}
	if !strings.HasPrefix(string(body), "event: state\n") {
		t.Errorf("body = %q", body)
	}
}

func TestStreamEvents_Live(t *testing.T) {
	hs := newHarness(t)
	hs.seedVideo("v1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Publish until the subscriber has seen the terminal state.
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hs.bus.Publish(ctx, events.MCQProgress("v1", 1, 2))
				hs.bus.Publish(ctx, events.State("v1", models.StageCompleted, models.VideoStatusCompleted, ""))
			}
		}
	}()

	resp, err := hs.app.Test(httptest.NewRequest("GET", "/api/videos/v1/events", nil), 5000)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	cancel()

	evs := parseSSE(string(body))
	if len(evs) < 2 {
		t.Fatalf("events = %+v", evs)
	}
	if evs[0].Status != models.VideoStatusUploaded {
		t.Errorf("first event = %+v, want uploaded snapshot", evs[0])
	}
	if last := evs[len(evs)-1]; !last.Terminal() {
		t.Errorf("last event = %+v, want terminal", last)
	}
}

func TestStreamEvents_UnknownVideo(t *testing.T) {
	hs := newHarness(t)
	if code, _ := hs.do("GET", "/api/videos/nope/events", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

type downStore struct{ *store.Memory }

func (downStore) Ping(context.Context) error { return fmt.Errorf("dial tcp: connection refused") }

func TestHealth(t *testing.T) {
	hs := newHarness(t)
	resp, err := hs.app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var hr HealthResponse
	json.NewDecoder(resp.Body).Decode(&hr)
	if resp.StatusCode != http.StatusOK || hr.Status != "ok" || hr.Services["transcription"] != "http://stt" {
		t.Errorf("health = %d %+v", resp.StatusCode, hr)
	}

	hs.h.Store = downStore{hs.store}
	resp, err = hs.app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	json.NewDecoder(resp.Body).Decode(&hr)
	if resp.StatusCode != http.StatusServiceUnavailable || hr.Status != "degraded" {
		t.Errorf("degraded health = %d %+v", resp.StatusCode, hr)
	}
}
