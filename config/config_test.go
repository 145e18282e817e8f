package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	yml := `
server:
  http_addr: ":8080"
transcription:
  endpoint: http://stt:8000/transcribe-stream
  chunk_timeout: 30s
generation:
  provider: openai
  endpoint: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key: sk-test
store:
  driver: postgres
  postgres_dsn: postgres://localhost/videomcq
`
	cfg, err := LoadFromReader(strings.NewReader(yml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("http_addr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Transcription.ChunkTimeout != 30*time.Second {
		t.Errorf("chunk_timeout = %v, want 30s", cfg.Transcription.ChunkTimeout)
	}
	if cfg.Transcription.WindowSeconds != 60 {
		t.Errorf("window_seconds = %v, want default 60", cfg.Transcription.WindowSeconds)
	}
	if cfg.Generation.Provider != "openai" || cfg.Store.Driver != "postgres" {
		t.Errorf("provider/driver = %q/%q", cfg.Generation.Provider, cfg.Store.Driver)
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Generation.Model != "mistral" {
		t.Errorf("model = %q, want mistral", cfg.Generation.Model)
	}
}

func TestLoadFromReader_Errors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		want []string
	}{
		{
			name: "unknown field",
			yml:  "server:\n  port: 1\n",
			want: []string{"port"},
		},
		{
			name: "openai without key",
			yml:  "generation:\n  provider: openai\n",
			want: []string{"generation.apikey", "required_if"},
		},
		{
			name: "supabase without credentials",
			yml:  "store:\n  driver: supabase\n",
			want: []string{"store.supabaseurl", "store.supabasekey"},
		},
		{
			name: "bad driver and log level",
			yml:  "store:\n  driver: sqlite\nserver:\n  log_level: loud\n",
			want: []string{"store.driver", "server.loglevel"},
		},
		{
			name: "redis queue without address",
			yml:  "queue:\n  driver: redis\n",
			want: []string{"queue.redisaddr"},
		},
		{
			name: "bad endpoint",
			yml:  "transcription:\n  endpoint: not a url\n",
			want: []string{"transcription.endpoint", "url"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.yml))
			if err == nil {
				t.Fatal("want error, got nil")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"VIDEOMCQ_MODEL":        "llama3",
		"DATABASE_URL":          "postgres://db/videomcq",
		"VIDEOMCQ_STORE_DRIVER": "postgres",
		"VIDEOMCQ_WORKERS":      "8",
		"REDIS_ADDR":            "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Generation.Model != "llama3" || cfg.Store.PostgresDSN != "postgres://db/videomcq" || cfg.Queue.Workers != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Queue.RedisAddr != "" {
		t.Errorf("empty env value overrode redis_addr: %q", cfg.Queue.RedisAddr)
	}

	env["VIDEOMCQ_WORKERS"] = "many"
	if err := ApplyEnv(Default(), lookup); err == nil || !strings.Contains(err.Error(), "VIDEOMCQ_WORKERS") {
		t.Errorf("ApplyEnv with bad int = %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videomcq.yaml")
	if err := os.WriteFile(path, []byte("generation:\n  model: phi3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIDEOMCQ_HTTP_ADDR", ":9999")
	t.Setenv("VIDEOMCQ_MODEL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.Model != "phi3" {
		t.Errorf("model = %q, want phi3", cfg.Generation.Model)
	}
	if cfg.Server.HTTPAddr != ":9999" {
		t.Errorf("http_addr = %q, want :9999", cfg.Server.HTTPAddr)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file: want error")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn")
	if log.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", log.GetLevel())
	}
	log.Info("dropped")
	log.WithField("video_id", "v1").Warn("kept")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not one JSON line: %q", buf.String())
	}
	if entry["msg"] != "kept" || entry["video_id"] != "v1" {
		t.Errorf("entry = %v", entry)
	}

	if got := newLogger(&buf, "nonsense").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("fallback level = %v, want info", got)
	}
}
