package cmd

import (
	"context"
	"testing"

	"videomcq/config"
	"videomcq/internal/mcq"
	"videomcq/internal/store"
)

func TestOpenStore(t *testing.T) {
	s, err := openStore(context.Background(), config.StoreConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if _, ok := s.(*store.Memory); !ok {
		t.Errorf("store = %T, want *store.Memory", s)
	}
	if _, err := openStore(context.Background(), config.StoreConfig{Driver: "sqlite"}); err == nil {
		t.Error("unknown driver: want error")
	}
}

func TestNewGenerator(t *testing.T) {
	logger = config.NewLogger("error")
	tests := []struct {
		name    string
		cfg     config.GenerationConfig
		want    string
		wantErr bool
	}{
		{"ollama", config.GenerationConfig{Provider: "ollama", Endpoint: "http://localhost:11434", Model: "mistral"}, "*mcq.OllamaGenerator", false},
		{"openai", config.GenerationConfig{Provider: "openai", Endpoint: "https://api.openai.com/v1", Model: "gpt-4o-mini", APIKey: "sk"}, "*mcq.OpenAIGenerator", false},
		{"unknown", config.GenerationConfig{Provider: "bard"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := newGenerator(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch gen.(type) {
			case *mcq.OllamaGenerator:
				if tt.want != "*mcq.OllamaGenerator" {
					t.Errorf("got ollama, want %s", tt.want)
				}
			case *mcq.OpenAIGenerator:
				if tt.want != "*mcq.OpenAIGenerator" {
					t.Errorf("got openai, want %s", tt.want)
				}
			}
		})
	}
}

func TestBuildDeps_Memory(t *testing.T) {
	cfg = config.Default()
	logger = config.NewLogger("error")
	d, err := buildDeps(context.Background())
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	defer d.Close()
	if d.pipe == nil || d.bus == nil || d.redis != nil {
		t.Errorf("deps = %+v", d)
	}

	q, disp, err := newQueue(d, nil)
	if err != nil || q == nil || disp == nil {
		t.Errorf("newQueue = %v, %v, %v", q, disp, err)
	}
}
