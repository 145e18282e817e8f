package ffmpeg

import (
	"context"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    time.Duration
		wantErr bool
	}{
		{"typical", `{"format":{"filename":"a.mp4","duration":"125.500000"}}`, 125500 * time.Millisecond, false},
		{"zero", `{"format":{"duration":"0.000000"}}`, 0, false},
		{"missing", `{"format":{}}`, 0, true},
		{"not a number", `{"format":{"duration":"N/A"}}`, 0, true},
		{"negative", `{"format":{"duration":"-1"}}`, 0, true},
		{"not json", `ffprobe: error`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration([]byte(tt.output))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProber_MissingBinary(t *testing.T) {
	p := Prober{Binary: "/nonexistent/ffprobe"}
	if _, err := p.Duration(context.Background(), "video.mp4"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
