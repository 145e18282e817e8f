// Package ffmpeg wraps the ffprobe binary.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// FFProbeOutput is the part of `ffprobe -print_format json -show_format`
// output we read.
type FFProbeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober runs ffprobe. The zero value uses "ffprobe" from PATH.
type Prober struct {
	Binary string
}

// Duration returns the container duration of the media file at path.
func (p Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())
	}
	return ParseDuration(out.Bytes())
}

// ParseDuration extracts format.duration from ffprobe JSON output.
func ParseDuration(output []byte) (time.Duration, error) {
	var probe FFProbeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output")
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string %q: %w", probe.Format.Duration, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %q", probe.Format.Duration)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
