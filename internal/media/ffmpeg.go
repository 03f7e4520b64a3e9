// Package media handles audio recording and format conversion.
package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter turns an arbitrary audio container into a 16kHz mono PCM
// WAV file the diarization engine accepts.
type Converter interface {
	ConvertTo16kMonoWAV(ctx context.Context, inputPath, outDir string) (string, error)
}

// FFmpeg converts audio by invoking the ffmpeg binary.
type FFmpeg struct{}

// ConvertTo16kMonoWAV extracts 16kHz mono WAV audio from inputPath.
// Returns the path of the converted file.
func (FFmpeg) ConvertTo16kMonoWAV(ctx context.Context, inputPath, outDir string) (string, error) {
	if outDir == "" {
		outDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outDir, base+"_16k.wav")

	// ffmpeg -y -i input -ac 1 -ar 16000 -f wav output
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", inputPath,
		"-ac", "1", "-ar", "16000",
		"-f", "wav",
		out,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return out, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
