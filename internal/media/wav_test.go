package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVWriter_HeaderAndData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	w, err := NewWAVWriter(path, 16000)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}

	frame := make([]byte, 320) // 10ms of 16kHz PCM16
	for i := range frame {
		frame[i] = byte(i)
	}
	if err := w.WriteFrame(frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.WriteFrame(frame); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != wavHeaderSize+640 {
		t.Fatalf("file size = %d, want %d", len(data), wavHeaderSize+640)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 640 {
		t.Errorf("data size = %d, want 640", got)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
}

func TestWAVWriter_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	w, err := NewWAVWriter(path, 16000)
	if err != nil {
		t.Fatalf("NewWAVWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteFrame([]byte{1, 2}); err == nil {
		t.Error("expected error writing after close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close must be idempotent: %v", err)
	}
}
