package media

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

const wavHeaderSize = 44

// WAVWriter writes PCM16 mono frames into a WAV file, fixing up the
// RIFF header sizes on Close. Safe for a single writer.
type WAVWriter struct {
	mu         sync.Mutex
	f          *os.File
	path       string
	sampleRate int
	dataBytes  uint32
	closed     bool
}

// NewWAVWriter creates the file and reserves space for the header.
func NewWAVWriter(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	w := &WAVWriter{f: f, path: path, sampleRate: sampleRate}
	if err := w.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return w, nil
}

// Path returns the recording file path.
func (w *WAVWriter) Path() string { return w.path }

// WriteFrame appends one PCM16 frame.
func (w *WAVWriter) WriteFrame(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("wav writer closed")
	}
	n, err := w.f.Write(frame)
	w.dataBytes += uint32(n)
	return err
}

// Close rewrites the header with final sizes and closes the file.
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if _, err := w.f.Seek(0, 0); err != nil {
		w.f.Close()
		return err
	}
	if err := w.writeHeader(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// writeHeader emits the 44-byte canonical PCM WAV header.
func (w *WAVWriter) writeHeader() error {
	var hdr [wavHeaderSize]byte
	byteRate := uint32(w.sampleRate * 2) // mono, 16-bit

	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+w.dataBytes)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], byteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16) // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], w.dataBytes)

	_, err := w.f.Write(hdr[:])
	return err
}
