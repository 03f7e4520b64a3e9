// Command audioclient streams a WAV file into a running service over
// the websocket endpoint and prints the transcript events it gets
// back. Development tool, not part of the service.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

const wavHeaderSize = 44

// 100ms chunks at 16kHz 16-bit mono = 3200 bytes.
const chunkSize = 3200
const chunkIntervalMs = 100

type envelope struct {
	Type           string          `json:"type"`
	MeetingID      string          `json:"meetingId,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	SessionID      string          `json:"sessionId,omitempty"`
	Provider       string          `json:"provider,omitempty"`
	Transcript     string          `json:"transcript,omitempty"`
	SpeakerTag     int             `json:"speakerTag,omitempty"`
	SpeakerName    string          `json:"speakerName,omitempty"`
	IsFinal        bool            `json:"isFinal,omitempty"`
	Message        string          `json:"message,omitempty"`
	FullTranscript json.RawMessage `json:"fullTranscript,omitempty"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverURL := flag.String("server", "ws://localhost:8080/ws", "Websocket endpoint")
	meetingID := flag.String("meeting", "meeting-"+time.Now().Format("150405"), "Meeting ID")
	userID := flag.String("user", "user-demo", "User ID")
	enroll := flag.Bool("enroll", false, "Start an enrollment session instead of transcription")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	if sampleRate != 16000 {
		log.Printf("Warning: sample rate is %d Hz, expected 16000 Hz", sampleRate)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", *serverURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg envelope
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "status":
				log.Printf("status: provider=%s", msg.Provider)
			case "transcriptionStarted", "enrollmentStarted":
				log.Printf("%s: session=%s provider=%s", msg.Type, msg.SessionID, msg.Provider)
			case "transcript":
				marker := " "
				if msg.IsFinal {
					marker = "*"
				}
				name := msg.SpeakerName
				if name == "" {
					name = fmt.Sprintf("Speaker %d", msg.SpeakerTag)
				}
				log.Printf("%s [%s] %s", marker, name, msg.Transcript)
			case "speakerEnrolled":
				log.Printf("enrolled: tag=%d name=%s", msg.SpeakerTag, msg.SpeakerName)
			case "streamRestarted":
				log.Printf("stream restarted")
			case "transcriptionStopped":
				log.Printf("stopped, full transcript: %s", msg.FullTranscript)
				return
			case "error":
				log.Printf("error: %s", msg.Message)
			}
		}
	}()

	start := "startTranscription"
	if *enroll {
		start = "startEnrollment"
	}
	if err := conn.WriteJSON(envelope{Type: start, MeetingID: *meetingID, UserID: *userID}); err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	chunk := make([]byte, chunkSize)
	var totalBytes int64
	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}
		totalBytes += int64(n)
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}
	log.Printf("Sent %d bytes of audio", totalBytes)

	// Give the provider a moment to flush trailing finals.
	time.Sleep(2 * time.Second)
	if err := conn.WriteJSON(envelope{Type: "stopTranscription"}); err != nil {
		log.Fatalf("Failed to stop session: %v", err)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Printf("Timed out waiting for transcriptionStopped")
	}
}
