package biosync

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

type journalEntry struct {
	RecordedAt time.Time `json:"recorded_at"`
	Outcome
}

// JournalWriter appends outcomes to a JSON Lines file.
type JournalWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

func NewJournalWriter(path string) (*JournalWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &JournalWriter{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Write appends a single outcome.
func (jw *JournalWriter) Write(o Outcome) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(journalEntry{
		RecordedAt: time.Now().UTC(),
		Outcome:    o,
	})
}

func (jw *JournalWriter) Close() error {
	return jw.file.Close()
}
