package notify

import (
	"context"
	"log"
)

// LogBackend writes envelopes to the process log instead of a broker.
// Development only.
type LogBackend struct{}

func NewLogBackend() *LogBackend {
	return &LogBackend{}
}

func (l *LogBackend) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	log.Printf("notify: channel=%s payload=%s", channel, data)
	return "", nil
}

func (l *LogBackend) Close() error {
	return nil
}
