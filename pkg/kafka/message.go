package kafka

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/kodi/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// ParseStagingLoaded decodes a staging.loaded event. The source defaults to the
// "source" header and then to staging.
func (m *IncomingMessage) ParseStagingLoaded() (*models.StagingLoadedEvent, error) {
	var event models.StagingLoadedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to decode staging loaded event: %w", err)
	}

	event.Source = strings.ToLower(strings.TrimSpace(event.Source))
	if event.Source == "" {
		event.Source = strings.ToLower(m.Headers["source"])
	}
	if event.Source == "" {
		event.Source = "staging"
	}
	if event.LoadID == "" {
		event.LoadID = m.Key
	}
	return &event, nil
}
