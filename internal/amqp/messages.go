package amqp

import (
	"encoding/json"
	"time"
)

// PeriodArchivedMessage announces that a period has been superseded by a
// newer one. It carries only identifiers; the worker fetches the full
// period from the database before exporting it.
type PeriodArchivedMessage struct {
	PeriodID  int64     `json:"period_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPeriodArchivedMessage creates an archive message for a period.
func NewPeriodArchivedMessage(periodID int64, ownerID string) *PeriodArchivedMessage {
	return &PeriodArchivedMessage{
		PeriodID:  periodID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *PeriodArchivedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PeriodArchivedMessageFromJSON creates a message from JSON bytes.
func PeriodArchivedMessageFromJSON(data []byte) (*PeriodArchivedMessage, error) {
	var msg PeriodArchivedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
