package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidMessage marks a message that can never be processed.
var ErrInvalidMessage = errors.New("invalid closing request")

// ClosingRequestMessage asks the worker to compute and store the closing of
// one month. The worker reads the records itself; the message only names
// the period.
type ClosingRequestMessage struct {
	ID          string     `json:"id"`
	Year        int        `json:"year"`
	Month       time.Month `json:"month"`
	RequestedAt time.Time  `json:"requested_at"`
}

// NewClosingRequestMessage creates a request with a fresh id
func NewClosingRequestMessage(year int, month time.Month) *ClosingRequestMessage {
	return &ClosingRequestMessage{
		ID:          uuid.NewString(),
		Year:        year,
		Month:       month,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate rejects messages the worker could not act on
func (m *ClosingRequestMessage) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	if m.Year < 1 || m.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidMessage, m.Year)
	}
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidMessage, int(m.Month))
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ClosingRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ClosingRequestMessageFromJSON decodes and validates a message
func ClosingRequestMessageFromJSON(data []byte) (*ClosingRequestMessage, error) {
	var msg ClosingRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
