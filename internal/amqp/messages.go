package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MirrorRequest asks the mirror worker to copy a sheet into local storage.
// An empty Sheet means every valid sheet.
type MirrorRequest struct {
	ID          string    `json:"id"`
	Sheet       string    `json:"sheet,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewMirrorRequest creates a request with a fresh id.
func NewMirrorRequest(sheet string) *MirrorRequest {
	return &MirrorRequest{
		ID:          uuid.NewString(),
		Sheet:       sheet,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MirrorRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MirrorRequestFromJSON decodes and checks a request body.
func MirrorRequestFromJSON(data []byte) (*MirrorRequest, error) {
	var msg MirrorRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errors.New("mirror request without id")
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PermanentError marks a handler failure that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the consumer drops the message instead of
// requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
