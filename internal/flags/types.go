package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("switch not found")

// Flag is a stored on/off switch. Gateway endpoint switches use keys built
// by EndpointKey.
type Flag struct {
	Key       string    `json:"key"`
	Enabled   bool      `json:"enabled"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
