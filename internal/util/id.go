package util

import "github.com/google/uuid"

// NewID returns a random v4 UUID string. Users, articles, events and
// request ids all share this format.
func NewID() string {
	return uuid.NewString()
}
