package model

import "time"

// Job is a single conversion. ID is opaque to everything but the server.
type Job struct {
	ID        string
	Source    string
	CreatedAt time.Time
}
