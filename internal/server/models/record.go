package models

import "time"

// Record is one append-only row of a collection.
type Record struct {
	Collection string
	Key        string
	Data       map[string]any
	CreatedAt  time.Time
}
