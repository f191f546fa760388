package models

import "time"

type LogEntry struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	User      string    `json:"user" db:"user_name"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
}

type LogChanges struct {
	Action  *string `json:"action"`
	Details *string `json:"details"`
}

func (c *LogChanges) HasChanges() bool {
	return c.Action != nil || c.Details != nil
}
