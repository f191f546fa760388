package models

import "time"

// ExportBundle is the JSON shape of a full data export and of an import file.
type ExportBundle struct {
	Assets     []Asset        `json:"assets"`
	Categories []Category     `json:"categories"`
	Borrows    []BorrowRecord `json:"borrows"`
	Logs       []LogEntry     `json:"logs"`
	ExportDate time.Time      `json:"exportDate"`
}
