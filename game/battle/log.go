package battle

import "time"

// LogEntry is one line of the append-only battle log.
type LogEntry struct {
	Time   time.Time `json:"time"`
	Turn   int       `json:"turn"`
	Text   string    `json:"text"`
	Source string    `json:"source,omitempty"`
	Target string    `json:"target,omitempty"`
}
