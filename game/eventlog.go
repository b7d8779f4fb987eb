package game

import (
	"fmt"
	"time"
)

const (
	logCapacity = 500
	logExposed  = 200
)

// EventLog keeps the most recent human-readable game events.
type EventLog struct {
	entries []string
}

func (l *EventLog) Add(at time.Time, msg string) {
	l.entries = append(l.entries, fmt.Sprintf("[%s] %s", at.Format("15:04:05"), msg))
	if over := len(l.entries) - logCapacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
}

// Tail returns a copy of the last n entries.
func (l *EventLog) Tail(n int) []string {
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]string(nil), l.entries[len(l.entries)-n:]...)
}

func (l *EventLog) Len() int { return len(l.entries) }
