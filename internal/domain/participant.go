package domain

import "time"

// Participant is a named session that stays in the room while its heartbeat
// is recent.
type Participant struct {
	Name          string
	LastHeartbeat time.Time
	JoinedAt      time.Time
}

// Expired reports whether the participant has been idle for at least timeout
// at instant now.
func (p Participant) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastHeartbeat) >= timeout
}
