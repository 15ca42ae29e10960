package models

import "time"

// Rating is a single accepted submission. Rows are immutable once inserted;
// only the administrative purge and the duplicate sweep ever delete them.
type Rating struct {
	ID        string
	ImageID   string
	Rating    float64
	SessionID string
	IPAddress *string
	CreatedAt time.Time
}
