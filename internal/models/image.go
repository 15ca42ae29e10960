package models

import "time"

type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "approved"
	ModerationFlagged  ModerationStatus = "flagged"
	ModerationHidden   ModerationStatus = "hidden"
)

type Image struct {
	ID               string
	OwnerUsername    string
	StorageURL       string
	ObjectKey        string
	ModerationStatus ModerationStatus
	IsVisible        bool
	MedianScore      *float64
	RatingCount      int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Rankable reports whether the image participates in leaderboard reads.
// Hidden or flagged images are excluded from both the percentile universe
// and the Newest shelf.
func (i Image) Rankable() bool {
	return i.IsVisible && i.ModerationStatus == ModerationApproved
}
