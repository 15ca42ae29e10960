package ranking

import (
	"sort"
	"time"
)

type Tier string

const (
	TierElite        Tier = "elite"
	TierBeautiful    Tier = "beautiful"
	TierAverage      Tier = "average"
	TierBelowAverage Tier = "below_average"
	TierNeedsWork    Tier = "needs_work"
	TierNewest       Tier = "newest"
)

// Entry is one visible, approved image as seen by the classifier.
type Entry struct {
	ImageID     string
	MedianScore float64
	RatingCount int
	CreatedAt   time.Time
}

// Ranked is an entry with its computed position in the percentile universe.
// Rank is 1-based.
type Ranked struct {
	Entry
	Rank       int
	Percentile float64
	Tier       Tier
}

// Rank sorts the entries that meet the ratings threshold by median score
// descending (created_at descending breaks ties, newer above older) and
// assigns each a percentile tier. Entries below the threshold are excluded
// from the universe entirely; callers shelve those under TierNewest. The
// result is deterministic for a fixed input set.
func Rank(entries []Entry, threshold int) []Ranked {
	eligible := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.RatingCount >= threshold {
			eligible = append(eligible, e)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].MedianScore != eligible[j].MedianScore {
			return eligible[i].MedianScore > eligible[j].MedianScore
		}
		return eligible[i].CreatedAt.After(eligible[j].CreatedAt)
	})

	total := len(eligible)
	ranked := make([]Ranked, total)
	for i, e := range eligible {
		percentile := float64(i) / float64(total) * 100
		ranked[i] = Ranked{
			Entry:      e,
			Rank:       i + 1,
			Percentile: percentile,
			Tier:       TierForPercentile(percentile),
		}
	}
	return ranked
}

// Classify returns the tier for every input entry, including the below
// threshold ones as TierNewest.
func Classify(entries []Entry, threshold int) map[string]Tier {
	tiers := make(map[string]Tier, len(entries))
	for _, e := range entries {
		if e.RatingCount < threshold {
			tiers[e.ImageID] = TierNewest
		}
	}
	for _, r := range Rank(entries, threshold) {
		tiers[r.ImageID] = r.Tier
	}
	return tiers
}

// TierForPercentile buckets a percentile into the fixed boundaries, lower
// edge inclusive: <10 elite, 10-30 beautiful, 30-70 average, 70-90 below
// average, >=90 needs work.
func TierForPercentile(p float64) Tier {
	switch {
	case p < 10:
		return TierElite
	case p < 30:
		return TierBeautiful
	case p < 70:
		return TierAverage
	case p < 90:
		return TierBelowAverage
	default:
		return TierNeedsWork
	}
}

// Valid reports whether t is one of the six known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierElite, TierBeautiful, TierAverage, TierBelowAverage, TierNeedsWork, TierNewest:
		return true
	}
	return false
}
