package ids

import "github.com/segmentio/ksuid"

// New returns a K-sortable unique identifier. Creation order survives a
// lexicographic sort, which keeps paginated listings stable.
func New() string {
	return ksuid.New().String()
}
