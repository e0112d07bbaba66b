package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxVideoIDs bounds a single multi-video progress lookup.
const MaxVideoIDs = 100

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// Progress is the playback position of one video for one account.
type Progress struct {
	VideoID   string
	Time      float64
	UpdatedAt time.Time
}

// ValidateVideoID reports whether id looks like a YouTube video id.
func ValidateVideoID(id string) error {
	if !videoIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, id)
	}
	return nil
}

// ParseVideoIDs splits a comma separated id list, dropping duplicates.
func ParseVideoIDs(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	if len(parts) > MaxVideoIDs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVideoIDs, len(parts), MaxVideoIDs)
	}

	seen := make(map[string]struct{}, len(parts))
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if err := ValidateVideoID(p); err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		ids = append(ids, p)
	}
	return ids, nil
}

// ReconcileReport summarises one reconciliation run.
type ReconcileReport struct {
	Roster      int
	Stored      int
	Removed     []Identity
	RowsDeleted int64
	DryRun      bool
}
