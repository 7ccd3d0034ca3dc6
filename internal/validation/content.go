package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength = 200
	maxTags        = 10
	maxTagLength   = 30
	maxDuration    = 7 * 24 * 60
)

// ValidateTitle checks a post, group or contest title.
func ValidateTitle(field, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%s must be at most %d characters", field, maxTitleLength)
	}
	return nil
}

// NormalizeTags trims, drops empties and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return nil, fmt.Errorf("tags must be at most %d characters", maxTagLength)
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, fmt.Errorf("at most %d tags are allowed", maxTags)
	}
	return out, nil
}

// ValidateContestWindow checks the start time and a duration in minutes.
func ValidateContestWindow(start time.Time, durationMinutes int) error {
	if start.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("duration must be a positive number of minutes")
	}
	if durationMinutes > maxDuration {
		return fmt.Errorf("duration must be at most %d minutes", maxDuration)
	}
	return nil
}
