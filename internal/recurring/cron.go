// Package recurring wraps a 6-field cron expression ("sec min hour dom mon
// dow") as the external collaborator described in the coordinator's design
// notes: given an expression and an instant, return the next firing time
// strictly after that instant.
package recurring

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts the 6-field form (seconds included), matching spec §6.
var parser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Normalize accepts a raw schedule string as submitted by a client and
// returns the canonical 6-field cron expression plus whether it parsed.
//
// A 5-field expression (no seconds) is promoted by prepending "0 " per
// spec §6. Any other parse failure means the submission is not recurring —
// it becomes a one-shot job, not an error.
func Normalize(raw string) (expr string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if _, err := parser.Parse(raw); err == nil {
		return raw, true
	}

	if len(strings.Fields(raw)) == 5 {
		promoted := "0 " + raw
		if _, err := parser.Parse(promoted); err == nil {
			return promoted, true
		}
	}

	return "", false
}

// Next returns the next firing time of expr strictly after after. expr must
// already be a valid 6-field expression (typically the output of Normalize).
func Next(expr string, after time.Time) (time.Time, error) {
	schedule, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule.Next(after), nil
}
