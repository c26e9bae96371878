// Package alert defines the persisted standing-search entity and its store.
package alert

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Frequency controls how often an alert becomes eligible for re-evaluation.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Method selects the notification channel.
type Method string

const (
	MethodEmail    Method = "email"
	MethodTelegram Method = "telegram"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var telegramHandleRegexp = regexp.MustCompile(`^@[a-zA-Z0-9_]{4,}$`)

// Criteria is the search side of an alert: keywords for matching plus
// optional pool-narrowing filters.
type Criteria struct {
	Keywords         []string `json:"keywords"`
	Location         string   `json:"location,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Remote           bool     `json:"remote,omitempty"`
	ExcludeCompanies []string `json:"exclude_companies,omitempty"`
	RedFlags         []string `json:"red_flags,omitempty"`
}

// Alert is a user's standing search plus notification configuration. The
// scheduler owns MatchCount, LastSentAt and NextRunAt; everything else is
// owned by the user and never written from the scheduler path.
type Alert struct {
	ID        string
	OwnerID   string
	Name      string
	Criteria  Criteria
	Frequency Frequency
	Method    Method
	Target    string
	Active    bool

	LastSentAt *time.Time
	NextRunAt  time.Time
	MatchCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the alert at the creation/update edge. The scheduler
// relies on this and does not re-validate targets on every tick.
func (a *Alert) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("alert name is required")
	}

	if strings.TrimSpace(a.OwnerID) == "" {
		return fmt.Errorf("alert owner is required")
	}

	if len(a.Criteria.CleanKeywords()) == 0 {
		return fmt.Errorf("at least one search keyword is required")
	}

	switch a.Frequency {
	case FrequencyDaily, FrequencyWeekly:
	default:
		return fmt.Errorf("unsupported frequency: %q", a.Frequency)
	}

	return ValidateTarget(a.Method, a.Target)
}

// ValidateTarget checks that the notification target satisfies the format
// required by the method.
func ValidateTarget(method Method, target string) error {
	target = strings.TrimSpace(target)

	switch method {
	case MethodEmail:
		if !emailRegexp.MatchString(target) {
			return fmt.Errorf("%q is not a valid email address", target)
		}
	case MethodTelegram:
		if !telegramHandleRegexp.MatchString(target) {
			return fmt.Errorf("%q is not a valid telegram handle (@name, at least 5 characters)", target)
		}
	default:
		return fmt.Errorf("unsupported notification method: %q", method)
	}

	return nil
}

// CleanKeywords returns the keywords trimmed with empties removed.
func (c Criteria) CleanKeywords() []string {
	out := make([]string, 0, len(c.Keywords))
	for _, kw := range c.Keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Interval is the time between two runs of an alert.
func (f Frequency) Interval() time.Duration {
	if f == FrequencyWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Due reports whether the alert is eligible to run at the given time.
func (a *Alert) Due(now time.Time) bool {
	return !a.NextRunAt.After(now)
}

// NextAfter computes the next eligibility time following a run.
func (a *Alert) NextAfter(now time.Time) time.Time {
	return now.Add(a.Frequency.Interval())
}
