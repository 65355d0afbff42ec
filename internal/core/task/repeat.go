package task

import (
	"encoding/json"
	"fmt"
)

// RepeatType tags the closed set of repeat rule shapes.
type RepeatType string

const (
	RepeatNone    RepeatType = "none"
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// RepeatRule is the recurrence pattern governing a task's next due date
// after completion. It persists as an internally tagged JSON object, e.g.
// {"type":"daily","workday_only":true}. The variant set is closed; loading
// an unknown type is a format error.
type RepeatRule struct {
	Type RepeatType
	// WorkdayOnly applies to daily rules: skip Saturday/Sunday.
	WorkdayOnly bool
	// Days applies to weekly rules: weekday numbers, Monday=1..Sunday=7.
	Days []int
	// Day applies to monthly and yearly rules; clamped to the length of
	// the resulting month.
	Day int
	// Month applies to yearly rules; clamped to [1,12].
	Month int
}

// NoRepeat returns the non-repeating rule.
func NoRepeat() RepeatRule {
	return RepeatRule{Type: RepeatNone}
}

// Clone returns a deep copy of the rule.
func (r RepeatRule) Clone() RepeatRule {
	out := r
	if r.Days != nil {
		out.Days = append([]int(nil), r.Days...)
	}
	return out
}

type repeatRuleJSON struct {
	Type        RepeatType `json:"type"`
	WorkdayOnly *bool      `json:"workday_only,omitempty"`
	Days        []int      `json:"days,omitempty"`
	Day         *int       `json:"day,omitempty"`
	Month       *int       `json:"month,omitempty"`
}

// MarshalJSON emits only the fields relevant to the tagged variant.
func (r RepeatRule) MarshalJSON() ([]byte, error) {
	out := repeatRuleJSON{Type: r.Type}
	switch r.Type {
	case RepeatNone:
	case RepeatDaily:
		workday := r.WorkdayOnly
		out.WorkdayOnly = &workday
	case RepeatWeekly:
		out.Days = r.Days
		if out.Days == nil {
			out.Days = []int{}
		}
	case RepeatMonthly:
		day := r.Day
		out.Day = &day
	case RepeatYearly:
		month, day := r.Month, r.Day
		out.Month = &month
		out.Day = &day
	default:
		return nil, fmt.Errorf("unknown repeat rule type %q", r.Type)
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the tagged layout and rejects unknown variants.
func (r *RepeatRule) UnmarshalJSON(data []byte) error {
	var raw repeatRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rule := RepeatRule{Type: raw.Type}
	switch raw.Type {
	case RepeatNone:
	case RepeatDaily:
		if raw.WorkdayOnly != nil {
			rule.WorkdayOnly = *raw.WorkdayOnly
		}
	case RepeatWeekly:
		rule.Days = raw.Days
	case RepeatMonthly:
		if raw.Day != nil {
			rule.Day = *raw.Day
		}
	case RepeatYearly:
		if raw.Month != nil {
			rule.Month = *raw.Month
		}
		if raw.Day != nil {
			rule.Day = *raw.Day
		}
	default:
		return fmt.Errorf("unknown repeat rule type %q", raw.Type)
	}

	*r = rule
	return nil
}
