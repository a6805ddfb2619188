// Package schedule resolves free-text time phrases against an injected
// reference time. The reference clock is always a parameter, never read from
// the wall, so resolution is deterministic and testable.
package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the three parse outcomes. Parsing never errors; an
// unparseable phrase is NotFound and a conflicting one is Ambiguous.
type Kind int

const (
	NotFound Kind = iota
	Ambiguous
	Resolved
)

// Result is the outcome of parsing one phrase.
type Result struct {
	Kind    Kind
	Start   time.Time
	HasDate bool // a calendar day was recognized
	HasTime bool // an explicit clock time was recognized
	Reason  string
}

var (
	isoDateRe  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	relDayRe   = regexp.MustCompile(`\b(today|tomorrow)\b`)
	weekdayRe  = regexp.MustCompile(`\b(?:(next|this)\s+)?(monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat|sunday|sun)\b`)
	inSpanRe   = regexp.MustCompile(`\bin\s+(a|an|one|two|three|four|five|six|seven|eight|nine|ten|\d+)\s+(day|week)s?\b`)
	nextWeekRe = regexp.MustCompile(`\bnext\s+week\b`)

	clockRe  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	hourRe   = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	atHourRe = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
)

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Parse resolves text relative to ref. All recognized date mentions must
// agree on a single calendar day, otherwise the result is Ambiguous.
func Parse(text string, ref time.Time) Result {
	lower := strings.ToLower(text)

	dates := collectDates(lower, ref)
	clock, hasTime, timeConflict := collectTime(lower)

	if timeConflict {
		return Result{Kind: Ambiguous, Reason: "more than one distinct time mentioned"}
	}
	if len(dates) > 1 {
		return Result{Kind: Ambiguous, Reason: "more than one distinct date mentioned"}
	}
	if len(dates) == 0 && !hasTime {
		return Result{Kind: NotFound}
	}

	if len(dates) == 1 {
		day := dates[0]
		start := day
		if hasTime {
			start = time.Date(day.Year(), day.Month(), day.Day(), clock.hour, clock.minute, 0, 0, ref.Location())
		}
		return Result{Kind: Resolved, Start: start, HasDate: true, HasTime: hasTime}
	}

	// Bare time, no date: today if still ahead of the reference, else tomorrow.
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), clock.hour, clock.minute, 0, 0, ref.Location())
	if !start.After(ref) {
		start = start.AddDate(0, 0, 1)
	}
	return Result{Kind: Resolved, Start: start, HasDate: false, HasTime: true}
}

// collectDates returns the distinct calendar days mentioned in the text,
// truncated to midnight in ref's location.
func collectDates(lower string, ref time.Time) []time.Time {
	seen := make(map[string]time.Time)

	add := func(t time.Time) {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ref.Location())
		seen[day.Format("2006-01-02")] = day
	}

	for _, m := range isoDateRe.FindAllStringSubmatch(lower, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		add(time.Date(year, time.Month(month), day, 0, 0, 0, 0, ref.Location()))
	}
	for _, m := range relDayRe.FindAllStringSubmatch(lower, -1) {
		if m[1] == "today" {
			add(ref)
		} else {
			add(ref.AddDate(0, 0, 1))
		}
	}
	for _, m := range weekdayRe.FindAllStringSubmatch(lower, -1) {
		target := weekdays[m[2]]
		delta := (int(target) - int(ref.Weekday()) + 7) % 7
		// A bare or "next" weekday is always a future day; only "this"
		// may land on the reference day itself.
		if delta == 0 && m[1] != "this" {
			delta = 7
		}
		add(ref.AddDate(0, 0, delta))
	}
	for _, m := range inSpanRe.FindAllStringSubmatch(lower, -1) {
		n, ok := numberWords[m[1]]
		if !ok {
			n, _ = strconv.Atoi(m[1])
		}
		if n <= 0 {
			continue
		}
		if m[2] == "week" {
			n *= 7
		}
		add(ref.AddDate(0, 0, n))
	}
	if nextWeekRe.MatchString(lower) && !weekdayRe.MatchString(lower) {
		add(ref.AddDate(0, 0, 7))
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	return dates
}

type clockTime struct {
	hour   int
	minute int
}

// collectTime returns the clock time mentioned in the text. The three time
// shapes overlap ("2:30 pm" also matches the at-hour rule through "at 2"),
// so matches are deduplicated by span before checking for conflicts.
func collectTime(lower string) (clockTime, bool, bool) {
	type span struct{ start, end int }
	var hits []clockTime
	var spans []span

	overlap := func(s span) bool {
		for _, o := range spans {
			if s.start < o.end && o.start < s.end {
				return true
			}
		}
		return false
	}

	for _, idx := range clockRe.FindAllStringSubmatchIndex(lower, -1) {
		hour, _ := strconv.Atoi(lower[idx[2]:idx[3]])
		minute, _ := strconv.Atoi(lower[idx[4]:idx[5]])
		meridiem := ""
		if idx[6] >= 0 {
			meridiem = lower[idx[6]:idx[7]]
		}
		if h, ok := normalizeHour(hour, meridiem); ok && minute < 60 {
			hits = append(hits, clockTime{h, minute})
			spans = append(spans, span{idx[0], idx[1]})
		}
	}
	for _, idx := range hourRe.FindAllStringSubmatchIndex(lower, -1) {
		s := span{idx[0], idx[1]}
		if overlap(s) {
			continue
		}
		hour, _ := strconv.Atoi(lower[idx[2]:idx[3]])
		if h, ok := normalizeHour(hour, lower[idx[4]:idx[5]]); ok {
			hits = append(hits, clockTime{h, 0})
			spans = append(spans, s)
		}
	}
	for _, idx := range atHourRe.FindAllStringSubmatchIndex(lower, -1) {
		s := span{idx[0], idx[1]}
		if overlap(s) {
			continue
		}
		hour, _ := strconv.Atoi(lower[idx[2]:idx[3]])
		if h, ok := normalizeHour(hour, ""); ok {
			hits = append(hits, clockTime{h, 0})
			spans = append(spans, s)
		}
	}

	if len(hits) == 0 {
		return clockTime{}, false, false
	}
	first := hits[0]
	for _, h := range hits[1:] {
		if h != first {
			return clockTime{}, false, true
		}
	}
	return first, true, false
}

func normalizeHour(hour int, meridiem string) (int, bool) {
	switch meridiem {
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, false
		}
	}
	return hour, true
}
