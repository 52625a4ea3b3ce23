package extraction

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const monthAlt = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

// Date-only expressions resolve to this hour unless they carry their own.
const defaultDeadlineHour = 12

// dateSpec is a calendar date with an optional time of day.
type dateSpec struct {
	year  int
	month time.Month
	day   int
	clock *timeOfDay
}

type timeOfDay struct {
	hour   int
	minute int
}

func (d dateSpec) in(loc *time.Location) time.Time {
	clock := timeOfDay{hour: defaultDeadlineHour}
	if d.clock != nil {
		clock = *d.clock
	}
	// hour 24 (midnight) normalizes to 00:00 of the next day.
	return time.Date(d.year, d.month, d.day, clock.hour, clock.minute, 0, 0, loc)
}

type datePattern struct {
	name    string
	re      *regexp.Regexp
	resolve func(groups []string, now time.Time) (dateSpec, bool)
}

type timePattern struct {
	name    string
	re      *regexp.Regexp
	resolve func(groups []string) (timeOfDay, bool)
}

var datePatterns = []datePattern{
	{
		name: "iso",
		re:   regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		resolve: func(g []string, _ time.Time) (dateSpec, bool) {
			return calendarDate(atoi(g[1]), atoi(g[2]), atoi(g[3]))
		},
	},
	{
		name: "slash",
		re:   regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			return inferYear(atoi(g[1]), atoi(g[2]), g[3], now)
		},
	},
	{
		name: "month_day",
		re:   regexp.MustCompile(`(?i)\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			return inferYear(monthNumber(g[1]), atoi(g[2]), g[3], now)
		},
	},
	{
		name: "day_month",
		re:   regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\b(?:,?\s+(\d{4})\b)?`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			return inferYear(monthNumber(g[2]), atoi(g[1]), g[3], now)
		},
	},
	{
		name: "weekday",
		re:   regexp.MustCompile(`(?i)\b(?:(next|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			target, ok := weekdays[strings.ToLower(g[2])]
			if !ok {
				return dateSpec{}, false
			}
			offset := (int(target) - int(now.Weekday()) + 7) % 7
			if strings.EqualFold(g[1], "next") {
				offset += 7
			}
			return specFor(now.AddDate(0, 0, offset), nil), true
		},
	},
	{
		name: "relative_day",
		re:   regexp.MustCompile(`(?i)\b(today|tonight|tomorrow)\b`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			switch strings.ToLower(g[1]) {
			case "tomorrow":
				return sameClock(now.AddDate(0, 0, 1)), true
			case "tonight":
				return specFor(now, &timeOfDay{hour: 20}), true
			default:
				return sameClock(now), true
			}
		},
	},
	{
		name: "in_duration",
		re:   regexp.MustCompile(`(?i)\bin\s+(\d{1,3}|an?|one|two|three|four|five|six|seven|eight|nine|ten)\s+(days?|weeks?)\b`),
		resolve: func(g []string, now time.Time) (dateSpec, bool) {
			n, ok := countWord(g[1])
			if !ok {
				return dateSpec{}, false
			}
			if strings.HasPrefix(strings.ToLower(g[2]), "week") {
				n *= 7
			}
			return sameClock(now.AddDate(0, 0, n)), true
		},
	},
}

var timePatterns = []timePattern{
	{
		name: "meridiem",
		re:   regexp.MustCompile(`(?i)\b(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b\.?`),
		resolve: func(g []string) (timeOfDay, bool) {
			hour, minute := atoi(g[1]), 0
			if g[2] != "" {
				minute = atoi(g[2])
			}
			if hour < 1 || hour > 12 || minute > 59 {
				return timeOfDay{}, false
			}
			hour %= 12
			if strings.EqualFold(g[3], "p") {
				hour += 12
			}
			return timeOfDay{hour: hour, minute: minute}, true
		},
	},
	{
		name: "clock",
		re:   regexp.MustCompile(`(?i)\bat\s+(\d{1,2}):(\d{2})\b`),
		resolve: func(g []string) (timeOfDay, bool) {
			hour, minute := atoi(g[1]), atoi(g[2])
			if hour > 23 || minute > 59 {
				return timeOfDay{}, false
			}
			return timeOfDay{hour: hour, minute: minute}, true
		},
	},
	{
		name: "named",
		re:   regexp.MustCompile(`(?i)\b(?:at\s+)?(noon|midnight)\b`),
		resolve: func(g []string) (timeOfDay, bool) {
			if strings.EqualFold(g[1], "midnight") {
				return timeOfDay{hour: 24}, true
			}
			return timeOfDay{hour: 12}, true
		},
	},
}

// indicatorPattern is the fallback "due/by/before <when>" form.
var indicatorPattern = regexp.MustCompile(
	`(?i)\b(?:due|deadline|by|before)(?:\s*:|\s+is)?\s+(?:on\s+|the\s+)?` +
		`(today|tomorrow|next\s+week|(\d{1,2})[-.](\d{1,2})(?:[-.](\d{4}|\d{2}))?)\b`)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

var countWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// match is one regexp hit with its submatches.
type match struct {
	start, end int
	groups     []string
}

func toMatch(text string, loc []int) match {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return match{start: loc[0], end: loc[1], groups: groups}
}

func findFirst(re *regexp.Regexp, text string) (match, bool) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return match{}, false
	}
	return toMatch(text, loc), true
}

func findAll(re *regexp.Regexp, text string) []match {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toMatch(text, loc))
	}
	return out
}

// better reports whether a should be preferred over b: earlier, then longer.
func better(a, b match) bool {
	if a.start != b.start {
		return a.start < b.start
	}
	return a.end-a.start > b.end-b.start
}

// candidate is a hit tagged with the index of the pattern that produced it.
type candidate struct {
	match
	pattern int
}

// candidates collects the hits of n patterns in reading order.
func candidates(text string, n int, re func(i int) *regexp.Regexp) []candidate {
	var out []candidate
	for i := 0; i < n; i++ {
		for _, m := range findAll(re(i), text) {
			out = append(out, candidate{match: m, pattern: i})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i].match, out[j].match) })
	return out
}

// detectDeadline runs the expression pass and falls back to the
// indicator-phrase pass.
func detectDeadline(text string, now time.Time) Deadline {
	if dl, ok := detectExpression(text, now); ok {
		return dl
	}
	if dl, ok := detectIndicator(text, now); ok {
		return dl
	}
	return Deadline{}
}

// detectExpression combines the first resolvable date expression with the
// first resolvable time expression that does not overlap it, in reading
// order. A time without a date means today.
func detectExpression(text string, now time.Time) (Deadline, bool) {
	var (
		spec             dateSpec
		dateHit, timeHit match
		hasDate, hasTime bool
	)
	for _, c := range candidates(text, len(datePatterns), func(i int) *regexp.Regexp { return datePatterns[i].re }) {
		if s, ok := datePatterns[c.pattern].resolve(c.groups, now); ok {
			spec, dateHit, hasDate = s, c.match, true
			break
		}
	}
	var clock timeOfDay
	for _, c := range candidates(text, len(timePatterns), func(i int) *regexp.Regexp { return timePatterns[i].re }) {
		if hasDate && overlaps(dateHit, c.match) {
			continue
		}
		if tod, ok := timePatterns[c.pattern].resolve(c.groups); ok {
			clock, timeHit, hasTime = tod, c.match, true
			break
		}
	}
	if !hasDate && !hasTime {
		return Deadline{}, false
	}

	if !hasDate {
		spec = specFor(now, nil)
	}
	if hasTime {
		spec.clock = &clock
	}
	return foundDeadline(spec.in(now.Location()), phrase(text, dateHit, hasDate, timeHit, hasTime)), true
}

// detectIndicator resolves "due today", "by tomorrow", "before next week"
// and numeric dates such as "by 3-14".
func detectIndicator(text string, now time.Time) (Deadline, bool) {
	m, ok := findFirst(indicatorPattern, text)
	if !ok {
		return Deadline{}, false
	}

	var date time.Time
	switch when := strings.Join(strings.Fields(strings.ToLower(m.groups[1])), " "); when {
	case "today":
		date = now
	case "tomorrow":
		date = now.AddDate(0, 0, 1)
	case "next week":
		date = now.AddDate(0, 0, 7)
	default:
		spec, ok := inferYear(atoi(m.groups[2]), atoi(m.groups[3]), m.groups[4], now)
		if !ok {
			return Deadline{}, false
		}
		date = spec.in(now.Location())
	}

	return foundDeadline(date, text[m.start:m.end]), true
}

// phrase returns the matched text. Adjacent date and time hits are
// reported as one span; otherwise they are joined in reading order.
func phrase(text string, d match, hasDate bool, t match, hasTime bool) string {
	switch {
	case hasDate && !hasTime:
		return text[d.start:d.end]
	case hasTime && !hasDate:
		return text[t.start:t.end]
	}
	first, second := d, t
	if t.start < d.start {
		first, second = t, d
	}
	if strings.Trim(text[first.end:second.start], " \t,") == "" {
		return text[first.start:second.end]
	}
	return text[first.start:first.end] + " " + text[second.start:second.end]
}

func overlaps(a, b match) bool {
	return a.start < b.end && b.start < a.end
}

func specFor(t time.Time, clock *timeOfDay) dateSpec {
	return dateSpec{year: t.Year(), month: t.Month(), day: t.Day(), clock: clock}
}

// sameClock is t's date at t's hour and minute.
func sameClock(t time.Time) dateSpec {
	return specFor(t, &timeOfDay{hour: t.Hour(), minute: t.Minute()})
}

// calendarDate rejects dates that time.Date would normalize, such as
// February 30.
func calendarDate(year, month, day int) (dateSpec, bool) {
	if month < 1 || month > 12 || day < 1 {
		return dateSpec{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return dateSpec{}, false
	}
	return dateSpec{year: year, month: time.Month(month), day: day}, true
}

// inferYear fills in a missing year, rolling dates already past this year
// into the next one. Two-digit years are 20xx.
func inferYear(month, day int, year string, now time.Time) (dateSpec, bool) {
	if year != "" {
		y := atoi(year)
		if len(year) == 2 {
			y += 2000
		}
		return calendarDate(y, month, day)
	}

	spec, ok := calendarDate(now.Year(), month, day)
	if !ok {
		return dateSpec{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if time.Date(spec.year, spec.month, spec.day, 0, 0, 0, 0, time.UTC).Before(today) {
		// Feb 29 may not exist next year.
		return calendarDate(now.Year()+1, month, day)
	}
	return spec, true
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0
	}
	switch name[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

func countWord(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := countWords[strings.ToLower(s)]
	return n, ok
}

// atoi parses digits already validated by a pattern; empty yields 0.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
