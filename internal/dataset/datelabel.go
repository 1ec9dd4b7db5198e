package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateSpan bounds a date label as an inclusive ISO date range.
type DateSpan struct {
	Start string
	End   string
}

// czechMonths is ordered so that "červenec" [July] matches before its
// substring "červen" [June].
var czechMonths = []struct {
	name string
	num  int
}{
	{"leden", 1},
	{"únor", 2},
	{"březen", 3},
	{"duben", 4},
	{"květen", 5},
	{"červenec", 7},
	{"červen", 6},
	{"srpen", 8},
	{"září", 9},
	{"říjen", 10},
	{"listopad", 11},
	{"prosinec", 12},
}

var (
	yearOnlyRe   = regexp.MustCompile(`^\d{4}$`)
	yearRangeRe  = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	beforeYearRe = regexp.MustCompile(`^před (\d{4})`)
	afterYearRe  = regexp.MustCompile(`^po (\d{4})`)
	exactDateRe  = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
	uncertainRe  = regexp.MustCompile(`^(\d{4}) \(\?\)$`)
	circaYearRe  = regexp.MustCompile(`^kol\.\s?(\d{4})`)
	anyYearRe    = regexp.MustCompile(`\d{4}`)
)

// ParseDateLabel turns the archive's free-text date labels into a date span.
// The label grammar is what the Prague city archive actually uses: a plain
// year, a year range, a Czech month with year, seasonal "léto", "před"/"po"
// bounds, an exact D.M.YYYY date, "YYYY (?)" and "kol.YYYY" [circa].
func ParseDateLabel(label string) (DateSpan, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return DateSpan{}, false
	}

	if yearOnlyRe.MatchString(label) {
		return yearSpan(label), true
	}

	if m := yearRangeRe.FindStringSubmatch(label); m != nil {
		return DateSpan{Start: m[1] + "-01-01", End: m[2] + "-12-31"}, true
	}

	lower := strings.ToLower(label)
	for _, month := range czechMonths {
		if strings.Contains(lower, month.name) {
			year := anyYearRe.FindString(label)
			if year == "" {
				return DateSpan{}, false
			}
			y, _ := strconv.Atoi(year)
			return DateSpan{
				Start: fmt.Sprintf("%s-%02d-01", year, month.num),
				End:   fmt.Sprintf("%s-%02d-%02d", year, month.num, lastDayOfMonth(y, month.num)),
			}, true
		}
	}

	if strings.Contains(lower, "léto") {
		year := anyYearRe.FindString(label)
		if year == "" {
			return DateSpan{}, false
		}
		return DateSpan{Start: year + "-06-21", End: year + "-09-20"}, true
	}

	if m := beforeYearRe.FindStringSubmatch(label); m != nil {
		year, _ := strconv.Atoi(m[1])
		return DateSpan{Start: "1800-01-01", End: fmt.Sprintf("%d-12-31", year-1)}, true
	}

	if m := afterYearRe.FindStringSubmatch(label); m != nil {
		year, _ := strconv.Atoi(m[1])
		return DateSpan{Start: fmt.Sprintf("%d-01-01", year+1), End: "2000-12-31"}, true
	}

	if m := exactDateRe.FindStringSubmatch(label); m != nil {
		parsed, err := time.Parse("2.1.2006", label)
		if err != nil {
			return DateSpan{}, false
		}
		iso := parsed.Format("2006-01-02")
		return DateSpan{Start: iso, End: iso}, true
	}

	if m := uncertainRe.FindStringSubmatch(label); m != nil {
		return yearSpan(m[1]), true
	}

	if m := circaYearRe.FindStringSubmatch(label); m != nil {
		return yearSpan(m[1]), true
	}

	return DateSpan{}, false
}

func yearSpan(year string) DateSpan {
	return DateSpan{Start: year + "-01-01", End: year + "-12-31"}
}

func lastDayOfMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}
		return 28
	default:
		return 30
	}
}
