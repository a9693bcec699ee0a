package rules

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultDatetimeFormat = "YYYY-MM-DD"

var formatMatchers = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{2}:\d{2}`), "YYYY-MM-DDTHH:MM:SS+TZ"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), "YYYY-MM-DDTHH:MM:SS"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`), "YYYY-MM-DD HH:MM:SS"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}`), "DD/MM/YYYY HH:MM:SS"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`), "YYYY-MM-DD"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}`), "YYYY/MM/DD"},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`), "MM/DD/YYYY"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`), "DD-MM-YYYY"},
	{regexp.MustCompile(`^\d{10,13}$`), "Unix Timestamp"},
}

// SuggestDatetimeFormat detects the dominant format of datetime samples by
// majority vote. Timestamped formats are tested before date-only ones so a
// trailing time component is not swallowed by a prefix match.
func SuggestDatetimeFormat(samples []string) string {
	clean := cleanSamples(samples)
	if len(clean) == 0 {
		return defaultDatetimeFormat
	}

	votes := map[string]int{}
	order := map[string]int{}
	for _, s := range clean {
		f := detectFormat(s)
		if _, seen := votes[f]; !seen {
			order[f] = len(order)
		}
		votes[f]++
	}

	best, bestVotes := defaultDatetimeFormat, 0
	for f, n := range votes {
		if n > bestVotes || (n == bestVotes && order[f] < order[best]) {
			best, bestVotes = f, n
		}
	}
	return best
}

func detectFormat(sample string) string {
	for _, m := range formatMatchers {
		if !m.re.MatchString(sample) {
			continue
		}
		// US slash dates with a first part over 12 are day-first.
		if m.format == "MM/DD/YYYY" {
			if month, err := strconv.Atoi(strings.SplitN(sample, "/", 2)[0]); err == nil && month > 12 {
				return "DD/MM/YYYY"
			}
		}
		return m.format
	}
	return defaultDatetimeFormat
}
