package runner

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	lintScorePattern   = regexp.MustCompile(`Your code has been rated at ([-+]?\d*\.?\d+)/10`)
	summaryLinePattern = regexp.MustCompile(`^=+ (.*) =+$`)
	passedPattern      = regexp.MustCompile(`(\d+) passed`)
	failedPattern      = regexp.MustCompile(`(\d+) failed`)
	errorsPattern      = regexp.MustCompile(`\berrors\b`)
)

// TestSummary is what could be scraped from a test runner's final summary
// line. Nil counts were absent from the line.
type TestSummary struct {
	Passed *int
	Failed *int
	Errors bool
}

func lines(output string) []string {
	return strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n")
}

// ParseLintScore returns the score of the last "Your code has been rated at
// X/10" line in output, or 0 when there is none.
func ParseLintScore(output string) float64 {
	all := lines(output)
	for i := len(all) - 1; i >= 0; i-- {
		m := lintScorePattern.FindStringSubmatch(all[i])
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return score
	}
	return 0
}

func parseCount(pattern *regexp.Regexp, line string) *int {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ParseTestSummary scans output from the end for a line wrapped in runs of
// "=" and extracts its counts. It returns nil when no such line exists.
func ParseTestSummary(output string) *TestSummary {
	all := lines(output)
	for i := len(all) - 1; i >= 0; i-- {
		m := summaryLinePattern.FindStringSubmatch(strings.TrimSpace(all[i]))
		if m == nil {
			continue
		}
		body := m[1]
		return &TestSummary{
			Passed: parseCount(passedPattern, body),
			Failed: parseCount(failedPattern, body),
			Errors: errorsPattern.MatchString(body),
		}
	}
	return nil
}
