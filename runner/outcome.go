package runner

import (
	"strings"

	"github.com/pushci/receiver/api"
)

// Scores at or below this are rejected regardless of test results.
const minimumLintScore = 5

// Outcome is everything a run learned about a commit.
type Outcome struct {
	LintOutput string
	TestOutput string
	LintScore  float64
	Tests      *TestSummary
}

// Log renders the outcome as stored in the run log.
func (o Outcome) Log() []byte {
	return []byte(o.LintOutput + "\n" + o.TestOutput)
}

// Verdict maps the outcome to a final commit status. The lint score is
// checked first; the test checks look for pytest's section headers.
func (o Outcome) Verdict() (api.State, string) {
	switch {
	case o.LintScore <= minimumLintScore:
		return api.StateError, "The commit was scored too low by the linter"
	case strings.Contains(o.TestOutput, "ERRORS"):
		return api.StateError, "The commit testing resulted in some errors"
	case strings.Contains(o.TestOutput, "FAILURES"):
		return api.StateFailure, "The commit testing failed"
	default:
		return api.StateSuccess, "The commit testing succeeded"
	}
}
