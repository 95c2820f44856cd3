package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/efisim/wavecheck/internal/output"
)

// SuiteResult contains the results of a RunAll call.
type SuiteResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Results   []ScenarioResult
	Success   bool
	Skipped   int // scenarios not started after a failure
}

// ScenarioResult contains the result of one scenario.
type ScenarioResult struct {
	Name     string
	RunID    string
	Success  bool
	Error    error
	Duration time.Duration
}

// Passed returns the number of passing scenarios.
func (s *SuiteResult) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// PrintSummary prints a summary of a suite run.
func PrintSummary(result *SuiteResult, out *output.Writer) {
	out.SummaryHeader("Run Summary")

	out.SummarySectionLabel("Scenarios:")
	for _, r := range result.Results {
		var errMsg string
		if r.Error != nil {
			errMsg = firstLine(r.Error.Error())
		}
		out.SummaryAction(r.Name, r.Success, FormatDuration(r.Duration), errMsg)
	}
	out.Println("")

	var passed, failed []string
	for _, r := range result.Results {
		if r.Success {
			passed = append(passed, r.Name)
		} else {
			failed = append(failed, r.Name)
		}
	}

	if len(passed) > 0 {
		out.SummaryPassed("Passed", strings.Join(passed, ", "))
	}
	if len(failed) > 0 {
		out.SummaryFailed("Failed", strings.Join(failed, ", "))
	}
	if result.Skipped > 0 {
		out.SummaryItem("Not run", fmt.Sprintf("%d", result.Skipped))
	}

	out.SummaryItem("Duration", FormatDuration(result.Duration))

	if result.Success {
		out.FinalSuccess("%d of %d scenarios passed.", result.Passed(), len(result.Results))
	} else {
		out.FinalFailure("%d of %d scenarios failed.", len(failed), len(result.Results)+result.Skipped)
	}
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
