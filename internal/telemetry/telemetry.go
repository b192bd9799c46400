// Package telemetry wraps klog (the teacher repository's structured
// logging library, used throughout internal/searchers and cmd/hive) with
// a small run-level stats record cmd/moplan logs once per completed run
// id, in the teacher's own style of a plain struct plus a String method
// fed to klog rather than a dedicated metrics backend.
package telemetry

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"k8s.io/klog/v2"

	"github.com/arrowlake/mozt/internal/config"
)

// summaryStyle highlights the one line per run id printed to the
// terminal, the same way the teacher's internal/ui/cli prints a match's
// final outcome: a padded, colored lipgloss banner rather than a plain
// log line, reserved for the one human-facing summary of a run.
var summaryStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("6")).
	Foreground(lipgloss.Color("0")).
	Padding(0, 1)

// RunStats summarises one completed run id: the search phase and the
// Monte-Carlo evaluation phase that followed it.
type RunStats struct {
	EnvID      string
	AlgID      config.AlgID
	Repeat     int
	NumRepeats int

	SearchWallClock time.Duration
	EvalWallClock   time.Duration

	MeanScalarReturn float64
	SinkFraction     float64
}

func (s RunStats) String() string {
	return fmt.Sprintf(
		"run[%s/%s repeat=%d/%d] search=%s eval=%s mean_return=%.4f sink_frac=%.2f",
		s.EnvID, s.AlgID, s.Repeat+1, s.NumRepeats,
		s.SearchWallClock.Round(time.Millisecond), s.EvalWallClock.Round(time.Millisecond),
		s.MeanScalarReturn, s.SinkFraction,
	)
}

// LogRunStart records the start of one repeat of a run id, at verbosity
// level 1 -- the teacher's convention for per-match progress lines
// (internal/searchers/mcts logs at V(1)/V(2) for per-trial/per-node
// detail; a full run start/finish pair sits one level above that).
func LogRunStart(runID *config.RunID, repeat int) {
	klog.V(1).Infof("run[%s/%s repeat=%d/%d] starting: threads=%d max_trial_length=%d search_runtime=%s",
		runID.EnvID, runID.AlgID, repeat+1, runID.NumRepeats, runID.NumThreads, runID.MaxTrialLength, runID.SearchRuntime)
}

// LogRunComplete records the outcome of one repeat: a klog line at the
// same level LogRunStart used, plus a styled one-line banner on stdout
// for the human watching the terminal.
func LogRunComplete(stats RunStats) {
	klog.V(1).Infof("%s", stats)
	fmt.Println(summaryStyle.Render(stats.String()))
}

// Fatalf reports a fatal, unrecoverable setup or invariant error and
// exits non-zero, matching spec.md §7's "non-zero exit with a diagnostic
// identifying the first failing call" and the teacher's own
// klog.Fatalf/klog.Exitf convention in cmd/hive/main.go.
func Fatalf(format string, args ...any) {
	klog.Fatalf(format, args...)
}
