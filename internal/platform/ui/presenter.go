// internal/platform/ui/presenter.go
package ui

import (
	"time"

	"finscout/internal/core/domain"
)

// Presenter renders batch-run progress on the terminal.
type Presenter interface {
	// Start opens the presentation with run information.
	Start(info RunInfo)

	// CompanyDone reports one finished company.
	CompanyDone(company string, result *domain.CandidateResult, skipped bool)

	// Info prints an informational message.
	Info(msg string)

	// Warning prints a warning.
	Warning(msg string)

	// Error prints an error.
	Error(msg string)

	// Finish closes the presentation with run statistics.
	Finish(stats RunStats)

	// Close releases presenter resources.
	Close() error
}

// RunInfo describes the batch run being presented.
type RunInfo struct {
	Category  string
	Companies int
	Workers   int
	Models    []string
}

// RunStats are the final counters of a run.
type RunStats struct {
	Duration time.Duration
	Found    int
	NotFound int
	Skipped  int
}
