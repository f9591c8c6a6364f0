// internal/platform/ui/noop_presenter.go
package ui

import (
	"finscout/internal/core/domain"
)

// NoopPresenter renders nothing. Used with --no-progress and in tests;
// the log file still carries everything.
type NoopPresenter struct{}

// NewNoopPresenter creates a silent presenter.
func NewNoopPresenter() *NoopPresenter {
	return &NoopPresenter{}
}

func (n *NoopPresenter) Start(RunInfo)                                        {}
func (n *NoopPresenter) CompanyDone(string, *domain.CandidateResult, bool)    {}
func (n *NoopPresenter) Info(string)                                          {}
func (n *NoopPresenter) Warning(string)                                       {}
func (n *NoopPresenter) Error(string)                                         {}
func (n *NoopPresenter) Finish(RunStats)                                      {}
func (n *NoopPresenter) Close() error                                         { return nil }
