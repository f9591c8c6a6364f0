// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"finscout/internal/core/domain"
)

const timeRound = 100 * time.Millisecond

// PTermPresenter renders progress with pterm: a header, a progress bar
// over the company list and a closing summary table.
type PTermPresenter struct {
	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

// NewPTermPresenter creates the terminal presenter.
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{}
}

// Start prints the run header and opens the progress bar.
func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("finscout - Financial Source Discovery")

	pterm.Println()
	pterm.DefaultSection.Println("Run Configuration")
	pterm.Printf("  Category:  %s\n", pterm.Cyan(info.Category))
	pterm.Printf("  Companies: %d\n", info.Companies)
	pterm.Printf("  Workers:   %d\n", info.Workers)
	pterm.Printf("  Models:    %s\n", strings.Join(info.Models, ", "))
	pterm.Println()

	bar, err := pterm.DefaultProgressbar.
		WithTotal(info.Companies).
		WithTitle("discovering").
		Start()
	if err == nil {
		p.bar = bar
	}
}

// CompanyDone advances the progress bar with the company's outcome.
func (p *PTermPresenter) CompanyDone(company string, result *domain.CandidateResult, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case skipped:
		pterm.Debug.Printfln("%s: already resolved", company)
	case result != nil && result.Status == domain.StatusFound:
		pterm.Success.Printfln("%s: %s", company, result.URL)
	default:
		pterm.Warning.Printfln("%s: no source found", company)
	}

	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *PTermPresenter) Info(msg string)    { pterm.Info.Println(msg) }
func (p *PTermPresenter) Warning(msg string) { pterm.Warning.Println(msg) }
func (p *PTermPresenter) Error(msg string)   { pterm.Error.Println(msg) }

// Finish stops the bar and prints the summary table.
func (p *PTermPresenter) Finish(stats RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}

	pterm.Println()
	pterm.DefaultSection.Println("Summary")

	data := pterm.TableData{
		{"Found", fmt.Sprintf("%d", stats.Found)},
		{"Not found", fmt.Sprintf("%d", stats.NotFound)},
		{"Skipped", fmt.Sprintf("%d", stats.Skipped)},
		{"Duration", stats.Duration.Round(timeRound).String()},
	}
	pterm.DefaultTable.WithData(data).Render()
}

// Close releases presenter resources.
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}
	return nil
}
