// Package codesynth implements the fallback strategy: ask the model to
// write a complete retrieval routine, persist it for audit, run it in
// the sandbox, and probe whatever URL it scraped.
package codesynth

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/core/ports"
	"finscout/internal/model"
	"finscout/internal/parse"
	"finscout/internal/platform/errors"
	"finscout/internal/platform/httpclient"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/registry"
	"finscout/internal/platform/sandbox"
	"finscout/internal/probe"
	"finscout/internal/prompt"
)

const Name = "codesynth"

func init() {
	if err := registry.Global().Register(Name, New, ports.StrategyMetadata{
		Name:        Name,
		Description: "model-synthesized scraping routines in a sandbox",
	}); err != nil {
		panic(err)
	}
}

// Strategy synthesizes and executes retrieval routines.
type Strategy struct {
	invoker      *model.Invoker
	builder      *prompt.Builder
	executor     *sandbox.Executor
	prober       ports.Prober
	artifactsDir string
	maxRetries   int
	execTimeout  time.Duration
	attempts     int
	logger       logx.Logger
}

// New is the registry factory.
func New(cfg ports.StrategyConfig, deps ports.StrategyDeps, logger logx.Logger) (ports.Strategy, error) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		return nil, err
	}

	pool, err := model.NewPool(deps.Models)
	if err != nil {
		return nil, err
	}

	session := httpclient.New(httpclient.Config{
		Timeout:      deps.ProbeTimeout,
		RequestDelay: deps.RequestDelay,
	}, logger)

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}
	execTimeout := cfg.Timeout
	if execTimeout <= 0 {
		execTimeout = 120 * time.Second
	}

	return &Strategy{
		invoker:      model.NewInvoker(deps.Provider, pool, deps.ModelMaxRetries, deps.QuotaDefaultDelay, logger),
		builder:      builder,
		executor:     sandbox.NewExecutor(logger),
		prober:       probe.New(session, logger),
		artifactsDir: deps.ArtifactsDir,
		maxRetries:   maxRetries,
		execTimeout:  execTimeout,
		logger:       logger.With("strategy", Name),
	}, nil
}

func (s *Strategy) Name() string { return Name }

// Discover runs up to maxRetries synthesis attempts. Every execution
// failure is swallowed: a routine that panics, times out or returns the
// wrong shape simply costs one attempt.
func (s *Strategy) Discover(ctx context.Context, req domain.DiscoveryRequest) (*domain.CandidateResult, error) {
	s.attempts = 0

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		s.attempts = attempt + 1
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "synthesis canceled")
		}

		response, err := s.invoker.Call(ctx, s.builder.Synthesis(req))
		if err != nil {
			// A silent model costs the attempt like a broken routine
			// does; the next call picks a model afresh.
			s.logger.Warn("no response from model",
				"company", req.Company,
				"attempt", attempt+1,
				"error", err.Error(),
			)
			continue
		}

		code := parse.StripFences(response)
		artifact, err := s.persist(req, code)
		if err != nil {
			// Audit trail only; execution proceeds from memory.
			s.logger.Warn("failed to persist routine", "company", req.Company, "error", err.Error())
		} else {
			s.logger.Debug("routine persisted", "path", artifact.Path)
		}

		result := s.execute(ctx, code)
		if result == nil {
			s.logger.Info("routine produced nothing",
				"company", req.Company,
				"attempt", attempt+1,
			)
			continue
		}

		candidate := candidateFrom(result)
		if candidate == nil || s.prober.IsDead(ctx, candidate.URL) {
			s.logger.Info("scraped URL unusable",
				"company", req.Company,
				"attempt", attempt+1,
			)
			continue
		}

		s.logger.Info("scraped live source",
			"company", req.Company,
			"url", candidate.URL,
			"attempt", attempt+1,
		)
		return candidate, nil
	}

	return nil, errors.Wrapf(errors.ErrNotFound, "%s: %d synthesis attempts exhausted", req.Company, s.maxRetries)
}

// execute runs the routine under the watchdog; every failure mode
// collapses to nil.
func (s *Strategy) execute(ctx context.Context, code string) map[string]string {
	runCtx, cancel := context.WithTimeout(ctx, s.execTimeout)
	defer cancel()

	result, err := s.executor.Run(runCtx, code)
	if err != nil {
		s.logger.Debug("routine execution failed", "error", err.Error())
		return nil
	}
	return result
}

// persist writes the routine under <artifacts>/<company>_<category>.go.
func (s *Strategy) persist(req domain.DiscoveryRequest, code string) (*domain.GeneratedCodeArtifact, error) {
	if err := os.MkdirAll(s.artifactsDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create artifacts dir")
	}

	name := sanitizeName(req.Company) + "_" + sanitizeName(req.Category) + ".go"
	path := filepath.Join(s.artifactsDir, name)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", path)
	}
	return &domain.GeneratedCodeArtifact{Source: code, Path: path}, nil
}

// candidateFrom maps the routine's result contract onto a candidate.
// The URL is mandatory as everywhere else.
func candidateFrom(result map[string]string) *domain.CandidateResult {
	url := strings.TrimSpace(result["url"])
	if url == "" {
		return nil
	}
	return &domain.CandidateResult{
		URL:               url,
		Year:              strings.TrimSpace(result["year"]),
		Confidence:        domain.ParseConfidence(result["confidence"]),
		SourceDescription: strings.TrimSpace(result["source_description"]),
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeName makes a company or category safe as a file name.
func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	return unsafeNameChars.ReplaceAllString(s, "")
}

// Attempts reports how many attempts the last Discover consumed.
func (s *Strategy) Attempts() int { return s.attempts }

func (s *Strategy) Close() error { return nil }
