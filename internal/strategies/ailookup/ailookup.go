// Package ailookup implements the primary discovery strategy: ask the
// model for a source, decode the candidate, probe the URL, and feed
// dead URLs back into an improvement prompt for the next attempt.
package ailookup

import (
	"context"

	"finscout/internal/core/domain"
	"finscout/internal/core/ports"
	"finscout/internal/model"
	"finscout/internal/parse"
	"finscout/internal/platform/errors"
	"finscout/internal/platform/httpclient"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/registry"
	"finscout/internal/probe"
	"finscout/internal/prompt"
)

const Name = "ailookup"

func init() {
	if err := registry.Global().Register(Name, New, ports.StrategyMetadata{
		Name:        Name,
		Description: "model lookup with dead-URL refinement",
	}); err != nil {
		panic(err)
	}
}

// Strategy runs the lookup loop. One instance per worker; it owns its
// HTTP session and therefore its User-Agent identity.
type Strategy struct {
	invoker    *model.Invoker
	builder    *prompt.Builder
	prober     ports.Prober
	templates  ports.TemplateSource
	maxRetries int
	attempts   int
	logger     logx.Logger
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

	return &Strategy{
		invoker:    model.NewInvoker(deps.Provider, pool, deps.ModelMaxRetries, deps.QuotaDefaultDelay, logger),
		builder:    builder,
		prober:     probe.New(session, logger),
		templates:  deps.Templates,
		maxRetries: maxRetries,
		logger:     logger.With("strategy", Name),
	}, nil
}

func (s *Strategy) Name() string { return Name }

// Discover runs up to maxRetries lookup attempts. The first uses the
// base prompt; later ones ask for a replacement of the last dead URL.
// A live URL is the sole acceptance gate.
func (s *Strategy) Discover(ctx context.Context, req domain.DiscoveryRequest) (*domain.CandidateResult, error) {
	var deadURL string
	s.attempts = 0

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		s.attempts = attempt + 1
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "lookup canceled")
		}

		var p string
		switch {
		case deadURL != "":
			p = s.builder.ImproveDeadURL(req, deadURL)
		case s.templates != nil:
			if tpl, ok := s.templates.Get(req.Company); ok {
				// A previously accepted rewrite outranks the base prompt.
				p = s.builder.FromTemplate(tpl, req, "")
			}
		}
		if p == "" {
			p = s.builder.Discovery(req)
		}

		response, err := s.invoker.Call(ctx, p)
		if err != nil {
			// No response at all (quota exhaustion included) costs the
			// attempt; the next call picks a model afresh.
			s.logger.Warn("no response from model",
				"company", req.Company,
				"attempt", attempt+1,
				"error", err.Error(),
			)
			continue
		}

		candidate, err := parse.DecodeCandidate(response)
		if err != nil {
			s.logger.Warn("undecodable candidate",
				"company", req.Company,
				"attempt", attempt+1,
				"error", err.Error(),
			)
			continue
		}

		if s.prober.IsDead(ctx, candidate.URL) {
			s.logger.Info("candidate URL dead, refining",
				"company", req.Company,
				"url", candidate.URL,
				"attempt", attempt+1,
			)
			deadURL = candidate.URL
			continue
		}

		s.logger.Info("live source found",
			"company", req.Company,
			"url", candidate.URL,
			"attempt", attempt+1,
		)
		return candidate, nil
	}

	return nil, errors.Wrapf(errors.ErrNotFound, "%s: %d attempts exhausted", req.Company, s.maxRetries)
}

// Attempts reports how many attempts the last Discover consumed.
func (s *Strategy) Attempts() int { return s.attempts }

func (s *Strategy) Close() error { return nil }
