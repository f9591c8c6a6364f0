// Package validate renders a judgment over a found candidate using a
// second model call. The verdict is advisory: it feeds prompt
// optimization, it does not gate acceptance (the live probe does).
package validate

import (
	"context"

	"finscout/internal/core/domain"
	"finscout/internal/model"
	"finscout/internal/parse"
	"finscout/internal/platform/logx"
	"finscout/internal/prompt"
)

// Validator judges candidates. One model call per candidate with no
// retry at all, quota hits included.
type Validator struct {
	invoker *model.Invoker
	builder *prompt.Builder
	logger  logx.Logger
}

// New creates a validator.
func New(invoker *model.Invoker, builder *prompt.Builder, logger logx.Logger) *Validator {
	return &Validator{
		invoker: invoker,
		builder: builder,
		logger:  logger.With("component", "validator"),
	}
}

// Judge evaluates a candidate. It never fails: no response, no JSON
// and missing fields all collapse into the default verdict with the
// reason in Feedback.
func (v *Validator) Judge(ctx context.Context, req domain.DiscoveryRequest, c *domain.CandidateResult) domain.ValidationVerdict {
	if c == nil || c.URL == "" {
		return domain.DefaultVerdict("no candidate to validate")
	}

	response, err := v.invoker.CallOnce(ctx, v.builder.Validation(req, c))
	if err != nil {
		v.logger.Warn("validation call failed", "company", req.Company, "error", err.Error())
		return domain.DefaultVerdict("validator model produced no response")
	}

	verdict := parse.DecodeVerdict(response)
	v.logger.Debug("candidate judged",
		"company", req.Company,
		"url", c.URL,
		"valid", verdict.IsValid,
		"score", verdict.Score,
	)
	return verdict
}
