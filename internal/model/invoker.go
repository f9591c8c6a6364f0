// Package model wraps a ModelProvider with the call policy the
// pipeline relies on: one model picked per top-level call and bounded
// retries for quota rejections only.
package model

import (
	"context"
	"math/rand"
	"time"

	"finscout/internal/core/ports"
	"finscout/internal/platform/errors"
	"finscout/internal/platform/logx"
)

// Pool is a set of interchangeable model names.
type Pool struct {
	names []string
}

// NewPool creates a pool. At least one name is required.
func NewPool(names []string) (*Pool, error) {
	if len(names) == 0 {
		return nil, errors.New("model pool is empty")
	}
	return &Pool{names: append([]string{}, names...)}, nil
}

// Pick selects one model name uniformly at random. Load spreading, not
// a security concern, so math/rand is fine.
func (p *Pool) Pick() string {
	return p.names[rand.Intn(len(p.names))]
}

// Names returns a copy of the pool.
func (p *Pool) Names() []string {
	return append([]string{}, p.names...)
}

// Invoker calls the provider with quota-aware retries. The model is
// picked once per Call, not per retry: a quota hit on one model retries
// the same model after the backoff.
type Invoker struct {
	provider     ports.ModelProvider
	pool         *Pool
	maxRetries   int
	defaultDelay time.Duration
	logger       logx.Logger

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewInvoker creates an invoker.
func NewInvoker(provider ports.ModelProvider, pool *Pool, maxRetries int, defaultDelay time.Duration, logger logx.Logger) *Invoker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if defaultDelay <= 0 {
		defaultDelay = 60 * time.Second
	}
	return &Invoker{
		provider:     provider,
		pool:         pool,
		maxRetries:   maxRetries,
		defaultDelay: defaultDelay,
		logger:       logger.With("component", "model-invoker"),
		sleep:        time.Sleep,
	}
}

// SetSleep replaces the backoff sleep. For tests.
func (inv *Invoker) SetSleep(fn func(time.Duration)) {
	inv.sleep = fn
}

// Call sends the prompt, retrying only quota rejections. Each quota hit
// sleeps the provider-suggested delay (or the default) before the next
// attempt. Any other provider error aborts immediately. When every
// attempt hits quota, Call reports ErrNoResponse.
func (inv *Invoker) Call(ctx context.Context, prompt string) (string, error) {
	selected := inv.pool.Pick()
	inv.logger.Info("selected model", "model", selected)

	for attempt := 0; attempt < inv.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(err, "model call canceled")
		}

		response, err := inv.provider.Generate(ctx, selected, prompt)
		if err == nil {
			return response, nil
		}

		if !errors.IsQuotaExhausted(err) {
			inv.logger.Err(err, "model", selected)
			return "", errors.Wrap(errors.ErrNoResponse, err.Error())
		}

		delay, ok := errors.RetryAfterOf(err)
		if !ok || delay <= 0 {
			delay = inv.defaultDelay
		}
		inv.logger.Warn("quota exceeded, backing off",
			"model", selected,
			"delay_s", int(delay.Seconds()),
			"attempt", attempt+1,
			"max", inv.maxRetries,
		)
		inv.sleep(delay)
	}

	inv.logger.Warn("no response after retries", "model", selected, "retries", inv.maxRetries)
	return "", errors.Wrapf(errors.ErrNoResponse, "after %d attempts on %s", inv.maxRetries, selected)
}

// CallOnce sends the prompt exactly once on a freshly picked model,
// with no backoff of any kind. Judgment calls use this: a verdict is
// advisory, so even a quota hit just degrades it to the default.
func (inv *Invoker) CallOnce(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "model call canceled")
	}

	selected := inv.pool.Pick()
	response, err := inv.provider.Generate(ctx, selected, prompt)
	if err != nil {
		inv.logger.Err(err, "model", selected)
		return "", errors.Wrap(errors.ErrNoResponse, err.Error())
	}
	return response, nil
}
