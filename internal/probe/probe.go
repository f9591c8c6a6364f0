// Package probe answers one question: is this URL worth reporting.
package probe

import (
	"context"
	"net/http"

	"finscout/internal/platform/httpclient"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/urlx"
)

// WebProbe checks candidate URLs with a bounded GET. It never returns
// an error: anything short of a non-403/404 response counts as dead.
type WebProbe struct {
	session *httpclient.Session
	logger  logx.Logger
}

// New creates a probe on top of an HTTP session.
func New(session *httpclient.Session, logger logx.Logger) *WebProbe {
	return &WebProbe{
		session: session,
		logger:  logger.With("component", "probe"),
	}
}

// IsDead reports whether the URL is unusable. 403 and 404 are dead,
// any transport failure is dead, everything else is alive: a 500 today
// may still be the right document tomorrow, but a 404 never is.
func (p *WebProbe) IsDead(ctx context.Context, rawURL string) bool {
	normalized, err := urlx.Normalize(rawURL)
	if err != nil {
		p.logger.Debug("unparsable candidate URL", "url", rawURL)
		return true
	}

	resp, err := p.session.Get(ctx, normalized)
	if err != nil {
		p.logger.Debug("probe transport failure", "url", normalized, "error", err.Error())
		return true
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusNotFound:
		p.logger.Debug("candidate URL is dead", "url", normalized, "status", resp.StatusCode)
		return true
	default:
		return false
	}
}
