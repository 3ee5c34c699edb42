// Package trustpositif probes the TrustPositif registry
// (https://trustpositif.komdigi.go.id/) for a domain's block status.
//
// The client is a pure adapter: every failure mode (transport error,
// timeout, HTTP error status, ambiguous body) is folded into a CheckResult
// with StatusError, never returned as an error.
package trustpositif

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

const (
	// DefaultURL is the public TrustPositif endpoint.
	DefaultURL = "https://trustpositif.komdigi.go.id/"

	defaultTimeout    = 15 * time.Second
	defaultRatePerSec = 10

	// maxBodyBytes caps how much of the registry response we read.
	maxBodyBytes = 1 << 20
)

type Config struct {
	URL        string
	Timeout    time.Duration // per-probe timeout
	RatePerSec int           // outbound request cap, shared across batches
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:     log,
	}
}

// Probe performs one registry round-trip for an already-normalized domain
// name. It never retries; retry policy belongs to the layers above.
func (c *Client) Probe(ctx context.Context, domain string) model.CheckResult {
	res := model.CheckResult{
		Domain:    domain,
		Status:    model.StatusError,
		CheckedAt: time.Now(),
	}
	if strings.TrimSpace(domain) == "" {
		res.Detail = "empty domain name"
		return res
	}

	if err := c.limiter.Wait(ctx); err != nil {
		res.Detail = fmt.Sprintf("rate limit wait: %v", err)
		return res
	}

	rctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	form := url.Values{"domain": {domain}}
	req, err := http.NewRequestWithContext(rctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		res.Detail = fmt.Sprintf("build request: %v", err)
		return res
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		res.Detail = fmt.Sprintf("registry request: %v", err)
		c.log.Debug("probe transport failure", logx.String("domain", domain), logx.Err(err))
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		res.Detail = fmt.Sprintf("read response: %v", err)
		return res
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Detail = fmt.Sprintf("registry returned HTTP %d", resp.StatusCode)
		return res
	}

	res.CheckedAt = time.Now()
	res.Status = Classify(string(body))
	if res.Status == model.StatusError {
		res.Detail = "ambiguous registry response: " + snippet(string(body), 200)
	}
	return res
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
