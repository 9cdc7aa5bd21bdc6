package modelref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// URLCheckError is one download problem found by URLChecker.
type URLCheckError struct {
	Model string `json:"model" yaml:"model"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`

	// Status is the HTTP status of the probe, or 0 when no response was received.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	Message string `json:"message" yaml:"message"`

	// Err is the transport error, if any.
	Err error `json:"-" yaml:"-"`
}

func (e URLCheckError) Error() string {
	return e.Message
}

func (e URLCheckError) Unwrap() error {
	return e.Err
}

// CheckResult is the outcome of URLChecker.Check.
type CheckResult struct {
	OK     bool            `json:"ok" yaml:"ok"`
	Errors []URLCheckError `json:"errors" yaml:"errors"`

	// Warnings lists gated URLs that were accepted as a soft pass.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	ModelsChecked int `json:"models_checked" yaml:"models_checked"`
	URLsChecked   int `json:"urls_checked" yaml:"urls_checked"`
}

// Err returns nil when every URL passed, otherwise an error wrapping ErrURLCheck.
func (r CheckResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: %d problem(s)", ErrURLCheck, len(r.Errors))
}

// Messages returns the error strings in report order.
func (r CheckResult) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// URLChecker confirms that every model's download URL resolves.
// Probes run one at a time, spaced by the configured interval, and are never
// retried. A URLChecker is safe for concurrent use; concurrent Check calls
// share the interval.
type URLChecker struct {
	prober  Prober
	logger  Logger
	limiter *rate.Limiter
	markers []string
	gated   []GatedHost
}

// NewURLChecker creates a URLChecker.
func NewURLChecker(opts ...CheckerOption) *URLChecker {
	cfg := newCheckerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	prober := cfg.prober
	if prober == nil {
		prober = &httpProber{client: cfg.httpClient}
	}

	limit := rate.Inf
	if cfg.interval > 0 {
		limit = rate.Every(cfg.interval)
	}

	return &URLChecker{
		prober:  prober,
		logger:  cfg.logger,
		limiter: rate.NewLimiter(limit, 1),
		markers: cfg.markers,
		gated:   cfg.gated,
	}
}

// Check probes the download URL of every model in ref, in name order, and
// returns all problems found.
//
// Models without a download group are skipped. Otherwise the group must hold
// exactly one entry (several are allowed when the name contains a multi-file
// marker); the first entry must be a download record with an http(s)
// file_url; the URL must answer a HEAD request with a 2xx status. Gated
// responses pass with a warning. If ctx is cancelled the remaining models are
// reported as not checked.
func (c *URLChecker) Check(ctx context.Context, ref Reference) CheckResult {
	res := CheckResult{Errors: []URLCheckError{}}

	for _, name := range ref.Names() {
		rec := ref[name]
		res.ModelsChecked++

		entries, ok := rec.Config.Group(GroupDownload)
		res.URLsChecked += len(entries)
		if !ok {
			if c.logger != nil {
				c.logger.Debug("model has no download group, skipping", "model", name)
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, URLCheckError{
				Model:   name,
				Message: fmt.Sprintf("Model %s was not checked: %v", name, err),
				Err:     err,
			})
			continue
		}

		if cerr, warning := c.checkModel(ctx, name, entries); cerr != nil {
			res.Errors = append(res.Errors, *cerr)
		} else if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}

	if c.logger != nil {
		c.logger.Info("checked reference", "models", res.ModelsChecked, "download_urls", res.URLsChecked, "errors", len(res.Errors))
	}

	res.OK = len(res.Errors) == 0
	return res
}

// checkModel applies the download policy to one model. It returns either an
// error, a soft-pass warning, or neither.
func (c *URLChecker) checkModel(ctx context.Context, name string, entries []ConfigEntry) (*URLCheckError, string) {
	fail := func(u string, status int, err error, format string, args ...any) (*URLCheckError, string) {
		return &URLCheckError{Model: name, URL: u, Status: status, Err: err, Message: fmt.Sprintf(format, args...)}, ""
	}

	if len(entries) == 0 {
		return fail("", 0, nil, "Model %s has no download URLs in the reference.", name)
	}

	if len(entries) > 1 && !c.allowsMultipleFiles(name) {
		return fail("", 0, nil, "Model %s has multiple download URLs in the reference. Only one is expected.", name)
	}

	entry := entries[0]
	if entry.Kind != EntryDownload {
		return fail("", 0, nil, "Model %s has an invalid download entry in the reference: %s. Expected a download record.", name, entry)
	}

	fileURL := entry.Download.FileURL
	if fileURL == "" {
		return fail("", 0, nil, "Model %s has an empty file_url in the reference.", name)
	}
	if !strings.HasPrefix(fileURL, "http") {
		return fail(fileURL, 0, nil, "Model %s has an invalid file_url in the reference: %s. It should start with 'http'.", name, fileURL)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(fileURL, 0, err, "Model %s was not checked: %v", name, err)
	}

	status, err := c.prober.Probe(ctx, fileURL)
	if err != nil {
		return fail(fileURL, 0, err, "Model %s has an invalid URL: %s. Error: %v", name, fileURL, err)
	}

	if c.logger != nil {
		c.logger.Debug("probed download url", "model", name, "url", fileURL, "status", status)
	}

	if c.isGated(fileURL, status) {
		warning := fmt.Sprintf("Model %s requires logging in to access the download URL: %s (status %d).", name, fileURL, status)
		if c.logger != nil {
			c.logger.Warn("download url is behind an access gate", "model", name, "url", fileURL, "status", status)
		}
		return nil, warning
	}

	if status < 200 || status > 299 {
		return fail(fileURL, status, nil, "Model %s has an invalid URL: %s. Status code: %d", name, fileURL, status)
	}

	return nil, ""
}

func (c *URLChecker) allowsMultipleFiles(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range c.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (c *URLChecker) isGated(rawURL string, status int) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, g := range c.gated {
		if g.matches(u.Host, status) {
			return true
		}
	}
	return false
}

// httpProber probes with HEAD requests, following redirects.
type httpProber struct {
	client HTTPClient
}

func (p *httpProber) Probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	resp.Body.Close()

	return resp.StatusCode, nil
}
