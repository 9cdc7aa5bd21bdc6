package modelref

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultProbeInterval is the minimum spacing between two URL probes.
	DefaultProbeInterval = 100 * time.Millisecond

	// DefaultRequestTimeout is the default timeout for HTTP requests.
	DefaultRequestTimeout = 30 * time.Second
)

// DefaultMultiFileMarkers are the name fragments of models allowed to
// declare more than one download entry.
var DefaultMultiFileMarkers = []string{"cascade"}

// GatedHost describes a host whose access-control responses are treated as a
// soft pass: the file exists but needs a login to download.
type GatedHost struct {
	// HostContains is matched against the lowercased URL host.
	HostContains string `mapstructure:"host" yaml:"host"`

	// Statuses are the HTTP status codes that signal the gate.
	Statuses []int `mapstructure:"statuses" yaml:"statuses"`
}

// DefaultGatedHosts returns the gated host rules used when none are configured.
func DefaultGatedHosts() []GatedHost {
	return []GatedHost{
		{HostContains: "civitai", Statuses: []int{http.StatusForbidden, 524}},
	}
}

// matches reports whether a response with status from host hits the gate.
func (g GatedHost) matches(host string, status int) bool {
	if g.HostContains == "" || !strings.Contains(strings.ToLower(host), strings.ToLower(g.HostContains)) {
		return false
	}
	for _, s := range g.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// CheckerOption configures a URLChecker.
type CheckerOption func(*checkerConfig)

// checkerConfig holds configuration for URLChecker construction.
type checkerConfig struct {
	// httpClient backs the default prober.
	httpClient HTTPClient

	// prober replaces the HTTP prober when set.
	prober Prober

	// logger receives diagnostic log messages.
	logger Logger

	// interval is the minimum spacing between probes.
	interval time.Duration

	// markers are lowercased multi-file name fragments.
	markers []string

	// gated are the soft-pass rules.
	gated []GatedHost
}

// newCheckerConfig returns a checkerConfig with default values.
func newCheckerConfig() *checkerConfig {
	return &checkerConfig{
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
		interval:   DefaultProbeInterval,
		markers:    DefaultMultiFileMarkers,
		gated:      DefaultGatedHosts(),
	}
}

// WithHTTPClient sets the HTTP client used for HEAD probes.
// If not set, a client with DefaultRequestTimeout is used.
func WithHTTPClient(client HTTPClient) CheckerOption {
	return func(c *checkerConfig) {
		c.httpClient = client
	}
}

// WithProber replaces network probing entirely. Useful in tests.
func WithProber(p Prober) CheckerOption {
	return func(c *checkerConfig) {
		c.prober = p
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) CheckerOption {
	return func(c *checkerConfig) {
		c.logger = logger
	}
}

// WithProbeInterval sets the minimum spacing between probes.
// Zero or a negative value disables the delay.
func WithProbeInterval(d time.Duration) CheckerOption {
	return func(c *checkerConfig) {
		c.interval = d
	}
}

// WithMultiFileMarkers sets the name fragments that allow several download
// entries. Matching is case-insensitive.
func WithMultiFileMarkers(markers ...string) CheckerOption {
	return func(c *checkerConfig) {
		c.markers = make([]string, 0, len(markers))
		for _, m := range markers {
			if m = strings.TrimSpace(m); m != "" {
				c.markers = append(c.markers, strings.ToLower(m))
			}
		}
	}
}

// WithGatedHosts replaces the soft-pass rules.
func WithGatedHosts(hosts ...GatedHost) CheckerOption {
	return func(c *checkerConfig) {
		c.gated = hosts
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Prober checks whether a URL resolves.
type Prober interface {
	// Probe returns the final HTTP status of url. A non-nil error means the
	// request did not complete.
	Probe(ctx context.Context, url string) (int, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, url string) (int, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, url string) (int, error) {
	return f(ctx, url)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
