package modelref

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewCheckerConfigDefaults(t *testing.T) {
	cfg := newCheckerConfig()

	if cfg.interval != DefaultProbeInterval {
		t.Errorf("interval = %v, want %v", cfg.interval, DefaultProbeInterval)
	}
	if diff := cmp.Diff(DefaultMultiFileMarkers, cfg.markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultGatedHosts(), cfg.gated); diff != "" {
		t.Errorf("gated hosts mismatch (-want +got):\n%s", diff)
	}

	client, ok := cfg.httpClient.(*http.Client)
	if !ok {
		t.Fatalf("httpClient = %T, want *http.Client", cfg.httpClient)
	}
	if client.Timeout != DefaultRequestTimeout {
		t.Errorf("client timeout = %v, want %v", client.Timeout, DefaultRequestTimeout)
	}
	if cfg.prober != nil || cfg.logger != nil {
		t.Error("prober and logger should be unset by default")
	}
}

func TestWithProbeInterval(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
	}{
		{"positive", 2 * time.Second},
		{"zero disables delay", 0},
		{"negative disables delay", -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newCheckerConfig()
			WithProbeInterval(tt.input)(cfg)
			if cfg.interval != tt.input {
				t.Errorf("interval = %v, want %v", cfg.interval, tt.input)
			}
		})
	}
}

func TestWithMultiFileMarkers(t *testing.T) {
	cfg := newCheckerConfig()
	WithMultiFileMarkers(" Cascade ", "", "FLUX")(cfg)

	if diff := cmp.Diff([]string{"cascade", "flux"}, cfg.markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}

	WithMultiFileMarkers()(cfg)
	if len(cfg.markers) != 0 {
		t.Errorf("markers = %v, want none", cfg.markers)
	}
}

func TestWithHTTPClientAndProber(t *testing.T) {
	cfg := newCheckerConfig()
	client := &http.Client{Timeout: time.Second}
	WithHTTPClient(client)(cfg)
	if cfg.httpClient != client {
		t.Error("WithHTTPClient did not set the client")
	}

	var called bool
	WithProber(ProberFunc(func(ctx context.Context, url string) (int, error) {
		called = true
		return http.StatusOK, nil
	}))(cfg)
	if cfg.prober == nil {
		t.Fatal("WithProber did not set the prober")
	}
	cfg.prober.Probe(context.Background(), "https://example.com")
	if !called {
		t.Error("ProberFunc did not call the function")
	}
}

func TestGatedHostMatches(t *testing.T) {
	tests := []struct {
		name   string
		gate   GatedHost
		host   string
		status int
		want   bool
	}{
		{"default host 403", DefaultGatedHosts()[0], "civitai.com", 403, true},
		{"default host 524", DefaultGatedHosts()[0], "civitai.com", 524, true},
		{"default host 404", DefaultGatedHosts()[0], "civitai.com", 404, false},
		{"subdomain", DefaultGatedHosts()[0], "www.civitai.com", 403, true},
		{"case insensitive", GatedHost{HostContains: "CivitAI", Statuses: []int{403}}, "CIVITAI.COM", 403, true},
		{"other host", DefaultGatedHosts()[0], "huggingface.co", 403, false},
		{"empty host rule", GatedHost{Statuses: []int{403}}, "civitai.com", 403, false},
		{"no statuses", GatedHost{HostContains: "civitai"}, "civitai.com", 403, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gate.matches(tt.host, tt.status); got != tt.want {
				t.Errorf("matches(%q, %d) = %v, want %v", tt.host, tt.status, got, tt.want)
			}
		})
	}
}
